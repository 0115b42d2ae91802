// Package processor rewrites files without their descriptive metadata and
// edits individual Office document properties.
//
// Every rewrite goes to a temporary file in the destination directory which
// is verified and then renamed over the original, so an interrupted run
// never leaves a truncated file behind.
package processor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"

	"filelens/internal/metaerr"
	"filelens/pkg/format"
)

const (
	opRemove = "remove metadata"
	opEdit   = "edit metadata"
)

// Writer removes and edits metadata in place.
type Writer struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options) *Writer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Writer{opts: opts, log: log}
}

// RemoveMetadata strips every metadata block the engine understands from the
// file at path. Files that carry nothing to remove are left byte-identical.
func (w *Writer) RemoveMetadata(path string) (Result, error) {
	target, info, err := resolveTarget(opRemove, path)
	if err != nil {
		return Result{Path: path}, err
	}

	kind := format.Detect(target)
	res := Result{Path: path, Kind: kind}

	switch kind {
	case format.KindJPEG, format.KindPNG, format.KindTIFF:
		res.Removed, res.Rewritten, err = w.stripImage(target, info, kind)
	case format.KindDOCX, format.KindXLSX, format.KindPPTX:
		res.Removed, res.Rewritten, err = w.sanitizeOffice(target, info)
	case format.KindPDF:
		err = metaerr.Newf(metaerr.ErrUnsupportedFormat, opRemove, path, "PDF metadata removal is not supported")
	case format.KindUnknown:
		err = checkReadable(target)
	default:
		err = metaerr.Newf(metaerr.ErrUnsupportedFormat, opRemove, path, "no writer for %s", kind)
	}
	if err != nil {
		return res, err
	}

	if res.Rewritten {
		if out, statErr := os.Stat(target); statErr == nil {
			res.BytesSaved = info.Size() - out.Size()
		}
		w.log.Info("removed metadata",
			"path", path,
			"kind", kind.String(),
			"removed", res.Removed,
			"bytes_saved", res.BytesSaved,
		)
	} else {
		w.log.Debug("nothing to remove", "path", path, "kind", kind.String())
	}
	return res, nil
}

// resolveTarget follows symlinks so the rename replaces the real file rather
// than the link.
func resolveTarget(op, path string) (string, fs.FileInfo, error) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", nil, metaerr.FromOS(op, path, err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", nil, metaerr.FromOS(op, path, err)
	}
	if info.IsDir() {
		return "", nil, metaerr.Newf(metaerr.ErrUnsupportedFormat, op, path, "is a directory")
	}
	return target, info, nil
}

// checkWritable refuses to replace a file its owner cannot write, which a
// rename in a writable directory would otherwise do silently.
func checkWritable(op, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return metaerr.FromOS(op, path, err)
	}
	if err := f.Close(); err != nil {
		return metaerr.FromOS(op, path, err)
	}
	return nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return metaerr.FromOS(opRemove, path, err)
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		return metaerr.FromOS(opRemove, path, err)
	}
	return nil
}

func (w *Writer) stripImage(path string, info fs.FileInfo, kind format.Kind) (int, bool, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, false, metaerr.FromOS(opRemove, path, err)
	}
	defer src.Close()

	strip := stripJPEG
	switch kind {
	case format.KindPNG:
		strip = stripPNG
	case format.KindTIFF:
		strip = stripTIFF
	}

	return w.rewrite(opRemove, path, info.Mode(), func(dst io.Writer) (int, error) {
		return strip(src, dst, w.opts.PreserveICC)
	}, func(tmpPath string) error {
		return verifyImage(tmpPath, kind, w.opts.PreserveICC)
	})
}

// rewrite runs produce against a temporary file next to path. When produce
// reports no changes the temporary file is discarded and path is untouched;
// otherwise the result is verified and renamed over path.
func (w *Writer) rewrite(op, path string, mode fs.FileMode, produce func(io.Writer) (int, error), verify func(string) error) (int, bool, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".filelens-*.tmp")
	if err != nil {
		return 0, false, metaerr.FromOS(op, path, err)
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(mode.Perm()); err != nil {
		_ = tmpFile.Close()
		return 0, false, metaerr.FromOS(op, path, err)
	}

	changed, err := produce(tmpFile)
	if err != nil {
		_ = tmpFile.Close()
		return 0, false, classify(op, path, err)
	}
	if changed == 0 {
		_ = tmpFile.Close()
		return 0, false, nil
	}
	if err := checkWritable(op, path); err != nil {
		_ = tmpFile.Close()
		return 0, false, err
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return 0, false, metaerr.FromOS(op, path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, false, metaerr.FromOS(op, path, err)
	}

	if err := verify(tmpFile.Name()); err != nil {
		return 0, false, metaerr.Newf(metaerr.ErrMalformedDocument, op, path, "verification failed: %v", err)
	}

	if err := replaceFile(tmpFile.Name(), path); err != nil {
		return 0, false, metaerr.FromOS(op, path, err)
	}
	w.log.Debug("replaced file", "path", path, "changed", changed)
	return changed, true, nil
}

func classify(op, path string, err error) error {
	var metaErr *metaerr.Error
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &metaErr):
		return err
	case errors.Is(err, metaerr.ErrUnsupportedFormat):
		return metaerr.New(metaerr.ErrUnsupportedFormat, op, path, err)
	case errors.As(err, &pathErr):
		return metaerr.New(metaerr.ErrIO, op, path, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return metaerr.New(metaerr.ErrMalformedDocument, op, path, fmt.Errorf("truncated: %w", err))
	default:
		return metaerr.New(metaerr.ErrMalformedDocument, op, path, err)
	}
}

// replaceFile renames tmpPath over destPath, retrying briefly when the
// destination is held open elsewhere. destPath is never removed first: if
// every attempt fails the original stays in place.
func replaceFile(tmpPath, destPath string) error {
	rename := func() error {
		return os.Rename(tmpPath, destPath)
	}
	return backoff.Retry(rename, backoff.WithMaxRetries(backoff.NewConstantBackOff(50*time.Millisecond), 3))
}
