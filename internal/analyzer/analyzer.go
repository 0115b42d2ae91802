// Package analyzer assembles metadata reports for single files and extension
// summaries for file sets.
package analyzer

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"

	"filelens/internal/metaerr"
	"filelens/internal/reader"
	"filelens/internal/report"
	"filelens/internal/risk"
	"filelens/pkg/format"
)

// DefaultHashLimit is the largest file that gets content hashes.
const DefaultHashLimit int64 = 32 << 20

const (
	headerBytes = 64
	timeLayout  = "2006-01-02 15:04:05 -0700"
	notAvail    = "Not available"
)

type Options struct {
	// HashLimit caps the size of hashed files. Zero selects DefaultHashLimit.
	HashLimit int64
	Taxonomy  *risk.Taxonomy
	Logger    *slog.Logger
}

// Analyzer is safe for concurrent use; every call builds its own report.
type Analyzer struct {
	hashLimit int64
	taxonomy  *risk.Taxonomy
	log       *slog.Logger
}

func New(opts Options) *Analyzer {
	a := &Analyzer{hashLimit: opts.HashLimit, taxonomy: opts.Taxonomy, log: opts.Logger}
	if a.hashLimit <= 0 {
		a.hashLimit = DefaultHashLimit
	}
	if a.taxonomy == nil {
		a.taxonomy = risk.Default()
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

type statDetails struct {
	owner    string
	group    string
	accessed time.Time
	created  time.Time
}

// AnalyzeFile builds the report for path. It fails only when the path
// cannot be stat'ed; every later problem is recorded in the report.
func (a *Analyzer) AnalyzeFile(path string, includeHash bool) (*report.Report, error) {
	if strings.TrimSpace(path) == "" {
		return nil, metaerr.Newf(metaerr.ErrNotFound, "analyze", path, "empty path")
	}
	linfo, err := os.Lstat(path)
	if err != nil {
		return nil, metaerr.FromOS("analyze", path, err)
	}
	info := linfo
	var linkTarget string
	if linfo.Mode()&fs.ModeSymlink != 0 {
		linkTarget, _ = os.Readlink(path)
		if info, err = os.Stat(path); err != nil {
			return nil, metaerr.FromOS("analyze", path, err)
		}
	}

	rep := report.New()
	a.identity(rep, path, info)

	st, haveStat := platformStat(info)
	if haveStat {
		rep.System = append(rep.System, report.Info("Owner", st.owner), report.Info("Group", st.group))
	} else {
		rep.System = append(rep.System, report.Muted("Owner", notAvail), report.Muted("Group", notAvail))
	}

	if info.IsDir() {
		a.contents(rep, path)
	} else {
		kind := format.Detect(path)
		a.content(rep, path, info, kind, includeHash)

		sections, errs := reader.Read(path, kind)
		rep.Internal = append(rep.Internal, sections...)
		rep.Errors = append(rep.Errors, errs...)
		rep.Risks = a.taxonomy.Classify(rep.Internal)
	}

	if haveStat {
		rep.System = append(rep.System, report.Info("Last Accessed", st.accessed.Local().Format(timeLayout)))
	}
	rep.System = append(rep.System, report.Info("Last Modified", info.ModTime().Local().Format(timeLayout)))
	if haveStat && !st.created.IsZero() {
		rep.System = append(rep.System, report.Info("Created", st.created.Local().Format(timeLayout)))
	}
	if linkTarget != "" {
		rep.System = append(rep.System, report.Info("Symlink Target", linkTarget))
	}

	a.log.Debug("analyzed file",
		"path", path,
		"sections", len(rep.Internal),
		"risks", len(rep.Risks),
		"errors", len(rep.Errors),
	)
	return rep, nil
}

func (a *Analyzer) identity(rep *report.Report, path string, info fs.FileInfo) {
	rep.System = append(rep.System, report.Info("Path", path))
	if abs, err := filepath.Abs(path); err == nil {
		resolved := abs
		if real, err := filepath.EvalSymlinks(abs); err == nil {
			resolved = real
		}
		rep.System = append(rep.System, report.Info("Resolved Path", resolved))
	}
	rep.System = append(rep.System, report.Info("Name", filepath.Base(path)))

	if info.IsDir() {
		rep.System = append(rep.System, report.Info("Type", "Directory"))
	} else {
		ext := format.Ext(path)
		if ext == "" {
			ext = report.NoExtension
		}
		rep.System = append(rep.System,
			report.Info("Extension", ext),
			report.Info("Type", fileType(info.Mode())),
			report.Info("Size", units.BytesSize(float64(info.Size()))),
			report.Info("Size (bytes)", strconv.FormatInt(info.Size(), 10)),
		)
	}

	perm := info.Mode().Perm()
	if perm&0o200 == 0 {
		rep.System = append(rep.System, report.Warning("Permissions", "Read-only"))
	} else {
		rep.System = append(rep.System, report.NewEntry("Permissions", "Read/write", report.LevelSuccess))
	}
	rep.System = append(rep.System,
		report.Info("Mode", fmt.Sprintf("%04o", uint32(perm))),
		report.Info("Mode (rwx)", info.Mode().String()),
	)
}

func fileType(mode fs.FileMode) string {
	switch {
	case mode.IsRegular():
		return "Regular file"
	case mode&fs.ModeNamedPipe != 0:
		return "Named pipe"
	case mode&fs.ModeSocket != 0:
		return "Socket"
	case mode&fs.ModeDevice != 0:
		return "Device"
	default:
		return "Other"
	}
}

func (a *Analyzer) contents(rep *report.Report, path string) {
	entries, err := os.ReadDir(path)
	if err != nil {
		rep.System = append(rep.System, report.Muted("Contents", notAvail))
		rep.Errors = append(rep.Errors, fmt.Sprintf("list directory: %v", err))
		return
	}
	files, dirs := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			dirs++
		} else {
			files++
		}
	}
	rep.System = append(rep.System, report.Info("Contents", fmt.Sprintf("%d files, %d directories", files, dirs)))
}

func (a *Analyzer) content(rep *report.Report, path string, info fs.FileInfo, kind format.Kind, includeHash bool) {
	rep.System = append(rep.System, report.Info("Format", kind.Label()))

	header, err := format.ReadPrefix(path, format.SniffSize)
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("read header: %v", err))
	}
	rep.System = append(rep.System, report.Info("MIME Type", format.MIME(kind, header)))
	if len(header) > 0 {
		rep.System = append(rep.System, report.Info("Header", fmt.Sprintf("% x", header[:min(len(header), headerBytes)])))
	} else {
		rep.System = append(rep.System, report.Muted("Header", "Empty file"))
	}

	switch {
	case !includeHash:
		rep.System = append(rep.System, report.Muted("MD5", "Omitted (disabled)"), report.Muted("SHA-256", "Omitted (disabled)"))
	case info.Size() > a.hashLimit:
		skipped := "Skipped (larger than " + limitLabel(a.hashLimit) + ")"
		rep.System = append(rep.System, report.Muted("MD5", skipped), report.Muted("SHA-256", skipped))
	default:
		md5sum, shasum, err := hashFile(path)
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("hash: %v", err))
			rep.System = append(rep.System, report.Muted("MD5", notAvail), report.Muted("SHA-256", notAvail))
			return
		}
		rep.System = append(rep.System, report.Info("MD5", md5sum), report.Info("SHA-256", shasum))
	}
}

func limitLabel(limit int64) string {
	if limit%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", limit>>20)
	}
	return units.BytesSize(float64(limit))
}

func hashFile(path string) (string, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	md5h, shah := md5.New(), sha256.New()
	if _, err := io.Copy(io.MultiWriter(md5h, shah), f); err != nil {
		return "", "", err
	}
	return hex.EncodeToString(md5h.Sum(nil)), hex.EncodeToString(shah.Sum(nil)), nil
}
