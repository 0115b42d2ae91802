package processor

import (
	"archive/zip"
	"bytes"
	"errors"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"filelens/internal/fixture"
	"filelens/internal/metaerr"
	"filelens/internal/reader"
	"filelens/internal/report"
	"filelens/pkg/format"
)

func newTestWriter() *Writer {
	return New(Options{PreserveICC: true})
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".filelens-*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

// removeTwice strips path twice and checks the second pass is a no-op.
func removeTwice(t *testing.T, w *Writer, path string) Result {
	t.Helper()

	first, err := w.RemoveMetadata(path)
	if err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	once := readFile(t, path)

	second, err := w.RemoveMetadata(path)
	if err != nil {
		t.Fatalf("second remove metadata: %v", err)
	}
	if second.Rewritten || second.Removed != 0 {
		t.Fatalf("expected second pass to be a no-op, got %+v", second)
	}
	if !bytes.Equal(once, readFile(t, path)) {
		t.Fatalf("second pass changed the file")
	}
	assertNoTempFiles(t, filepath.Dir(path))
	return first
}

func TestScanCleanJPEG(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "sample.jpg", fixture.JPEG(
		fixture.ExifSegment(fixture.CameraExif()),
		fixture.XMPSegment(),
		fixture.IPTCSegment(),
		fixture.CommentSegment("shot by Jane"),
		fixture.ICCSegment(),
	))

	sections, _ := reader.Read(src, format.KindJPEG)
	exifBefore := findSection(t, sections, reader.SectionEXIF)
	if _, ok := exifBefore.Lookup("GPS Position"); !ok {
		t.Fatalf("fixture GPS not reported before clean")
	}

	res := removeTwice(t, newTestWriter(), src)
	if !res.Rewritten || res.Removed != 4 {
		t.Fatalf("expected 4 removed segments, got %+v", res)
	}
	if res.BytesSaved <= 0 {
		t.Fatalf("expected bytes saved, got %d", res.BytesSaved)
	}

	data := readFile(t, src)
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("cleaned JPEG does not decode: %v", err)
	}
	if _, err := exif.Decode(bytes.NewReader(data)); err == nil {
		t.Fatalf("EXIF still decodes after clean")
	}
	if !bytes.Contains(data, []byte("ICC_PROFILE")) {
		t.Fatalf("ICC profile should be preserved")
	}

	sections, _ = reader.Read(src, format.KindJPEG)
	for _, section := range sections {
		if _, ok := section.Lookup("GPS Position"); ok {
			t.Fatalf("GPS still reported after clean")
		}
		if section.Notice != nil && section.Notice.Message == reader.NoticeEmbedded {
			t.Fatalf("XMP/IPTC still reported after clean")
		}
	}
}

func TestCleanJPEGDropsICCWhenNotPreserved(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "icc.jpg", fixture.JPEG(fixture.ICCSegment()))

	res, err := New(Options{}).RemoveMetadata(src)
	if err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	if res.Removed != 1 {
		t.Fatalf("expected ICC segment removed, got %+v", res)
	}
	if bytes.Contains(readFile(t, src), []byte("ICC_PROFILE")) {
		t.Fatalf("ICC profile still present")
	}
}

func TestCleanJPEGPreservesScanData(t *testing.T) {
	plain := fixture.JPEG()
	src := fixture.Write(t, t.TempDir(), "scan.jpg", fixture.JPEG(fixture.ExifSegment(fixture.CameraExif())))

	if _, err := newTestWriter().RemoveMetadata(src); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	if !bytes.Equal(plain, readFile(t, src)) {
		t.Fatalf("cleaned JPEG differs from the metadata-free encoding")
	}
}

func TestScanCleanPNG(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "sample.png", fixture.PNG(
		fixture.TextChunk("Author", "Jane"),
		fixture.TimeChunk(),
		fixture.Chunk("eXIf", fixture.CameraExif()),
		fixture.XMPChunk(),
	))

	res := removeTwice(t, newTestWriter(), src)
	if res.Removed != 4 {
		t.Fatalf("expected 4 removed chunks, got %+v", res)
	}
	data := readFile(t, src)
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("cleaned PNG does not decode: %v", err)
	}
	if !bytes.Equal(fixture.PNG(), data) {
		t.Fatalf("cleaned PNG differs from the metadata-free encoding")
	}
}

func TestScanCleanTIFF(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "scan.tif", fixture.GrayTIFF(
		fixture.ASCII(0x013B, "Jane Doe"),
		fixture.ASCII(0x0131, "ScanSoft"),
	))
	before, err := tiff.Decode(bytes.NewReader(readFile(t, src)))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}

	res := removeTwice(t, newTestWriter(), src)
	if res.Removed != 2 {
		t.Fatalf("expected 2 removed tags, got %+v", res)
	}

	after, err := tiff.Decode(bytes.NewReader(readFile(t, src)))
	if err != nil {
		t.Fatalf("cleaned TIFF does not decode: %v", err)
	}
	bounds := before.Bounds()
	if after.Bounds() != bounds {
		t.Fatalf("bounds changed: %v -> %v", bounds, after.Bounds())
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r1, g1, b1, a1 := before.At(x, y).RGBA()
			r2, g2, b2, a2 := after.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestCleanTIFFWithoutMetadataIsUntouched(t *testing.T) {
	original := fixture.GrayTIFF()
	src := fixture.Write(t, t.TempDir(), "plain.tiff", original)

	res, err := newTestWriter().RemoveMetadata(src)
	if err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	if res.Rewritten {
		t.Fatalf("expected no rewrite, got %+v", res)
	}
	if !bytes.Equal(original, readFile(t, src)) {
		t.Fatalf("file changed")
	}
}

func TestRemovePDFUnsupported(t *testing.T) {
	original := fixture.PDF(map[string]string{"Author": "Jane"}, false)
	src := fixture.Write(t, t.TempDir(), "doc.pdf", original)

	_, err := newTestWriter().RemoveMetadata(src)
	if !errors.Is(err, metaerr.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	if !bytes.Equal(original, readFile(t, src)) {
		t.Fatalf("PDF was modified")
	}
}

func TestRemoveGenericIsNoOp(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "notes.txt", []byte("author: Jane"))

	res, err := newTestWriter().RemoveMetadata(src)
	if err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	if res.Rewritten || res.Kind != format.KindUnknown {
		t.Fatalf("unexpected result %+v", res)
	}
	if string(readFile(t, src)) != "author: Jane" {
		t.Fatalf("generic file changed")
	}
}

func TestRemoveErrors(t *testing.T) {
	dir := t.TempDir()
	w := newTestWriter()

	if _, err := w.RemoveMetadata(filepath.Join(dir, "missing.jpg")); !errors.Is(err, metaerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	garbage := []byte("this is not a jpeg at all")
	src := fixture.Write(t, dir, "broken.jpg", garbage)
	if _, err := w.RemoveMetadata(src); !errors.Is(err, metaerr.ErrMalformedDocument) {
		t.Fatalf("expected malformed document, got %v", err)
	}
	if !bytes.Equal(garbage, readFile(t, src)) {
		t.Fatalf("broken file was modified")
	}

	if _, err := w.RemoveMetadata(dir); !errors.Is(err, metaerr.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format for a directory, got %v", err)
	}
	assertNoTempFiles(t, dir)
}

func TestRemoveFollowsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := fixture.Write(t, dir, "real.jpg", fixture.JPEG(fixture.ExifSegment(fixture.CameraExif())))
	link := filepath.Join(dir, "link.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := newTestWriter().RemoveMetadata(link); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("lstat: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("symlink was replaced by a regular file")
	}
	if !bytes.Equal(fixture.JPEG(), readFile(t, target)) {
		t.Fatalf("link target was not cleaned")
	}
}

func TestRemoveKeepsFileMode(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "mode.png", fixture.PNG(fixture.TimeChunk()))
	if err := os.Chmod(src, 0o640); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := newTestWriter().RemoveMetadata(src); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	info, err := os.Stat(src)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("mode changed to %v", info.Mode().Perm())
	}
}

func TestRemoveReadOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	pdf := fixture.Write(t, dir, "doc.pdf", fixture.PDF(map[string]string{"Author": "Jane"}, false))
	txt := fixture.Write(t, dir, "notes.txt", []byte("plain text"))
	jpg := fixture.Write(t, dir, "photo.jpg", fixture.JPEG(fixture.CommentSegment("shot by Jane")))
	for _, path := range []string{pdf, txt, jpg} {
		if err := os.Chmod(path, 0o444); err != nil {
			t.Fatalf("chmod: %v", err)
		}
	}
	w := newTestWriter()

	if _, err := w.RemoveMetadata(pdf); !errors.Is(err, metaerr.ErrUnsupportedFormat) {
		t.Fatalf("read-only PDF: expected unsupported format, got %v", err)
	}
	res, err := w.RemoveMetadata(txt)
	if err != nil {
		t.Fatalf("read-only generic file: %v", err)
	}
	if res.Rewritten {
		t.Fatalf("generic file rewritten: %+v", res)
	}

	if os.Geteuid() == 0 {
		t.Skip("root can write read-only files")
	}
	original := readFile(t, jpg)
	if _, err := w.RemoveMetadata(jpg); !errors.Is(err, metaerr.ErrIO) {
		t.Fatalf("read-only JPEG: expected i/o error, got %v", err)
	}
	if !bytes.Equal(original, readFile(t, jpg)) {
		t.Fatalf("read-only file was replaced")
	}
	assertNoTempFiles(t, dir)
}

func TestReplaceFileKeepsDestinationOnFailure(t *testing.T) {
	dir := t.TempDir()
	tmp := fixture.Write(t, dir, "stripped.tmp", []byte("stripped"))
	dest := filepath.Join(dir, "busy")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := replaceFile(tmp, dest); err == nil {
		t.Fatalf("expected rename over a directory to fail")
	}
	info, err := os.Stat(dest)
	if err != nil || !info.IsDir() {
		t.Fatalf("destination removed after failed replace: %v", err)
	}
	if !bytes.Equal([]byte("stripped"), readFile(t, tmp)) {
		t.Fatalf("replacement file lost")
	}
}

func TestCleanTIFFKeepsICCProfile(t *testing.T) {
	profile := bytes.Repeat([]byte("icc-profile-"), 8)
	icc := fixture.Tag{ID: tiffTagICC, Type: fixture.TypeUndefined, Count: uint32(len(profile)), Value: profile}
	data := fixture.GrayTIFF(fixture.ASCII(0x013B, "Jane Doe"), icc)

	t.Run("preserved", func(t *testing.T) {
		src := fixture.Write(t, t.TempDir(), "scan.tif", data)
		res := removeTwice(t, newTestWriter(), src)
		if res.Removed != 1 {
			t.Fatalf("expected 1 removed tag, got %+v", res)
		}
		out := readFile(t, src)
		got, err := tiffICCProfile(out)
		if err != nil {
			t.Fatalf("read profile: %v", err)
		}
		if !bytes.Equal(profile, got) {
			t.Fatalf("ICC profile not carried over: %q", got)
		}
		if _, err := tiff.Decode(bytes.NewReader(out)); err != nil {
			t.Fatalf("cleaned TIFF does not decode: %v", err)
		}
		sections, _ := reader.Read(src, format.KindTIFF)
		exifSection := findSection(t, sections, reader.SectionEXIF)
		if _, ok := exifSection.Lookup("Artist"); ok {
			t.Fatalf("Artist still present")
		}
	})

	t.Run("dropped", func(t *testing.T) {
		src := fixture.Write(t, t.TempDir(), "scan.tif", data)
		res, err := New(Options{}).RemoveMetadata(src)
		if err != nil {
			t.Fatalf("remove metadata: %v", err)
		}
		if res.Removed != 2 {
			t.Fatalf("expected 2 removed tags, got %+v", res)
		}
		got, err := tiffICCProfile(readFile(t, src))
		if err != nil {
			t.Fatalf("read profile: %v", err)
		}
		if got != nil {
			t.Fatalf("ICC profile kept without preserve_icc")
		}
	})
}

func TestScanCleanOffice(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "report.docx", fixture.Docx())
	before := zipContents(t, src)

	res := removeTwice(t, newTestWriter(), src)
	if !res.Rewritten || res.Kind != format.KindDOCX {
		t.Fatalf("unexpected result %+v", res)
	}

	after := zipContents(t, src)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if !bytes.Equal(before[name], after[name]) {
			t.Fatalf("content part %s changed", name)
		}
	}
	if string(after[reader.PartCustom]) != emptyCustomXML {
		t.Fatalf("custom properties not cleared: %s", after[reader.PartCustom])
	}

	sections, errs := reader.Read(src, format.KindDOCX)
	if len(errs) != 0 {
		t.Fatalf("reader errors after clean: %v", errs)
	}
	core := findSection(t, sections, reader.SectionOfficeCore)
	for _, label := range []string{"Creator", "Last Modified By", "Title", "Created", "Modified"} {
		if entry, ok := core.Lookup(label); ok {
			t.Fatalf("%s still present: %q", label, entry.Value)
		}
	}
	if entry, _ := core.Lookup("Revision"); entry.Value != "1" {
		t.Fatalf("revision = %q, want 1", entry.Value)
	}
	app := findSection(t, sections, reader.SectionOfficeApp)
	if entry, ok := app.Lookup("Company"); ok {
		t.Fatalf("company still present: %q", entry.Value)
	}
	if entry, _ := app.Lookup("Total Edit Time"); entry.Value != "0" {
		t.Fatalf("total edit time = %q, want 0", entry.Value)
	}
}

func TestCleanOfficeKeepsArchiveLayout(t *testing.T) {
	src := fixture.Write(t, t.TempDir(), "deck.pptx", fixture.Office("pptx",
		fixture.Part{Name: reader.PartCore, Body: fixture.CoreXML},
	))
	beforeNames := zipNames(t, src)

	if _, err := newTestWriter().RemoveMetadata(src); err != nil {
		t.Fatalf("remove metadata: %v", err)
	}
	afterNames := zipNames(t, src)
	if len(beforeNames) != len(afterNames) {
		t.Fatalf("member count changed: %v -> %v", beforeNames, afterNames)
	}
	for i := range beforeNames {
		if beforeNames[i] != afterNames[i] {
			t.Fatalf("member order changed: %v -> %v", beforeNames, afterNames)
		}
	}
}

func TestCleanOfficeMalformedPart(t *testing.T) {
	original := fixture.Office("docx", fixture.Part{Name: reader.PartCore, Body: "<cp:coreProperties"})
	src := fixture.Write(t, t.TempDir(), "bad.docx", original)

	if _, err := newTestWriter().RemoveMetadata(src); !errors.Is(err, metaerr.ErrMalformedDocument) {
		t.Fatalf("expected malformed document, got %v", err)
	}
	if !bytes.Equal(original, readFile(t, src)) {
		t.Fatalf("file modified on failure")
	}
}

func findSection(t *testing.T, sections []report.Section, title string) report.Section {
	t.Helper()
	for _, section := range sections {
		if section.Title == title {
			return section
		}
	}
	t.Fatalf("section %s missing", title)
	return report.Section{}
}

func zipContents(t *testing.T, path string) map[string][]byte {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()

	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = data
	}
	return out
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
