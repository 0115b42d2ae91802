package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"filelens/internal/metaerr"
	"filelens/internal/report"
)

func sampleReport() *report.Report {
	rep := report.New()
	rep.System = append(rep.System,
		report.Info("Path", "/tmp/photos/beach.jpg"),
		report.Info("Name", "beach.jpg"),
		report.Warning("Permissions", "Read-only"),
	)

	exif := report.NewSection("EXIF")
	exif.Add("Model", "TestCam", report.LevelInfo)
	exif.Add("GPS Position", "40.446111, -79.982222", report.LevelWarning)
	exif.SetNotice("XMP/IPTC present, not parsed", report.LevelMuted)
	rep.Internal = append(rep.Internal, *exif, *report.NewSection("PNG Text"))

	rep.Risks = append(rep.Risks, report.Warning("GPS location", "GPS Position: 40.446111, -79.982222 (EXIF)"))
	rep.Errors = append(rep.Errors, "thumbnail could not be decoded")
	return rep
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":  FormatJSON,
		"TXT":   FormatTXT,
		"text":  FormatTXT,
		"xlsx":  FormatXLSX,
		"Excel": FormatXLSX,
		" pdf ": FormatPDF,
	}
	for name, want := range tests {
		got, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, metaerr.ErrInvalidValue)
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "beach-metadata.pdf", DefaultName(sampleReport(), FormatPDF))

	pathOnly := report.New()
	pathOnly.System = append(pathOnly.System, report.Info("Path", "/srv/docs/plan.v2.docx"))
	assert.Equal(t, "plan.v2-metadata.txt", DefaultName(pathOnly, FormatTXT))

	assert.Equal(t, "file-metadata.json", DefaultName(report.New(), FormatJSON))
	assert.Equal(t, "file-metadata.xlsx", DefaultName(nil, FormatXLSX))
}

func TestEnsureExtension(t *testing.T) {
	assert.Equal(t, "out.pdf", EnsureExtension("out", FormatPDF))
	assert.Equal(t, "out.PDF", EnsureExtension("out.PDF", FormatPDF))
	assert.Equal(t, "out.json.txt", EnsureExtension("out.json", FormatTXT))
}

func TestWriteJSON(t *testing.T) {
	rep := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep, FormatJSON))

	assert.Contains(t, buf.String(), "\n  \"system\"")
	assert.Contains(t, buf.String(), `"level": "warning"`)

	var decoded report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *rep, decoded)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatTXT))
	text := buf.String()

	assert.True(t, strings.HasPrefix(text, "Metadata report\n===============\n\n"))
	assert.Contains(t, text, "System\n------\n- Path: /tmp/photos/beach.jpg (info)\n")
	assert.Contains(t, text, "- Permissions: Read-only (warning)\n")
	assert.Contains(t, text, "EXIF\n----\n- Model: TestCam (info)\n")
	assert.Contains(t, text, "Note: XMP/IPTC present, not parsed\n")
	assert.Contains(t, text, "PNG Text\n--------\n(no data)\n")
	assert.Contains(t, text, "Risks\n-----\n- GPS location: GPS Position: 40.446111, -79.982222 (EXIF) (warning)\n")
	assert.Contains(t, text, "Errors\n------\n- thumbnail could not be decoded\n")
}

func TestWriteTextOmitsEmptyRisksAndErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, report.New(), FormatTXT))
	assert.Equal(t, "Metadata report\n===============\n\nSystem\n------\n(no data)\n\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	sheetRows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.NotEmpty(t, sheetRows)
	assert.Equal(t, []string{"Section", "Label", "Value", "Level"}, sheetRows[0])
	assert.Contains(t, sheetRows, []string{"System", "Permissions", "Read-only", "Warning"})
	assert.Contains(t, sheetRows, []string{"EXIF", "Note", "XMP/IPTC present, not parsed", "Info"})
	assert.Contains(t, sheetRows, []string{"PNG Text", noData, "-", "Info"})
	assert.Contains(t, sheetRows, []string{"Errors", "Error", "thumbnail could not be decoded", "Error"})
	assert.Len(t, sheetRows, 1+len(rows(sampleReport())))

	panes, err := f.GetPanes(sheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestWritePDF(t *testing.T) {
	rep := sampleReport()
	long := strings.Repeat("very long value ", 40)
	for i := 0; i < 80; i++ {
		rep.System = append(rep.System, report.Info("Extra", long))
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep, FormatPDF))
	data := buf.Bytes()
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data[len(data)-16:]), "%%EOF")
	assert.Greater(t, bytes.Count(data, []byte("/Type /Page\n")), 1, "long reports span several pages")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []Format{FormatJSON, FormatTXT, FormatXLSX, FormatPDF} {
		path := filepath.Join(dir, DefaultName(sampleReport(), f))
		require.NoError(t, WriteFile(path, sampleReport(), f), f.String())
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := WriteFile(filepath.Join(dir, "missing", "out.json"), sampleReport(), FormatJSON)
	assert.ErrorIs(t, err, metaerr.ErrNotFound)
	assert.Error(t, Write(&bytes.Buffer{}, nil, FormatJSON))
}
