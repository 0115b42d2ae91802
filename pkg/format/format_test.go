package format

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHeader(t *testing.T) {
	cases := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0}, KindJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, KindPNG},
		{"tiff le", []byte{'I', 'I', 0x2a, 0, 8, 0, 0, 0}, KindTIFF},
		{"tiff be", []byte{'M', 'M', 0, 0x2a, 0, 0, 0, 8}, KindTIFF},
		{"pdf", []byte("%PDF-1.7\n"), KindPDF},
		{"zip", []byte{'P', 'K', 3, 4, 0, 0, 0, 0}, KindUnknown},
		{"short", []byte{0xff}, KindUnknown},
		{"empty", nil, KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectHeader(tc.header))
		})
	}
}

func TestDetectFallsBackToExtension(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "photo.JPG")
	require.NoError(t, os.WriteFile(garbage, []byte("not really a jpeg"), 0o644))
	assert.Equal(t, KindJPEG, Detect(garbage))

	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.Equal(t, KindUnknown, Detect(empty))

	assert.Equal(t, KindUnknown, Detect(filepath.Join(dir, "missing.pdf")))

	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))
	assert.Equal(t, KindUnknown, Detect(text))
}

func TestDetectOfficePackages(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]struct {
		part string
		want Kind
	}{
		"report.bin": {"word/document.xml", KindDOCX},
		"sheet.zip":  {"xl/workbook.xml", KindXLSX},
		"deck.data":  {"ppt/presentation.xml", KindPPTX},
	}

	for name, tc := range cases {
		path := filepath.Join(dir, name)
		writeZip(t, path, map[string]string{tc.part: "<x/>"})
		assert.Equal(t, tc.want, Detect(path), name)
	}

	plain := filepath.Join(dir, "archive.zip")
	writeZip(t, plain, map[string]string{"readme.txt": "hi"})
	assert.Equal(t, KindUnknown, Detect(plain))

	byContentType := filepath.Join(dir, "odd.pkg")
	writeZip(t, byContentType, map[string]string{
		"[Content_Types].xml": `<Types><Override ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/></Types>`,
	})
	assert.Equal(t, KindXLSX, Detect(byContentType))
}

func TestFamily(t *testing.T) {
	assert.Equal(t, FamilyImage, KindTIFF.Family())
	assert.Equal(t, FamilyOffice, KindPPTX.Family())
	assert.Equal(t, FamilyPDF, KindPDF.Family())
	assert.Equal(t, FamilyOther, KindUnknown.Family())
}

func TestMIME(t *testing.T) {
	assert.Equal(t, "image/png", MIME(KindPNG, []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}))
	assert.Equal(t, "application/pdf", MIME(KindPDF, []byte("%PDF-1.4")))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		MIME(KindDOCX, []byte{'P', 'K', 3, 4}))
	assert.Equal(t, "application/octet-stream", MIME(KindUnknown, []byte("plain")))
}

func writeZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
