// Package export serializes a metadata report as JSON, plain text, an XLSX
// workbook or a PDF document.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filelens/internal/metaerr"
	"filelens/internal/report"
)

type Format int

const (
	FormatJSON Format = iota
	FormatTXT
	FormatXLSX
	FormatPDF
)

var formatAliases = map[string]Format{
	"json":  FormatJSON,
	"txt":   FormatTXT,
	"text":  FormatTXT,
	"xlsx":  FormatXLSX,
	"excel": FormatXLSX,
	"pdf":   FormatPDF,
}

// ParseFormat accepts a format name or alias case-insensitively.
func ParseFormat(name string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: unknown export format %q (want json, txt, xlsx or pdf)", metaerr.ErrInvalidValue, name)
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatTXT:
		return "txt"
	case FormatXLSX:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	default:
		return "json"
	}
}

func (f Format) String() string {
	switch f {
	case FormatTXT:
		return "TXT"
	case FormatXLSX:
		return "Excel"
	case FormatPDF:
		return "PDF"
	default:
		return "JSON"
	}
}

// DefaultName suggests "<stem>-metadata.<ext>" from the report's Name or
// Path system entry.
func DefaultName(rep *report.Report, f Format) string {
	stem := "file"
	if rep != nil {
		name, ok := rep.SystemValue("Name")
		if !ok || strings.TrimSpace(name) == "" {
			name, _ = rep.SystemValue("Path")
		}
		name = filepath.Base(strings.TrimSpace(name))
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if name != "" && name != "." && name != string(filepath.Separator) {
			stem = name
		}
	}
	return stem + "-metadata." + f.Extension()
}

// EnsureExtension appends the format's extension unless path already ends
// with it.
func EnsureExtension(path string, f Format) string {
	ext := "." + f.Extension()
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path
	}
	return path + ext
}

// Write encodes rep to w.
func Write(w io.Writer, rep *report.Report, f Format) error {
	if rep == nil {
		return fmt.Errorf("%w: nil report", metaerr.ErrInvalidValue)
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatTXT:
		_, err := io.WriteString(w, renderText(rep))
		return err
	case FormatXLSX:
		return writeXLSX(w, rep)
	case FormatPDF:
		return writePDF(w, rep)
	default:
		return fmt.Errorf("%w: unknown export format %d", metaerr.ErrInvalidValue, int(f))
	}
}

// WriteFile encodes rep fully in memory before creating path, so an encoding
// failure leaves nothing behind.
func WriteFile(path string, rep *report.Report, f Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, rep, f); err != nil {
		return fmt.Errorf("failed to encode %s report: %w", f, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return metaerr.FromOS("export report", path, err)
	}
	return nil
}
