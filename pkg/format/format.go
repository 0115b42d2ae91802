package format

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies a container format the engine understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
	KindPDF
	KindDOCX
	KindXLSX
	KindPPTX
)

// Family groups kinds that share a reader and a writer.
type Family int

const (
	FamilyOther Family = iota
	FamilyImage
	FamilyPDF
	FamilyOffice
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindTIFF:
		return "tiff"
	case KindPDF:
		return "pdf"
	case KindDOCX:
		return "docx"
	case KindXLSX:
		return "xlsx"
	case KindPPTX:
		return "pptx"
	default:
		return "unknown"
	}
}

// Label is the human name shown in reports.
func (k Kind) Label() string {
	switch k {
	case KindJPEG:
		return "JPEG image"
	case KindPNG:
		return "PNG image"
	case KindTIFF:
		return "TIFF image"
	case KindPDF:
		return "PDF document"
	case KindDOCX:
		return "Word document (docx)"
	case KindXLSX:
		return "Excel workbook (xlsx)"
	case KindPPTX:
		return "PowerPoint presentation (pptx)"
	default:
		return "Unknown"
	}
}

func (k Kind) Family() Family {
	switch k {
	case KindJPEG, KindPNG, KindTIFF:
		return FamilyImage
	case KindPDF:
		return FamilyPDF
	case KindDOCX, KindXLSX, KindPPTX:
		return FamilyOffice
	default:
		return FamilyOther
	}
}

func (f Family) String() string {
	switch f {
	case FamilyImage:
		return "image"
	case FamilyPDF:
		return "pdf"
	case FamilyOffice:
		return "office"
	default:
		return "other"
	}
}

const prefixSize = 16

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	pdfSig    = []byte("%PDF")
	zipSig    = []byte{0x50, 0x4b, 0x03, 0x04}
)

// DetectHeader classifies a byte prefix by magic number alone. ZIP
// containers report KindUnknown here since telling OOXML packages apart
// needs the central directory; see IsZip and Detect.
func DetectHeader(header []byte) Kind {
	switch {
	case bytes.HasPrefix(header, jpegSig):
		return KindJPEG
	case bytes.HasPrefix(header, pngSig):
		return KindPNG
	case bytes.HasPrefix(header, tiffSigLE), bytes.HasPrefix(header, tiffSigBE):
		return KindTIFF
	case bytes.HasPrefix(header, pdfSig):
		return KindPDF
	default:
		return KindUnknown
	}
}

// IsZip reports whether header starts with a local file header signature.
func IsZip(header []byte) bool {
	return bytes.HasPrefix(header, zipSig)
}

// Detect classifies the file at path. It reads a bounded prefix, inspects
// the archive directory for ZIP containers and falls back to the extension
// when the content is inconclusive. Unreadable and empty files resolve to
// KindUnknown.
func Detect(path string) Kind {
	header, err := ReadPrefix(path, prefixSize)
	if err != nil || len(header) == 0 {
		return KindUnknown
	}

	if kind := DetectHeader(header); kind != KindUnknown {
		return kind
	}
	if IsZip(header) {
		if kind := officeKind(path); kind != KindUnknown {
			return kind
		}
	}
	return FromExtension(path)
}

// ReadPrefix returns up to n bytes from the start of the file.
func ReadPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

// FromExtension guesses the kind from the file name only.
func FromExtension(path string) Kind {
	switch Ext(path) {
	case "jpg", "jpeg":
		return KindJPEG
	case "png":
		return KindPNG
	case "tif", "tiff":
		return KindTIFF
	case "pdf":
		return KindPDF
	case "docx":
		return KindDOCX
	case "xlsx":
		return KindXLSX
	case "pptx":
		return KindPPTX
	default:
		return KindUnknown
	}
}

// Ext returns the lowercased extension without the leading dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

var officeMainParts = map[string]Kind{
	"word/document.xml":    KindDOCX,
	"xl/workbook.xml":      KindXLSX,
	"ppt/presentation.xml": KindPPTX,
}

var officeContentTypes = map[string]Kind{
	"wordprocessingml.document":   KindDOCX,
	"spreadsheetml.sheet":         KindXLSX,
	"presentationml.presentation": KindPPTX,
}

func officeKind(path string) Kind {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return KindUnknown
	}
	defer zr.Close()

	var contentTypes *zip.File
	for _, f := range zr.File {
		if kind, ok := officeMainParts[f.Name]; ok {
			return kind
		}
		if f.Name == "[Content_Types].xml" {
			contentTypes = f
		}
	}
	if contentTypes == nil {
		return KindUnknown
	}

	rc, err := contentTypes.Open()
	if err != nil {
		return KindUnknown
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return KindUnknown
	}
	for marker, kind := range officeContentTypes {
		if bytes.Contains(data, []byte(marker+".main+xml")) {
			return kind
		}
	}
	return KindUnknown
}
