// Package reader extracts format-specific metadata into report sections.
//
// Readers never fail the caller: parse problems become messages in the
// returned error list or a section notice, and whatever was parsed before
// the problem is still returned.
package reader

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"filelens/internal/report"
	"filelens/pkg/format"
)

// Section titles.
const (
	SectionEXIF       = "EXIF"
	SectionPNGText    = "PNG Text"
	SectionPDF        = "PDF Document"
	SectionOfficeCore = "Office Core Properties"
	SectionOfficeApp  = "Office App Properties"
	SectionOfficeCust = "Office Custom Properties"
)

// NoticeEmbedded is attached when XMP or IPTC blocks are detected.
const NoticeEmbedded = "XMP/IPTC present, not parsed"

const maxValueLen = 128

// Read dispatches to the reader for kind.
func Read(path string, kind format.Kind) (sections []report.Section, errs []string) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, fmt.Sprintf("%s reader aborted: %v", kind, r))
		}
	}()

	switch kind {
	case format.KindJPEG, format.KindPNG, format.KindTIFF:
		return readImage(path, kind)
	case format.KindPDF:
		return readPDF(path)
	case format.KindDOCX, format.KindXLSX, format.KindPPTX:
		return readOffice(path)
	case format.KindUnknown:
		return nil, nil
	default:
		return nil, []string{fmt.Sprintf("no reader for %s", kind)}
	}
}

func clip(value string) string {
	value = strings.TrimSpace(value)
	if !utf8.ValidString(value) {
		value = strings.ToValidUTF8(value, "?")
	}
	if len(value) <= maxValueLen {
		return value
	}
	cut := maxValueLen
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "…"
}
