package format

import (
	"github.com/h2non/filetype"
)

// SniffSize is how many leading bytes MIME needs to see.
const SniffSize = 262

// MIME reports the media type for a file of the given kind whose first
// bytes are header. OOXML kinds always win over the generic zip match.
func MIME(kind Kind, header []byte) string {
	switch kind {
	case KindDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case KindXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}

	if match, err := filetype.Match(header); err == nil && match != filetype.Unknown {
		return match.MIME.Value
	}

	switch kind {
	case KindJPEG:
		return "image/jpeg"
	case KindPNG:
		return "image/png"
	case KindTIFF:
		return "image/tiff"
	case KindPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
