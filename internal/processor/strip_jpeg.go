package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	jpegExifHeader   = []byte("Exif\x00\x00")
	jpegXmpHeader    = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegXmpExtHeader = []byte("http://ns.adobe.com/xmp/extension/\x00")
	jpegPhotoshop    = []byte("Photoshop 3.0\x00")
	jpegICCHeader    = []byte("ICC_PROFILE\x00")
)

const (
	markerSOS = 0xda
	markerEOI = 0xd9
	markerCOM = 0xfe
)

// stripJPEG copies r to w without metadata segments and reports how many
// segments it dropped. Entropy-coded data after SOS is copied untouched.
func stripJPEG(r io.Reader, w io.Writer, preserveICC bool) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	removed := 0

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return 0, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return 0, fmt.Errorf("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return 0, err
	}

	for {
		markerPrefix, err := br.ReadByte()
		if err != nil {
			return removed, err
		}
		for markerPrefix != 0xff {
			markerPrefix, err = br.ReadByte()
			if err != nil {
				return removed, err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return removed, err
		}
		for marker == 0xff {
			marker, err = br.ReadByte()
			if err != nil {
				return removed, err
			}
		}

		if marker == markerEOI {
			if _, err := bw.Write([]byte{0xff, markerEOI}); err != nil {
				return removed, err
			}
			break
		}

		if marker == markerSOS {
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return removed, err
			}
			if _, err := io.Copy(bw, br); err != nil {
				return removed, err
			}
			break
		}

		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return removed, err
			}
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return removed, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return removed, fmt.Errorf("invalid JPEG segment length")
		}
		payloadLen := segLen - 2

		if marker == 0xe1 || marker == 0xe2 || marker == 0xed || marker == markerCOM {
			payload := make([]byte, payloadLen)
			if _, err := io.ReadFull(br, payload); err != nil {
				return removed, err
			}

			if shouldDropJPEGSegment(marker, payload, preserveICC) {
				removed++
				continue
			}

			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return removed, err
			}
			if _, err := bw.Write(lenBuf); err != nil {
				return removed, err
			}
			if _, err := bw.Write(payload); err != nil {
				return removed, err
			}
			continue
		}

		if _, err := bw.Write([]byte{0xff, marker}); err != nil {
			return removed, err
		}
		if _, err := bw.Write(lenBuf); err != nil {
			return removed, err
		}
		if _, err := io.CopyN(bw, br, int64(payloadLen)); err != nil {
			return removed, err
		}
	}

	return removed, bw.Flush()
}

func shouldDropJPEGSegment(marker byte, payload []byte, preserveICC bool) bool {
	switch marker {
	case 0xe1:
		return bytes.HasPrefix(payload, jpegExifHeader) ||
			bytes.HasPrefix(payload, jpegXmpHeader) ||
			bytes.HasPrefix(payload, jpegXmpExtHeader)
	case 0xed:
		return bytes.HasPrefix(payload, jpegPhotoshop)
	case 0xe2:
		return !preserveICC && bytes.HasPrefix(payload, jpegICCHeader)
	case markerCOM:
		return true
	}
	return false
}
