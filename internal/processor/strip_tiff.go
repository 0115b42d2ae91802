package processor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/image/tiff"

	"filelens/internal/metaerr"
)

const (
	maxTIFFBytes   = 256 << 20
	tiffTagICC     = 0x8773
	tiffTypeUndef  = 7
	tiffEntrySize  = 12
	tiffInlineSize = 4
)

// IFD0 tags that carry descriptive metadata rather than image structure.
var tiffMetadataTags = map[uint16]string{
	0x010d: "DocumentName",
	0x010e: "ImageDescription",
	0x010f: "Make",
	0x0110: "Model",
	0x011d: "PageName",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013b: "Artist",
	0x013c: "HostComputer",
	0x02bc: "XMP",
	0x8298: "Copyright",
	0x83bb: "IPTC",
	0x8649: "Photoshop",
	0x8769: "ExifIFD",
	0x8773: "ICCProfile",
	0x8825: "GPSIFD",
}

var errMultiPageTIFF = fmt.Errorf("multi-page TIFF: %w", metaerr.ErrUnsupportedFormat)

// stripTIFF re-encodes the image from its decoded pixels when IFD0 carries
// metadata tags. The encoder writes structural tags only; with preserveICC
// the colour profile is carried over to the new IFD0.
func stripTIFF(r io.Reader, w io.Writer, preserveICC bool) (int, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTIFFBytes+1))
	if err != nil {
		return 0, err
	}
	if len(data) > maxTIFFBytes {
		return 0, fmt.Errorf("TIFF larger than %d MiB: %w", maxTIFFBytes>>20, metaerr.ErrUnsupportedFormat)
	}

	tags, next, err := tiffIFD0(data)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, tag := range tags {
		if _, ok := tiffMetadataTags[tag]; !ok {
			continue
		}
		if tag == tiffTagICC && preserveICC {
			continue
		}
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if next != 0 {
		return 0, errMultiPageTIFF
	}

	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	var encoded bytes.Buffer
	if err := tiff.Encode(&encoded, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return 0, err
	}
	out := encoded.Bytes()
	if preserveICC {
		icc, err := tiffICCProfile(data)
		if err != nil {
			return 0, err
		}
		if icc != nil {
			if out, err = appendTIFFTag(out, tiffTagICC, tiffTypeUndef, icc); err != nil {
				return 0, err
			}
		}
	}
	if _, err := w.Write(out); err != nil {
		return 0, err
	}
	return removed, nil
}

func tiffByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, errors.New("truncated TIFF header")
	}
	switch string(data[:2]) {
	case "II":
		return binary.LittleEndian, nil
	case "MM":
		return binary.BigEndian, nil
	default:
		return nil, errors.New("invalid TIFF byte order")
	}
}

// tiffICCProfile returns the bytes of the IFD0 ICC profile, or nil when the
// image has none.
func tiffICCProfile(data []byte) ([]byte, error) {
	order, err := tiffByteOrder(data)
	if err != nil {
		return nil, err
	}
	offset := int64(order.Uint32(data[4:8]))
	count := int64(order.Uint16(data[offset:]))
	for i := int64(0); i < count; i++ {
		entry := data[offset+2+i*tiffEntrySize:]
		if order.Uint16(entry) != tiffTagICC {
			continue
		}
		size := int64(order.Uint32(entry[4:8]))
		if size <= tiffInlineSize {
			return append([]byte(nil), entry[8:8+size]...), nil
		}
		start := int64(order.Uint32(entry[8:12]))
		if start < 8 || start+size > int64(len(data)) {
			return nil, errors.New("ICC profile out of range")
		}
		return append([]byte(nil), data[start:start+size]...), nil
	}
	return nil, nil
}

// appendTIFFTag writes a copy of IFD0 with one extra entry at the end of the
// file and points the header at it. Existing values keep their offsets.
func appendTIFFTag(data []byte, tag, typ uint16, value []byte) ([]byte, error) {
	order, err := tiffByteOrder(data)
	if err != nil {
		return nil, err
	}
	offset := int64(order.Uint32(data[4:8]))
	if offset < 8 || offset+2 > int64(len(data)) {
		return nil, errors.New("IFD0 offset out of range")
	}
	count := int(order.Uint16(data[offset:]))
	entries := data[offset+2:]
	if len(entries) < count*tiffEntrySize+4 {
		return nil, errors.New("IFD0 truncated")
	}

	out := append([]byte(nil), data...)
	if len(out)%2 == 1 {
		out = append(out, 0)
	}
	ifdStart := len(out)
	valueStart := ifdStart + 2 + (count+1)*tiffEntrySize + 4

	added := make([]byte, tiffEntrySize)
	order.PutUint16(added[0:], tag)
	order.PutUint16(added[2:], typ)
	order.PutUint32(added[4:], uint32(len(value)))
	if len(value) <= tiffInlineSize {
		copy(added[8:], value)
	} else {
		order.PutUint32(added[8:], uint32(valueStart))
	}

	var word [2]byte
	order.PutUint16(word[:], uint16(count+1))
	out = append(out, word[:]...)
	inserted := false
	for i := 0; i < count; i++ {
		entry := entries[i*tiffEntrySize : (i+1)*tiffEntrySize]
		if !inserted && order.Uint16(entry) > tag {
			out = append(out, added...)
			inserted = true
		}
		out = append(out, entry...)
	}
	if !inserted {
		out = append(out, added...)
	}
	out = append(out, 0, 0, 0, 0)
	if len(value) > tiffInlineSize {
		out = append(out, value...)
	}
	order.PutUint32(out[4:8], uint32(ifdStart))
	return out, nil
}

// tiffIFD0 lists the tag IDs of the first IFD and the offset of the next.
func tiffIFD0(data []byte) ([]uint16, uint32, error) {
	order, err := tiffByteOrder(data)
	if err != nil {
		return nil, 0, err
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, 0, errors.New("invalid TIFF magic")
	}

	offset := int64(order.Uint32(data[4:8]))
	if offset < 8 || offset+2 > int64(len(data)) {
		return nil, 0, errors.New("IFD0 offset out of range")
	}
	count := int64(order.Uint16(data[offset:]))
	end := offset + 2 + count*12
	if end+4 > int64(len(data)) {
		return nil, 0, errors.New("IFD0 truncated")
	}

	tags := make([]uint16, 0, count)
	for i := int64(0); i < count; i++ {
		entry := offset + 2 + i*12
		tags = append(tags, order.Uint16(data[entry:]))
	}
	return tags, order.Uint32(data[end:]), nil
}
