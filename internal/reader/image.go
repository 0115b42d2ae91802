package reader

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"filelens/internal/report"
	"filelens/pkg/format"
)

var (
	jpegExifHeader    = []byte("Exif\x00\x00")
	jpegXmpHeader     = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegXmpExtHeader  = []byte("http://ns.adobe.com/xmp/extension/\x00")
	jpegPhotoshopHead = []byte("Photoshop 3.0\x00")
)

const (
	tiffTagXMP  = 0x02bc
	tiffTagIPTC = 0x83bb
)

func readImage(path string, kind format.Kind) ([]report.Section, []string) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("open image: %v", err)}
	}
	defer f.Close()

	var (
		errs     []string
		sections []report.Section
		embedded bool
		tags     []exif.ExifTag
	)

	switch kind {
	case format.KindJPEG:
		markers, err := scanJPEGMarkers(f)
		if err != nil {
			errs = append(errs, fmt.Sprintf("jpeg structure: %v", err))
		}
		embedded = markers.xmp || markers.iptc
		if markers.exif {
			tags, err = jpegExifTags(f)
			if err != nil {
				errs = append(errs, fmt.Sprintf("exif: %v", err))
			}
		}
	case format.KindTIFF:
		tags, err = exifTags(f)
		if err != nil {
			errs = append(errs, fmt.Sprintf("exif: %v", err))
		}
		for _, tag := range tags {
			if tag.TagId == tiffTagXMP || tag.TagId == tiffTagIPTC {
				embedded = true
			}
		}
	case format.KindPNG:
		chunks, err := scanPNGChunks(f)
		if err != nil {
			errs = append(errs, fmt.Sprintf("png structure: %v", err))
		}
		embedded = chunks.xmp
		if text := chunks.section(); text != nil {
			sections = append(sections, *text)
		}
		if len(chunks.exif) > 0 {
			tags, err = exifTags(bytes.NewReader(chunks.exif))
			if err != nil {
				errs = append(errs, fmt.Sprintf("exif: %v", err))
			}
		}
	}

	section := exifSection(tags)
	if embedded {
		section.SetNotice(NoticeEmbedded, report.LevelMuted)
	} else if len(section.Entries) == 0 {
		section.SetNotice("No EXIF metadata found", report.LevelMuted)
	}

	return append([]report.Section{*section}, sections...), errs
}

// exifTags reads a stream that starts with a TIFF header: a TIFF file or a
// PNG eXIf payload.
func exifTags(rs io.ReadSeeker) (tags []exif.ExifTag, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, fmt.Errorf("exif parser: %v", r)
		}
	}()

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	tags, _, err = exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if errors.Is(err, exif.ErrNoExif) {
		return nil, nil
	}
	return tags, err
}

// jpegExifTags locates the TIFF block inside the APP1 Exif segment before
// flattening it.
func jpegExifTags(rs io.ReadSeeker) (tags []exif.ExifTag, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, fmt.Errorf("exif parser: %v", r)
		}
	}()

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	raw, err := exif.SearchAndExtractExifWithReader(rs)
	if errors.Is(err, exif.ErrNoExif) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tags, _, err = exif.GetFlatExifData(raw, nil)
	if errors.Is(err, exif.ErrNoExif) {
		return nil, nil
	}
	return tags, err
}

func exifSection(tags []exif.ExifTag) *report.Section {
	section := report.NewSection(SectionEXIF)
	coords := map[string]string{}

	for _, tag := range tags {
		if tag.TagName == "" || tag.ChildIfdPath != "" {
			continue
		}
		// IFD1 only describes the embedded thumbnail.
		if strings.HasPrefix(tag.IfdPath, "IFD1") {
			continue
		}

		value := tag.Formatted
		if tag.TagTypeName == "UNDEFINED" && len(tag.ValueBytes) > 64 {
			value = fmt.Sprintf("<%d bytes>", len(tag.ValueBytes))
		}
		value = clip(value)
		if value == "" {
			continue
		}

		switch tag.TagName {
		case "GPSLatitude", "GPSLatitudeRef", "GPSLongitude", "GPSLongitudeRef":
			coords[tag.TagName] = tag.Formatted
		}
		section.Add(tag.TagName, value, report.LevelInfo)
	}

	if position, ok := gpsPosition(coords); ok {
		section.Add("GPS Position", position, report.LevelInfo)
	}
	return section
}

type jpegMarkers struct {
	exif bool
	xmp  bool
	iptc bool
}

// scanJPEGMarkers walks the segments that precede the first SOS marker.
func scanJPEGMarkers(rs io.ReadSeeker) (jpegMarkers, error) {
	var found jpegMarkers
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return found, err
	}
	br := bufio.NewReader(rs)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return found, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return found, errors.New("invalid JPEG SOI")
	}

	for {
		marker, err := nextJPEGMarker(br)
		if err != nil {
			return found, err
		}
		if marker == 0xd9 || marker == 0xda {
			return found, nil
		}
		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return found, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return found, errors.New("invalid JPEG segment length")
		}
		payloadLen := segLen - 2

		if marker != 0xe1 && marker != 0xed {
			if _, err := io.CopyN(io.Discard, br, int64(payloadLen)); err != nil {
				return found, err
			}
			continue
		}

		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(br, payload); err != nil {
			return found, err
		}
		switch {
		case marker == 0xe1 && bytes.HasPrefix(payload, jpegExifHeader):
			found.exif = true
		case marker == 0xe1 && (bytes.HasPrefix(payload, jpegXmpHeader) || bytes.HasPrefix(payload, jpegXmpExtHeader)):
			found.xmp = true
		case marker == 0xed && bytes.HasPrefix(payload, jpegPhotoshopHead):
			found.iptc = true
		}
	}
}

func nextJPEGMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for b != 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	for b == 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return b, nil
}
