package reader

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"filelens/internal/report"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

const (
	pngXMPKeyword = "XML:com.adobe.xmp"
	maxTextChunk  = 4 << 20
)

type pngText struct {
	key   string
	value string
}

type pngChunks struct {
	text      []pngText
	timestamp string
	exif      []byte
	xmp       bool
}

func (c pngChunks) section() *report.Section {
	if len(c.text) == 0 && c.timestamp == "" {
		return nil
	}
	section := report.NewSection(SectionPNGText)
	for _, t := range c.text {
		section.Add(t.key, clip(t.value), report.LevelInfo)
	}
	if c.timestamp != "" {
		section.Add("Last Modification Time", c.timestamp, report.LevelInfo)
	}
	return section
}

func scanPNGChunks(rs io.ReadSeeker) (pngChunks, error) {
	var found pngChunks

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return found, err
	}
	br := bufio.NewReader(rs)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return found, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return found, errors.New("invalid PNG signature")
	}

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return found, nil
			}
			return found, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(br, chunkType); err != nil {
			return found, err
		}
		chunkName := string(chunkType)

		switch chunkName {
		case "tEXt", "zTXt", "iTXt", "tIME", "eXIf":
			if length > maxTextChunk {
				if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
					return found, err
				}
				continue
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return found, err
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return found, err
			}
			if err := found.add(chunkName, data); err != nil {
				return found, fmt.Errorf("%s chunk: %w", chunkName, err)
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return found, err
			}
		}

		if chunkName == "IEND" {
			return found, nil
		}
	}
}

func (c *pngChunks) add(chunkName string, data []byte) error {
	switch chunkName {
	case "eXIf":
		c.exif = data
		return nil
	case "tIME":
		if len(data) != 7 {
			return errors.New("unexpected length")
		}
		year := binary.BigEndian.Uint16(data[:2])
		c.timestamp = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d UTC", year, data[2], data[3], data[4], data[5], data[6])
		return nil
	}

	key, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || len(key) == 0 {
		return errors.New("missing keyword")
	}
	keyword := latin1(key)

	var value string
	switch chunkName {
	case "tEXt":
		value = latin1(rest)
	case "zTXt":
		if len(rest) < 1 {
			return errors.New("missing compression method")
		}
		inflated, err := inflate(rest[1:])
		if err != nil {
			return err
		}
		value = latin1(inflated)
	case "iTXt":
		if keyword == pngXMPKeyword {
			c.xmp = true
			return nil
		}
		text, err := internationalText(rest)
		if err != nil {
			return err
		}
		value = text
	}

	c.text = append(c.text, pngText{key: keyword, value: value})
	return nil
}

// internationalText decodes the body of an iTXt chunk after its keyword:
// compression flag, method, language tag, translated keyword, text.
func internationalText(rest []byte) (string, error) {
	if len(rest) < 2 {
		return "", errors.New("truncated iTXt header")
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	_, rest, ok := bytes.Cut(rest, []byte{0})
	if !ok {
		return "", errors.New("missing language tag")
	}
	_, rest, ok = bytes.Cut(rest, []byte{0})
	if !ok {
		return "", errors.New("missing translated keyword")
	}
	if !compressed {
		return string(rest), nil
	}
	inflated, err := inflate(rest)
	if err != nil {
		return "", err
	}
	return string(inflated), nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxTextChunk))
}

func latin1(b []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
