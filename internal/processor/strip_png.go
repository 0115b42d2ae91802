package processor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// stripPNG copies r to w without textual, EXIF and timestamp chunks and
// reports how many chunks it dropped.
func stripPNG(r io.Reader, w io.Writer, preserveICC bool) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	removed := 0

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return 0, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return 0, fmt.Errorf("invalid PNG signature")
	}
	if _, err := bw.Write(sig); err != nil {
		return 0, err
	}

	sawIEND := false
	for !sawIEND {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return removed, fmt.Errorf("missing IEND chunk")
			}
			return removed, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		typeBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, typeBuf); err != nil {
			return removed, err
		}
		chunkName := string(typeBuf)
		sawIEND = chunkName == "IEND"

		if shouldDropPNGChunk(chunkName, preserveICC) {
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return removed, err
			}
			removed++
			continue
		}

		if _, err := bw.Write(lenBuf); err != nil {
			return removed, err
		}
		if _, err := bw.Write(typeBuf); err != nil {
			return removed, err
		}
		if _, err := io.CopyN(bw, br, int64(length)+4); err != nil {
			return removed, err
		}
	}

	return removed, bw.Flush()
}

func shouldDropPNGChunk(chunkName string, preserveICC bool) bool {
	switch chunkName {
	case "tEXt", "zTXt", "iTXt", "eXIf", "tIME":
		return true
	case "iCCP":
		return !preserveICC
	default:
		return false
	}
}
