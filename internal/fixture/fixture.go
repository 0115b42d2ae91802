// Package fixture builds small, well-formed sample files carrying known
// metadata for tests.
//
// The reader, analyzer, processor, cleanup and service tests all build the
// same samples, so the builders live in one importable package instead of
// a _test.go file. Only _test.go files may import it.
package fixture

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TIFF field types.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeUndefined = 7
)

// Tag is one IFD entry. Value holds the little-endian encoded payload.
type Tag struct {
	ID    uint16
	Type  uint16
	Count uint32
	Value []byte
}

func ASCII(id uint16, s string) Tag {
	return Tag{ID: id, Type: TypeASCII, Count: uint32(len(s) + 1), Value: append([]byte(s), 0)}
}

func Short(id uint16, v uint16) Tag {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return Tag{ID: id, Type: TypeShort, Count: 1, Value: b}
}

func Long(id uint16, v uint32) Tag {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Tag{ID: id, Type: TypeLong, Count: 1, Value: b}
}

// Rationals encodes numerator/denominator pairs.
func Rationals(id uint16, pairs ...uint32) Tag {
	b := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return Tag{ID: id, Type: TypeRational, Count: uint32(len(pairs) / 2), Value: b}
}

// CameraTags is an IFD0 with identifying camera fields.
func CameraTags() []Tag {
	return []Tag{
		ASCII(0x010F, "TestMaker"),
		ASCII(0x0110, "TestCam"),
		ASCII(0x0131, "Firmware 1.0"),
		ASCII(0x0132, "2024:01:02 03:04:05"),
		ASCII(0x013B, "Jane Doe"),
	}
}

// GPSTags places the image at 40°26'46"N 79°58'56"W.
func GPSTags() []Tag {
	return []Tag{
		ASCII(0x0001, "N"),
		Rationals(0x0002, 40, 1, 26, 1, 46, 1),
		ASCII(0x0003, "W"),
		Rationals(0x0004, 79, 1, 58, 1, 56, 1),
	}
}

// CameraExif is a TIFF-structured EXIF block with camera and GPS fields.
func CameraExif() []byte {
	return TIFF(nil, CameraTags(), GPSTags())
}

// TIFF lays out a little-endian TIFF: header, data (at offset 8), IFD0 and
// an optional GPS IFD referenced from IFD0.
func TIFF(data []byte, ifd0, gps []Tag) []byte {
	ifdStart := uint32(8 + pad(len(data)))
	ifd0 = sortedTags(ifd0)
	if len(gps) > 0 {
		ifd0 = sortedTags(append(ifd0, Long(0x8825, 0)))
	}
	ifd0Size := ifdSize(ifd0)
	gpsStart := ifdStart + ifd0Size
	if len(gps) > 0 {
		for i := range ifd0 {
			if ifd0[i].ID == 0x8825 {
				binary.LittleEndian.PutUint32(ifd0[i].Value, gpsStart)
			}
		}
	}

	var buf bytes.Buffer
	buf.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&buf, binary.LittleEndian, ifdStart)
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
	writeIFD(&buf, ifd0, ifdStart)
	if len(gps) > 0 {
		writeIFD(&buf, sortedTags(gps), gpsStart)
	}
	return buf.Bytes()
}

func sortedTags(tags []Tag) []Tag {
	out := append([]Tag(nil), tags...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func pad(n int) int { return n + n%2 }

func ifdSize(tags []Tag) uint32 {
	size := 2 + 12*len(tags) + 4
	for _, tag := range tags {
		if len(tag.Value) > 4 {
			size += pad(len(tag.Value))
		}
	}
	return uint32(size)
}

func writeIFD(buf *bytes.Buffer, tags []Tag, start uint32) {
	dataOffset := start + uint32(2+12*len(tags)+4)
	var extra bytes.Buffer

	_ = binary.Write(buf, binary.LittleEndian, uint16(len(tags)))
	for _, tag := range tags {
		_ = binary.Write(buf, binary.LittleEndian, tag.ID)
		_ = binary.Write(buf, binary.LittleEndian, tag.Type)
		_ = binary.Write(buf, binary.LittleEndian, tag.Count)
		if len(tag.Value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, tag.Value)
			buf.Write(inline)
			continue
		}
		_ = binary.Write(buf, binary.LittleEndian, dataOffset+uint32(extra.Len()))
		extra.Write(tag.Value)
		if len(tag.Value)%2 == 1 {
			extra.WriteByte(0)
		}
	}
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	buf.Write(extra.Bytes())
}

// GrayTIFF is a 2x2 uncompressed grayscale TIFF carrying the extra IFD0
// tags.
func GrayTIFF(extra ...Tag) []byte {
	pixels := []byte{0x10, 0x40, 0x80, 0xf0}
	tags := []Tag{
		Long(0x0100, 2),
		Long(0x0101, 2),
		Short(0x0102, 8),
		Short(0x0103, 1),
		Short(0x0106, 1),
		Long(0x0111, 8),
		Short(0x0115, 1),
		Long(0x0116, 2),
		Long(0x0117, uint32(len(pixels))),
	}
	return TIFF(pixels, append(tags, extra...), nil)
}

// Segment encodes a JPEG marker segment.
func Segment(marker byte, payload []byte) []byte {
	out := []byte{0xff, marker}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	return append(out, payload...)
}

func ExifSegment(tiff []byte) []byte {
	return Segment(0xe1, append([]byte("Exif\x00\x00"), tiff...))
}

func XMPSegment() []byte {
	packet := `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/></x:xmpmeta>`
	return Segment(0xe1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

func IPTCSegment() []byte {
	return Segment(0xed, append([]byte("Photoshop 3.0\x00"), []byte("8BIM\x04\x04\x00\x00\x00\x00\x00\x00")...))
}

func ICCSegment() []byte {
	return Segment(0xe2, append([]byte("ICC_PROFILE\x00\x01\x01"), bytes.Repeat([]byte{0x42}, 16)...))
}

func CommentSegment(text string) []byte {
	return Segment(0xfe, []byte(text))
}

// JPEG encodes a small image and inserts segments right after SOI.
func JPEG(segments ...[]byte) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	encoded := buf.Bytes()

	out := append([]byte{}, encoded[:2]...)
	for _, segment := range segments {
		out = append(out, segment...)
	}
	return append(out, encoded[2:]...)
}

// Chunk encodes a PNG chunk with its CRC.
func Chunk(chunkType string, data []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	out = append(out, chunkType...)
	out = append(out, data...)
	crc := crc32.ChecksumIEEE(append([]byte(chunkType), data...))
	return binary.BigEndian.AppendUint32(out, crc)
}

func TextChunk(key, value string) []byte {
	return Chunk("tEXt", []byte(key+"\x00"+value))
}

func TimeChunk() []byte {
	return Chunk("tIME", []byte{0x07, 0xe8, 0x01, 0x02, 0x03, 0x04, 0x05})
}

func XMPChunk() []byte {
	return Chunk("iTXt", []byte("XML:com.adobe.xmp\x00\x00\x00\x00\x00<x:xmpmeta/>"))
}

// PNG encodes a 1x1 image and inserts chunks just before IEND.
func PNG(chunks ...[]byte) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	data := buf.Bytes()
	insertAt := len(data) - 12

	out := append([]byte{}, data[:insertAt]...)
	for _, chunk := range chunks {
		out = append(out, chunk...)
	}
	return append(out, data[insertAt:]...)
}

// PDF builds a single-page document whose trailer references an Info
// dictionary with the given entries. Keys are written in sorted order.
func PDF(info map[string]string, withXMP bool) []byte {
	var objects []string
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>",
	)
	if withXMP {
		packet := `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?><x:xmpmeta xmlns:x="adobe:ns:meta/"></x:xmpmeta><?xpacket end="w"?>`
		objects = append(objects, fmt.Sprintf("<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n%s\nendstream", len(packet), packet))
	}

	keys := make([]string, 0, len(info))
	for key := range info {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var dict strings.Builder
	dict.WriteString("<<")
	for _, key := range keys {
		fmt.Fprintf(&dict, " /%s (%s)", key, info[key])
	}
	dict.WriteString(" >>")
	objects = append(objects, dict.String())
	infoID := len(objects)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R /ID [<0123456789abcdef> <0123456789abcdef>] >>\n", len(objects)+1, infoID)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// Office part bodies.
const (
	CoreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><dc:title>Quarterly plan</dc:title><dc:subject>Budget</dc:subject><dc:creator>Jane</dc:creator><cp:keywords>finance</cp:keywords><cp:lastModifiedBy>Jane</cp:lastModifiedBy><cp:revision>7</cp:revision><dcterms:created xsi:type="dcterms:W3CDTF">2024-01-02T03:04:05Z</dcterms:created><dcterms:modified xsi:type="dcterms:W3CDTF">2024-02-03T04:05:06Z</dcterms:modified></cp:coreProperties>`

	AppXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"><Template>Normal.dotm</Template><TotalTime>42</TotalTime><Pages>1</Pages><Words>3</Words><Application>Microsoft Office Word</Application><DocSecurity>0</DocSecurity><TitlesOfParts><vt:vector size="2" baseType="lpstr"><vt:lpstr>Intro</vt:lpstr><vt:lpstr>Body</vt:lpstr></vt:vector></TitlesOfParts><Company>Acme Corp</Company><AppVersion>16.0000</AppVersion></Properties>`

	CustomXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/custom-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"><property fmtid="{D5CDD505-2E9C-101B-9397-08002B2CF9AE}" pid="2" name="Reviewer"><vt:lpwstr>John Roe</vt:lpwstr></property></Properties>`
)

var mainParts = map[string][2]string{
	"docx": {"word/document.xml", `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p></w:body></w:document>`},
	"xlsx": {"xl/workbook.xml", `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheets/></workbook>`},
	"pptx": {"ppt/presentation.xml", `<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`},
}

// Part is a named package member.
type Part struct {
	Name string
	Body string
}

// Office builds an OOXML package of the given kind (docx, xlsx, pptx) with
// the main document part followed by parts.
func Office(kind string, parts ...Part) []byte {
	main, ok := mainParts[kind]
	if !ok {
		panic("fixture: unknown office kind " + kind)
	}
	all := append([]Part{
		{Name: "[Content_Types].xml", Body: `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{Name: "_rels/.rels", Body: `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{Name: main[0], Body: main[1]},
	}, parts...)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range all {
		w, err := zw.Create(part.Name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(part.Body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Docx is a word package with the standard core, app and custom parts.
func Docx() []byte {
	return Office("docx",
		Part{Name: "docProps/core.xml", Body: CoreXML},
		Part{Name: "docProps/app.xml", Body: AppXML},
		Part{Name: "docProps/custom.xml", Body: CustomXML},
	)
}

// Write stores data under dir and returns the full path.
func Write(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
