package reader

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"

	"filelens/internal/report"
)

const maxPDFBytes = 64 << 20

var pdfStandardKeys = []string{
	"Title", "Author", "Subject", "Keywords", "Creator", "Producer",
	"CreationDate", "ModDate", "Trapped",
}

var (
	pdfLiteralRe = regexp.MustCompile(`/(\w+)\s*\(((?:\\.|[^\\)])*)\)`)
	pdfHexRe     = regexp.MustCompile(`/(\w+)\s*<([0-9A-Fa-f\s]+)>`)
	pdfInfoRefRe = regexp.MustCompile(`/Info\s+(\d+)\s+(\d+)\s+R`)
	pdfIDRe      = regexp.MustCompile(`/ID\s*\[`)
	pdfVersionRe = regexp.MustCompile(`^%PDF-(\d\.\d)`)
)

type pdfField struct {
	key   string
	value string
}

func readPDF(path string) ([]report.Section, []string) {
	var errs []string
	section := report.NewSection(SectionPDF)

	data, truncated, err := readBounded(path, maxPDFBytes)
	if err != nil {
		return nil, []string{fmt.Sprintf("open pdf: %v", err)}
	}
	if truncated {
		errs = append(errs, fmt.Sprintf("pdf larger than %d MiB; only the leading part was scanned", maxPDFBytes>>20))
	}

	if m := pdfVersionRe.FindSubmatch(data); m != nil {
		section.Add("PDF Version", string(m[1]), report.LevelInfo)
	}

	fields, err := pdfInfoFromTrailer(path)
	if err != nil {
		errs = append(errs, fmt.Sprintf("pdf structure: %v; used tolerant scan", err))
		fields = scanPDFInfo(data)
	}
	for _, field := range orderPDFFields(fields) {
		level := report.LevelInfo
		if !isStandardPDFKey(field.key) {
			level = report.LevelWarning
		}
		section.Add(field.key, clip(field.value), level)
	}

	if updates := bytes.Count(data, []byte("%%EOF")) - 1; updates > 0 {
		section.Add("Incremental Updates", strconv.Itoa(updates), report.LevelInfo)
	}
	if pdfIDRe.Match(data) {
		section.Add("Document ID", "present", report.LevelInfo)
	}

	switch {
	case bytes.Contains(data, []byte("/Encrypt")):
		section.SetNotice("Encrypted document; the information dictionary may be unreadable", report.LevelWarning)
	case bytes.Contains(data, []byte("<x:xmpmeta")) || bytes.Contains(data, []byte("<?xpacket begin")):
		section.SetNotice("XMP metadata stream present, not parsed", report.LevelMuted)
	case len(fields) == 0:
		section.SetNotice("No document information dictionary found", report.LevelMuted)
	}

	return []report.Section{*section}, errs
}

// pdfInfoFromTrailer resolves the trailer's Info dictionary with a real
// cross-reference parse.
func pdfInfoFromTrailer(path string) (fields []pdfField, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("pdf parser: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	info := r.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return nil, nil
	}
	for _, key := range info.Keys() {
		value := info.Key(key)
		var text string
		switch value.Kind() {
		case pdf.String:
			text = value.Text()
		case pdf.Name:
			text = value.Name()
		case pdf.Integer, pdf.Real, pdf.Bool:
			text = value.String()
		default:
			continue
		}
		fields = append(fields, pdfField{key: key, value: formatPDFValue(key, text)})
	}
	return fields, nil
}

// scanPDFInfo pulls /Key (value) pairs out of the Info object without
// relying on the cross-reference table.
func scanPDFInfo(data []byte) []pdfField {
	body, scoped := data, false
	if refs := pdfInfoRefRe.FindAllSubmatch(data, -1); len(refs) > 0 {
		last := refs[len(refs)-1]
		header := fmt.Sprintf("%s %s obj", last[1], last[2])
		if start := bytes.LastIndex(data, []byte(header)); start >= 0 {
			body, scoped = data[start:], true
			if end := bytes.Index(body, []byte("endobj")); end >= 0 {
				body = body[:end]
			}
		}
	}

	// Outside the Info object only the well-known keys are trustworthy.
	seen := map[string]bool{}
	var fields []pdfField
	add := func(key, value string) {
		if seen[key] || (!scoped && !isStandardPDFKey(key)) {
			return
		}
		seen[key] = true
		fields = append(fields, pdfField{key: key, value: formatPDFValue(key, value)})
	}

	for _, m := range pdfLiteralRe.FindAllSubmatch(body, -1) {
		add(string(m[1]), decodePDFLiteral(m[2]))
	}
	for _, m := range pdfHexRe.FindAllSubmatch(body, -1) {
		raw, err := hex.DecodeString(strings.Join(strings.Fields(string(m[2])), ""))
		if err != nil {
			continue
		}
		add(string(m[1]), decodePDFText(raw))
	}
	return fields
}

func decodePDFLiteral(raw []byte) string {
	var out bytes.Buffer
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			out.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 't':
			out.WriteByte('\t')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			end := i
			for end < len(raw) && end < i+3 && raw[end] >= '0' && raw[end] <= '7' {
				end++
			}
			v, _ := strconv.ParseUint(string(raw[i:end]), 8, 8)
			out.WriteByte(byte(v))
			i = end - 1
		default:
			out.WriteByte(raw[i])
		}
	}
	return decodePDFText(out.Bytes())
}

// decodePDFText handles UTF-16BE strings marked with a byte order mark.
func decodePDFText(raw []byte) string {
	if len(raw) >= 2 && raw[0] == 0xfe && raw[1] == 0xff {
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err == nil {
			return string(decoded)
		}
	}
	return string(raw)
}

func formatPDFValue(key, value string) string {
	if key == "CreationDate" || key == "ModDate" {
		return formatPDFDate(value)
	}
	return value
}

// formatPDFDate renders D:YYYYMMDDHHmmSSOHH'mm' as a readable timestamp and
// returns anything it cannot parse unchanged.
func formatPDFDate(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "D:")
	if len(s) < 14 {
		return raw
	}
	for _, c := range s[:14] {
		if c < '0' || c > '9' {
			return raw
		}
	}
	out := fmt.Sprintf("%s-%s-%s %s:%s:%s", s[0:4], s[4:6], s[6:8], s[8:10], s[10:12], s[12:14])
	zone := strings.ReplaceAll(s[14:], "'", "")
	switch {
	case zone == "Z":
		out += " UTC"
	case len(zone) == 5 && (zone[0] == '+' || zone[0] == '-'):
		out += " " + zone[:3] + ":" + zone[3:]
	}
	return out
}

func isStandardPDFKey(key string) bool {
	for _, k := range pdfStandardKeys {
		if k == key {
			return true
		}
	}
	return false
}

func orderPDFFields(fields []pdfField) []pdfField {
	rank := func(key string) int {
		for i, k := range pdfStandardKeys {
			if k == key {
				return i
			}
		}
		return len(pdfStandardKeys)
	}
	ordered := append([]pdfField(nil), fields...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := rank(ordered[i].key), rank(ordered[j].key)
		if ri != rj {
			return ri < rj
		}
		return ordered[i].key < ordered[j].key
	})
	return ordered
}

func readBounded(path string, limit int64) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
