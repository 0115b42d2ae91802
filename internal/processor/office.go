package processor

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/beevik/etree"

	"filelens/internal/metaerr"
	"filelens/internal/reader"
)

const (
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsCP      = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsApp     = "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"
)

const emptyCustomXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/custom-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"/>
`

type qname struct {
	space string
	local string
}

// action is what sanitizing does to one property element.
type action struct {
	value  string
	remove bool
}

var corePolicy = map[qname]action{
	{nsDC, "creator"}:        {},
	{nsCP, "lastModifiedBy"}: {},
	{nsDC, "title"}:          {},
	{nsDC, "subject"}:        {},
	{nsDC, "description"}:    {},
	{nsCP, "keywords"}:       {},
	{nsCP, "category"}:       {},
	{nsCP, "contentStatus"}:  {},
	{nsCP, "lastPrinted"}:    {},
	{nsCP, "revision"}:       {value: "1"},
	{nsDCTerms, "created"}:   {remove: true},
	{nsDCTerms, "modified"}:  {remove: true},
}

var appPolicy = map[qname]action{
	{nsApp, "Company"}:              {},
	{nsApp, "Manager"}:              {},
	{nsApp, "Application"}:          {},
	{nsApp, "AppVersion"}:           {},
	{nsApp, "Template"}:             {},
	{nsApp, "HyperlinkBase"}:        {},
	{nsApp, "TotalTime"}:            {value: "0"},
	{nsApp, "Pages"}:                {value: "0"},
	{nsApp, "Words"}:                {value: "0"},
	{nsApp, "Characters"}:           {value: "0"},
	{nsApp, "CharactersWithSpaces"}: {value: "0"},
	{nsApp, "Lines"}:                {value: "0"},
	{nsApp, "Paragraphs"}:           {value: "0"},
}

func (w *Writer) sanitizeOffice(path string, info fs.FileInfo) (int, bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, false, metaerr.New(metaerr.ErrMalformedDocument, opRemove, path, err)
	}
	defer zr.Close()

	replaced, removed, err := sanitizePackage(&zr.Reader)
	if err != nil {
		return 0, false, metaerr.New(metaerr.ErrMalformedDocument, opRemove, path, err)
	}
	if removed == 0 {
		return 0, false, nil
	}
	for part := range replaced {
		w.log.Debug("sanitized package part", "path", path, "part", part)
	}

	return w.rewrite(opRemove, path, info.Mode(), func(dst io.Writer) (int, error) {
		return removed, rewritePackage(&zr.Reader, dst, replaced)
	}, verifySanitized)
}

// sanitizePackage applies the property policies and returns the new bodies
// of the parts that changed.
func sanitizePackage(zr *zip.Reader) (map[string][]byte, int, error) {
	replaced := map[string][]byte{}
	total := 0

	for _, f := range zr.File {
		var (
			body    []byte
			changed int
			err     error
		)
		switch f.Name {
		case reader.PartCore:
			body, changed, err = sanitizePart(f, corePolicy)
		case reader.PartApp:
			body, changed, err = sanitizePart(f, appPolicy)
		case reader.PartCustom:
			body, changed, err = clearCustomPart(f)
		default:
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", f.Name, err)
		}
		if changed > 0 {
			replaced[f.Name] = body
			total += changed
		}
	}
	return replaced, total, nil
}

func parseDocument(f *zip.File) (*etree.Document, error) {
	data, err := reader.ReadPart(f)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

func sanitizePart(f *zip.File, policy map[qname]action) ([]byte, int, error) {
	doc, err := parseDocument(f)
	if err != nil {
		return nil, 0, err
	}
	root := doc.Root()

	changed := 0
	for _, el := range root.ChildElements() {
		act, ok := policy[qname{el.NamespaceURI(), el.Tag}]
		if !ok {
			continue
		}
		if act.remove {
			root.RemoveChild(el)
			changed++
			continue
		}
		if len(el.ChildElements()) == 0 && el.Text() == act.value {
			continue
		}
		for _, child := range el.ChildElements() {
			el.RemoveChild(child)
		}
		el.SetText(act.value)
		changed++
	}
	if changed == 0 {
		return nil, 0, nil
	}

	body, err := doc.WriteToBytes()
	if err != nil {
		return nil, 0, err
	}
	return body, changed, nil
}

func clearCustomPart(f *zip.File) ([]byte, int, error) {
	doc, err := parseDocument(f)
	if err != nil {
		return nil, 0, err
	}
	props := len(doc.Root().ChildElements())
	if props == 0 {
		return nil, 0, nil
	}
	return []byte(emptyCustomXML), props, nil
}

// rewritePackage copies every member of zr to w, raw where unchanged. The
// rewritten members keep their name, compression method and timestamps.
func rewritePackage(zr *zip.Reader, w io.Writer, replaced map[string][]byte) error {
	zw := zip.NewWriter(w)
	if zr.Comment != "" {
		if err := zw.SetComment(zr.Comment); err != nil {
			return err
		}
	}

	for _, f := range zr.File {
		body, ok := replaced[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}

		header := &zip.FileHeader{
			Name:           f.Name,
			Comment:        f.Comment,
			Method:         f.Method,
			Modified:       f.Modified,
			CreatorVersion: f.CreatorVersion,
			ExternalAttrs:  f.ExternalAttrs,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := fw.Write(body); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

// verifySanitized reopens a rewritten package; sanitizing it again must be a
// no-op.
func verifySanitized(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()

	_, leftover, err := sanitizePackage(&zr.Reader)
	if err != nil {
		return err
	}
	if leftover > 0 {
		return fmt.Errorf("%d properties still set", leftover)
	}
	return nil
}

func packageMember(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func statPackage(op, path string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err == nil {
		return zr, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, metaerr.FromOS(op, path, statErr)
	}
	return nil, metaerr.Newf(metaerr.ErrNotFound, op, path, "not an Office package: %v", err)
}
