package processor

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"filelens/internal/metaerr"
	"filelens/internal/reader"
	"filelens/pkg/format"
)

// OfficeField is a document property that can be edited.
type OfficeField int

const (
	FieldAuthor OfficeField = iota
	FieldTitle
	FieldSubject
	FieldCompany
)

var officeFieldNames = [...]string{"author", "title", "subject", "company"}

func (f OfficeField) String() string {
	if f < 0 || int(f) >= len(officeFieldNames) {
		return "unknown"
	}
	return officeFieldNames[f]
}

// ParseOfficeField accepts a field name case-insensitively.
func ParseOfficeField(name string) (OfficeField, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range officeFieldNames {
		if candidate == name {
			return OfficeField(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field %q (want author, title, subject or company)", metaerr.ErrInvalidValue, name)
}

// fieldTarget locates the XML element behind a field. Company has no core
// property and lives in the extended properties part.
type fieldTarget struct {
	part   string
	space  string
	prefix string
	local  string
}

func (f OfficeField) target() fieldTarget {
	switch f {
	case FieldTitle:
		return fieldTarget{reader.PartCore, nsDC, "dc", "title"}
	case FieldSubject:
		return fieldTarget{reader.PartCore, nsDC, "dc", "subject"}
	case FieldCompany:
		return fieldTarget{reader.PartApp, nsApp, "", "Company"}
	default:
		return fieldTarget{reader.PartCore, nsDC, "dc", "creator"}
	}
}

// EditOfficeMetadata sets one property of an Office package, creating the
// element when the part lacks it. Everything else in the package is kept.
func (w *Writer) EditOfficeMetadata(path string, field OfficeField, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return metaerr.Newf(metaerr.ErrInvalidValue, opEdit, path, "value for %s must not be blank", field)
	}
	if field < FieldAuthor || field > FieldCompany {
		return metaerr.Newf(metaerr.ErrInvalidValue, opEdit, path, "unknown field %d", int(field))
	}

	target, info, err := resolveTarget(opEdit, path)
	if err != nil {
		return err
	}
	kind := format.Detect(target)
	if kind.Family() != format.FamilyOffice {
		return metaerr.Newf(metaerr.ErrUnsupportedFormat, opEdit, path, "%s is not an Office document", kind.Label())
	}

	zr, err := statPackage(opEdit, target)
	if err != nil {
		return err
	}
	defer zr.Close()

	t := field.target()
	member := packageMember(&zr.Reader, t.part)
	if member == nil {
		return metaerr.Newf(metaerr.ErrNotFound, opEdit, path, "package has no %s", t.part)
	}
	doc, err := parseDocument(member)
	if err != nil {
		return metaerr.New(metaerr.ErrMalformedDocument, opEdit, path, fmt.Errorf("%s: %w", t.part, err))
	}

	el := findProperty(doc.Root(), t)
	if el != nil && len(el.ChildElements()) == 0 && el.Text() == value {
		w.log.Debug("property already set", "path", path, "field", field.String())
		return nil
	}
	if el == nil {
		el = createProperty(doc.Root(), t)
	}
	for _, child := range el.ChildElements() {
		el.RemoveChild(child)
	}
	el.SetText(value)

	body, err := doc.WriteToBytes()
	if err != nil {
		return metaerr.New(metaerr.ErrMalformedDocument, opEdit, path, err)
	}
	replaced := map[string][]byte{t.part: body}

	_, _, err = w.rewrite(opEdit, target, info.Mode(), func(dst io.Writer) (int, error) {
		return 1, rewritePackage(&zr.Reader, dst, replaced)
	}, func(tmpPath string) error {
		return verifyProperty(tmpPath, t, value)
	})
	if err != nil {
		return err
	}
	w.log.Info("edited office property", "path", path, "field", field.String())
	return nil
}

func findProperty(root *etree.Element, t fieldTarget) *etree.Element {
	for _, el := range root.ChildElements() {
		if el.Tag == t.local && el.NamespaceURI() == t.space {
			return el
		}
	}
	return nil
}

// createProperty appends the element, reusing whatever prefix the root
// already binds to the namespace.
func createProperty(root *etree.Element, t fieldTarget) *etree.Element {
	if root.NamespaceURI() == t.space && root.Space == "" {
		return root.CreateElement(t.local)
	}
	prefix := ""
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" && attr.Value == t.space {
			prefix = attr.Key
			break
		}
	}
	if prefix == "" {
		prefix = t.prefix
		root.CreateAttr("xmlns:"+prefix, t.space)
	}
	return root.CreateElement(prefix + ":" + t.local)
}

func verifyProperty(path string, t fieldTarget, want string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()

	member := packageMember(&zr.Reader, t.part)
	if member == nil {
		return fmt.Errorf("%s missing after rewrite", t.part)
	}
	doc, err := parseDocument(member)
	if err != nil {
		return err
	}
	el := findProperty(doc.Root(), t)
	if el == nil || el.Text() != want {
		return fmt.Errorf("%s:%s not updated", t.prefix, t.local)
	}
	return nil
}
