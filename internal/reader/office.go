package reader

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"filelens/internal/report"
)

// Package part names of the OOXML document properties.
const (
	PartCore   = "docProps/core.xml"
	PartApp    = "docProps/app.xml"
	PartCustom = "docProps/custom.xml"
)

const maxPartSize = 8 << 20

var officeLabels = map[string]string{
	"creator":              "Creator",
	"lastModifiedBy":       "Last Modified By",
	"title":                "Title",
	"subject":              "Subject",
	"description":          "Description",
	"keywords":             "Keywords",
	"category":             "Category",
	"contentStatus":        "Content Status",
	"revision":             "Revision",
	"created":              "Created",
	"modified":             "Modified",
	"lastPrinted":          "Last Printed",
	"identifier":           "Identifier",
	"language":             "Language",
	"version":              "Version",
	"AppVersion":           "App Version",
	"TotalTime":            "Total Edit Time",
	"HyperlinkBase":        "Hyperlink Base",
	"DocSecurity":          "Doc Security",
	"CharactersWithSpaces": "Characters With Spaces",
	"TitlesOfParts":        "Titles Of Parts",
	"HeadingPairs":         "Heading Pairs",
	"ScaleCrop":            "Scale Crop",
	"LinksUpToDate":        "Links Up To Date",
	"SharedDoc":            "Shared Doc",
	"HyperlinksChanged":    "Hyperlinks Changed",
	"HiddenSlides":         "Hidden Slides",
	"MMClips":              "Multimedia Clips",
	"PresentationFormat":   "Presentation Format",
}

// OfficeLabel maps a property element's local name to its display label.
func OfficeLabel(local string) string {
	if label, ok := officeLabels[local]; ok {
		return label
	}
	return local
}

func readOffice(path string) ([]report.Section, []string) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		section := report.NewSection(SectionOfficeCore)
		section.Add("Package", "not a readable Office package", report.LevelError)
		section.SetNotice("The file could not be opened as a ZIP container", report.LevelError)
		return []report.Section{*section}, []string{fmt.Sprintf("open office package: %v", err)}
	}
	defer zr.Close()

	parts := map[string]*zip.File{}
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	var (
		sections []report.Section
		errs     []string
	)
	for _, part := range []struct {
		name  string
		title string
		read  func(*etree.Element, *report.Section)
	}{
		{PartCore, SectionOfficeCore, flattenProperties},
		{PartApp, SectionOfficeApp, flattenProperties},
		{PartCustom, SectionOfficeCust, flattenCustomProperties},
	} {
		f, ok := parts[part.name]
		if !ok {
			continue
		}
		section := report.NewSection(part.title)
		root, err := parsePart(f)
		if err != nil {
			section.Add("XML Error", clip(err.Error()), report.LevelError)
			section.SetNotice(part.name+" is not well-formed XML", report.LevelError)
			errs = append(errs, fmt.Sprintf("%s: %v", part.name, err))
		} else {
			part.read(root, section)
			if len(section.Entries) == 0 {
				section.SetNotice("No values set", report.LevelMuted)
			}
		}
		sections = append(sections, *section)
	}

	if len(sections) == 0 {
		section := report.NewSection(SectionOfficeCore)
		section.SetNotice("The package carries no document property parts", report.LevelMuted)
		sections = append(sections, *section)
	}
	return sections, errs
}

// ReadPart loads a package part, refusing parts larger than the part limit.
func ReadPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part larger than %d MiB", maxPartSize>>20)
	}
	return data, nil
}

func parsePart(f *zip.File) (*etree.Element, error) {
	data, err := ReadPart(f)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

func flattenProperties(root *etree.Element, section *report.Section) {
	for _, el := range root.ChildElements() {
		value := elementText(el)
		if value == "" {
			continue
		}
		section.Add(OfficeLabel(el.Tag), clip(value), report.LevelInfo)
	}
}

func flattenCustomProperties(root *etree.Element, section *report.Section) {
	for _, prop := range root.ChildElements() {
		name := prop.SelectAttrValue("name", "")
		if name == "" {
			continue
		}
		value := elementText(prop)
		if value == "" {
			continue
		}
		section.Add(name, clip(value), report.LevelInfo)
	}
}

// elementText returns the trimmed text of a leaf element, or the leaf texts
// of a nested element joined with ", ".
func elementText(el *etree.Element) string {
	children := el.ChildElements()
	if len(children) == 0 {
		return strings.TrimSpace(el.Text())
	}
	var parts []string
	for _, child := range children {
		if text := elementText(child); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", ")
}
