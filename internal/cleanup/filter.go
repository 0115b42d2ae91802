package cleanup

import (
	"fmt"
	"strings"

	"filelens/internal/metaerr"
	"filelens/pkg/format"
)

// Filter restricts a batch to one family of files.
type Filter int

const (
	// FilterAll selects every file the writer handles: images, Office
	// packages and generic files. PDFs are left out since the writer
	// rejects them.
	FilterAll Filter = iota
	FilterImages
	FilterOffice
)

var filterAliases = map[string]Filter{
	"all":      FilterAll,
	"todos":    FilterAll,
	"images":   FilterImages,
	"imagenes": FilterImages,
	"office":   FilterOffice,
}

func (f Filter) String() string {
	switch f {
	case FilterImages:
		return "images"
	case FilterOffice:
		return "office"
	default:
		return "all"
	}
}

// ParseFilter accepts a filter name case-insensitively. An empty name means
// FilterAll.
func ParseFilter(name string) (Filter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FilterAll, nil
	}
	if f, ok := filterAliases[name]; ok {
		return f, nil
	}
	return FilterAll, fmt.Errorf("%w: unknown filter %q (want all, images or office)", metaerr.ErrInvalidValue, name)
}

// Match reports whether path belongs to the filter, judged by its extension.
func (f Filter) Match(path string) bool {
	family := format.FromExtension(path).Family()
	switch f {
	case FilterImages:
		return family == format.FamilyImage
	case FilterOffice:
		return family == format.FamilyOffice
	default:
		return family != format.FamilyPDF
	}
}
