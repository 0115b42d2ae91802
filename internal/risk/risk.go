// Package risk flags sensitive metadata fields against a taxonomy of
// field-name patterns loaded from YAML.
package risk

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"filelens/internal/report"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

type Category string

const (
	Identity Category = "identity"
	Location Category = "location"
	Software Category = "software"
	History  Category = "history"
)

func (c Category) valid() bool {
	switch c {
	case Identity, Location, Software, History:
		return true
	}
	return false
}

// Rule maps field-name patterns to one risk label.
type Rule struct {
	Category Category `yaml:"category"`
	Label    string   `yaml:"label"`
	Fields   []string `yaml:"fields"`
	Sections []string `yaml:"sections"`
	Ignore   []string `yaml:"ignore"`

	fields   []*regexp.Regexp
	sections []*regexp.Regexp
	ignore   map[string]bool
}

// Taxonomy is an ordered rule list; the first matching rule wins.
type Taxonomy struct {
	Rules []Rule `yaml:"rules"`
}

// Parse decodes and compiles a taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if len(t.Rules) == 0 {
		return nil, fmt.Errorf("taxonomy has no rules")
	}
	for i := range t.Rules {
		if err := t.Rules[i].compile(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, t.Rules[i].Label, err)
		}
	}
	return &t, nil
}

func (r *Rule) compile() error {
	if !r.Category.valid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("missing label")
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("no field patterns")
	}

	var err error
	if r.fields, err = compileAll(r.Fields); err != nil {
		return err
	}
	if r.sections, err = compileAll(r.Sections); err != nil {
		return err
	}
	r.ignore = make(map[string]bool, len(r.Ignore))
	for _, value := range r.Ignore {
		r.ignore[strings.ToLower(strings.TrimSpace(value))] = true
	}
	return nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Load reads a taxonomy file. An empty path selects the built-in taxonomy.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	return Parse(data)
}

var defaultOnce = sync.OnceValue(func() *Taxonomy {
	t, err := Parse(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("risk: built-in taxonomy: %v", err))
	}
	return t
})

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	return defaultOnce()
}

func (r *Rule) matches(section, label, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || r.ignore[strings.ToLower(value)] {
		return false
	}
	if len(r.sections) > 0 && !anyMatch(r.sections, section) {
		return false
	}
	return anyMatch(r.fields, label)
}

func anyMatch(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Match returns the first rule that flags the field.
func (t *Taxonomy) Match(section, label, value string) (*Rule, bool) {
	for i := range t.Rules {
		if t.Rules[i].matches(section, label, value) {
			return &t.Rules[i], true
		}
	}
	return nil, false
}

// Classify returns one Warning entry per flagged field and promotes the
// flagged fields inside sections to Warning. Fields repeated across sections
// are reported once per section.
func (t *Taxonomy) Classify(sections []report.Section) []report.Entry {
	risks := []report.Entry{}
	for i := range sections {
		section := &sections[i]
		for j := range section.Entries {
			entry := &section.Entries[j]
			rule, ok := t.Match(section.Title, entry.Label, entry.Value)
			if !ok {
				continue
			}
			entry.Level = report.LevelWarning
			risks = append(risks, report.Warning(rule.Label, fmt.Sprintf("%s: %s (%s)", entry.Label, entry.Value, section.Title)))
		}
	}
	return risks
}
