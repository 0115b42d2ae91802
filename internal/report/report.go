// Package report holds the analysis result model shared by readers, the
// assembler, exporters and the terminal renderer.
package report

import (
	"fmt"
	"strings"
)

// Level is a presentation hint that also carries meaning: Warning marks a
// risky field, Muted an informational aside.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelSuccess
	LevelError
	LevelMuted
)

var levelNames = [...]string{"info", "warning", "success", "error", "muted"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "info"
	}
	return levelNames[l]
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, candidate := range levelNames {
		if candidate == name {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown report level %q", text)
}

// Entry is one displayable fact.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Level Level  `json:"level"`
}

func NewEntry(label, value string, level Level) Entry {
	return Entry{Label: label, Value: value, Level: level}
}

func Info(label, value string) Entry { return NewEntry(label, value, LevelInfo) }

func Warning(label, value string) Entry { return NewEntry(label, value, LevelWarning) }

func Muted(label, value string) Entry { return NewEntry(label, value, LevelMuted) }

// Notice is a caveat attached to a whole section.
type Notice struct {
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// Section groups the fields read from one metadata source.
type Section struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
	Notice  *Notice `json:"notice,omitempty"`
}

func NewSection(title string) *Section {
	return &Section{Title: title, Entries: []Entry{}}
}

func (s *Section) Add(label, value string, level Level) {
	s.Entries = append(s.Entries, NewEntry(label, value, level))
}

// SetNotice replaces the section notice. A notice already at Error level is
// kept since it explains why the section is incomplete.
func (s *Section) SetNotice(message string, level Level) {
	if s.Notice != nil && s.Notice.Level == LevelError && level != LevelError {
		return
	}
	s.Notice = &Notice{Message: message, Level: level}
}

// Report is the full result for one file. Callers own it once returned.
type Report struct {
	System   []Entry   `json:"system"`
	Internal []Section `json:"internal"`
	Risks    []Entry   `json:"risks"`
	Errors   []string  `json:"errors"`
}

func New() *Report {
	return &Report{
		System:   []Entry{},
		Internal: []Section{},
		Risks:    []Entry{},
		Errors:   []string{},
	}
}

// SystemValue returns the value of the first system entry with the given
// label, matched case-insensitively.
func (r *Report) SystemValue(label string) (string, bool) {
	for _, entry := range r.System {
		if strings.EqualFold(entry.Label, label) {
			return entry.Value, true
		}
	}
	return "", false
}

// Section returns the internal section with the given title.
func (r *Report) Section(title string) (*Section, bool) {
	for i := range r.Internal {
		if r.Internal[i].Title == title {
			return &r.Internal[i], true
		}
	}
	return nil, false
}

// Lookup returns the first entry labelled label inside the titled section.
func (s *Section) Lookup(label string) (Entry, bool) {
	for _, entry := range s.Entries {
		if entry.Label == label {
			return entry, true
		}
	}
	return Entry{}, false
}
