package export

import (
	"strings"

	"filelens/internal/report"
)

const (
	titleSystem = "System"
	titleRisks  = "Risks"
	titleErrors = "Errors"
	noData      = "(no data)"
)

// block is one titled group of a report as every exporter lays it out:
// system entries, each internal section, then risks and errors when present.
type block struct {
	title   string
	entries []report.Entry
	notice  string
}

func blocks(rep *report.Report) []block {
	out := []block{{title: titleSystem, entries: rep.System}}
	for _, section := range rep.Internal {
		b := block{title: section.Title, entries: section.Entries}
		if section.Notice != nil {
			b.notice = section.Notice.Message
		}
		out = append(out, b)
	}
	if len(rep.Risks) > 0 {
		out = append(out, block{title: titleRisks, entries: rep.Risks})
	}
	if len(rep.Errors) > 0 {
		errs := make([]report.Entry, 0, len(rep.Errors))
		for _, msg := range rep.Errors {
			errs = append(errs, report.NewEntry("Error", msg, report.LevelError))
		}
		out = append(out, block{title: titleErrors, entries: errs})
	}
	return out
}

// row is one line of the tabular exports.
type row struct {
	section string
	label   string
	value   string
	level   string
}

func rows(rep *report.Report) []row {
	var out []row
	for _, b := range blocks(rep) {
		if len(b.entries) == 0 {
			out = append(out, row{b.title, noData, "-", levelLabel(report.LevelInfo)})
		}
		for _, entry := range b.entries {
			out = append(out, row{b.title, entry.Label, entry.Value, levelLabel(entry.Level)})
		}
		if b.notice != "" {
			out = append(out, row{b.title, "Note", b.notice, levelLabel(report.LevelInfo)})
		}
	}
	return out
}

func levelLabel(l report.Level) string {
	name := l.String()
	return strings.ToUpper(name[:1]) + name[1:]
}
