package export

import (
	"fmt"
	"strings"

	"filelens/internal/report"
)

func renderText(rep *report.Report) string {
	var sb strings.Builder
	sb.WriteString("Metadata report\n")
	sb.WriteString("===============\n\n")

	for _, b := range blocks(rep) {
		sb.WriteString(b.title + "\n")
		sb.WriteString(strings.Repeat("-", len(b.title)) + "\n")
		if len(b.entries) == 0 {
			sb.WriteString(noData + "\n")
		}
		for _, entry := range b.entries {
			if b.title == titleErrors {
				fmt.Fprintf(&sb, "- %s\n", entry.Value)
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", entry.Label, entry.Value, entry.Level)
		}
		if b.notice != "" {
			fmt.Fprintf(&sb, "Note: %s\n", b.notice)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
