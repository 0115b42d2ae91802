package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"filelens/internal/report"
)

var (
	reportTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	reportSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccentAlt)
	reportLabelStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	reportNoticeStyle  = lipgloss.NewStyle().Italic(true).Foreground(ColorDim)
	reportBulletStyle  = lipgloss.NewStyle().Foreground(ColorDim)
)

// RenderReport formats a report for the terminal. Risky entries stand out
// through their level colour.
func RenderReport(title string, rep *report.Report) string {
	var sb strings.Builder
	sb.WriteString(reportTitleStyle.Render(title) + "\n")

	writeBlock(&sb, "System", rep.System, nil)
	for i := range rep.Internal {
		section := &rep.Internal[i]
		writeBlock(&sb, section.Title, section.Entries, section.Notice)
	}
	if len(rep.Risks) > 0 {
		writeBlock(&sb, "Risks", rep.Risks, nil)
	} else {
		sb.WriteString(reportSectionStyle.Render("Risks") + "\n")
		sb.WriteString("  " + lipgloss.NewStyle().Foreground(ColorSuccess).Render("No sensitive metadata found") + "\n")
	}
	if len(rep.Errors) > 0 {
		sb.WriteString(reportSectionStyle.Render("Errors") + "\n")
		errStyle := lipgloss.NewStyle().Foreground(ColorError)
		for _, msg := range rep.Errors {
			fmt.Fprintf(&sb, "  %s %s\n", reportBulletStyle.Render("-"), errStyle.Render(msg))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeBlock(sb *strings.Builder, title string, entries []report.Entry, notice *report.Notice) {
	sb.WriteString(reportSectionStyle.Render(title) + "\n")

	width := 0
	for _, entry := range entries {
		if len(entry.Label) > width {
			width = len(entry.Label)
		}
	}
	for _, entry := range entries {
		value := lipgloss.NewStyle().Foreground(LevelColor(entry.Level)).Render(entry.Value)
		fmt.Fprintf(sb, "  %s %s\n", reportLabelStyle.Render(padRight(entry.Label, width)), value)
	}
	if notice != nil {
		style := reportNoticeStyle.Foreground(LevelColor(notice.Level))
		fmt.Fprintf(sb, "  %s\n", style.Render(notice.Message))
	} else if len(entries) == 0 {
		fmt.Fprintf(sb, "  %s\n", reportNoticeStyle.Render("(no data)"))
	}
}
