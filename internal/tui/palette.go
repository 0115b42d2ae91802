package tui

import (
	"github.com/charmbracelet/lipgloss"

	"filelens/internal/report"
)

var (
	ColorInk       = lipgloss.Color("#E5E9F0")
	ColorDim       = lipgloss.Color("#7A8291")
	ColorAccent    = lipgloss.Color("#88C0D0")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#EBCB8B")
	ColorError     = lipgloss.Color("#BF616A")
)

// LevelColor maps a report level to its display colour.
func LevelColor(level report.Level) lipgloss.Color {
	switch level {
	case report.LevelWarning:
		return ColorWarn
	case report.LevelSuccess:
		return ColorSuccess
	case report.LevelError:
		return ColorError
	case report.LevelMuted:
		return ColorDim
	default:
		return ColorInk
	}
}
