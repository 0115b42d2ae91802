package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filelens/internal/cleanup"
	"filelens/internal/report"
)

func TestModelTracksBatch(t *testing.T) {
	events := make(chan cleanup.Progress, 8)
	events <- cleanup.Started{Total: 2}
	events <- cleanup.Processing{Index: 1, Total: 2, Path: "/tmp/a.jpg"}
	events <- cleanup.Success{Path: "/tmp/a.jpg", Removed: 3, BytesSaved: 120}
	events <- cleanup.Processing{Index: 2, Total: 2, Path: "/tmp/b.pdf"}
	events <- cleanup.Failure{Path: "/tmp/b.pdf", Error: "b.pdf: format not supported for remove metadata"}
	events <- cleanup.Finished{Successes: 1, Failures: 1}
	close(events)

	var model tea.Model = NewModel(events)
	cmd := model.Init()
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(doneMsg); ok {
			break
		}
		model, cmd = model.Update(msg)
	}

	m := model.(Model)
	assert.Equal(t, 2, m.total)
	assert.Equal(t, 2, m.processed)
	assert.Equal(t, 1, m.successes)
	assert.Equal(t, 3, m.removed)
	assert.Equal(t, int64(120), m.bytesSaved)
	require.Len(t, m.Failures(), 1)
	assert.Equal(t, "/tmp/b.pdf", m.Failures()[0].Path)

	view := m.View()
	assert.Contains(t, view, "Files: 2/2")
	assert.Contains(t, view, "failures:1")
	assert.Contains(t, view, "Current: done")

	next, quit := m.Update(doneMsg{})
	assert.Empty(t, next.View())
	require.NotNil(t, quit)
}

func TestRenderBarClamps(t *testing.T) {
	assert.Equal(t, "[     ]", renderBar(5, 0))
	assert.Equal(t, "[=====]", renderBar(5, 2))
	assert.Equal(t, "[==   ]", renderBar(5, 0.4))
}

func TestRenderReport(t *testing.T) {
	rep := report.New()
	rep.System = append(rep.System, report.Info("Name", "photo.jpg"))
	section := report.NewSection("EXIF")
	section.SetNotice("No EXIF metadata found", report.LevelMuted)
	rep.Internal = append(rep.Internal, *section)

	out := RenderReport("photo.jpg", rep)
	assert.Contains(t, out, "System")
	assert.Contains(t, out, "photo.jpg")
	assert.Contains(t, out, "No EXIF metadata found")
	assert.Contains(t, out, "No sensitive metadata found")

	rep.Risks = append(rep.Risks, report.Warning("GPS location", "GPS Position: 1, 2 (EXIF)"))
	rep.Errors = append(rep.Errors, "EXIF: truncated")
	out = RenderReport("photo.jpg", rep)
	assert.Contains(t, out, "GPS location")
	assert.Contains(t, out, "EXIF: truncated")
}

func TestDirectoryRows(t *testing.T) {
	rows := DirectoryRows(&report.DirectorySummary{
		TotalFiles:      3,
		ImagesCount:     2,
		ExtensionCounts: []report.ExtensionCount{{Extension: "jpg", Count: 2}, {Extension: "txt", Count: 1}},
	})
	require.Len(t, rows, 5)
	assert.Equal(t, SummaryRow{Label: ".jpg", Value: "2"}, rows[3])

	table := RenderSummary(rows)
	assert.Contains(t, table, "Total files")
	assert.Contains(t, table, ".txt")
}
