package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"filelens/internal/cleanup"
	"filelens/internal/service"
	"filelens/internal/tui"
)

var cleanRecursive bool

var cleanCmd = &cobra.Command{
	Use:   "clean [flags] <path>...",
	Short: "Strip metadata in place from a directory or a list of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(cmd)
		if err != nil {
			return err
		}

		events := make(chan cleanup.Progress, 64)
		svc, err := service.New(cfg, service.EmitterFunc(func(_ string, ev cleanup.Progress) {
			events <- ev
		}), logger)
		if err != nil {
			return err
		}

		var job *service.Cleanup
		if info, statErr := os.Stat(args[0]); len(args) == 1 && statErr == nil && info.IsDir() {
			job, err = svc.StartCleanup(args[0], cleanRecursive, filter)
		} else {
			job, err = svc.StartCleanupFiles(args, filter)
		}
		if err != nil {
			return err
		}

		program := tea.NewProgram(tui.NewModel(events))
		uiDone := make(chan tea.Model, 1)
		go func() {
			final, err := program.Run()
			if err != nil {
				logger.Warn("progress display unavailable", "error", err)
			}
			for range events {
			}
			uiDone <- final
		}()

		finished := job.Wait()
		close(events)
		final := <-uiDone

		var removed int
		var saved int64
		var failures []cleanup.Failure
		if m, ok := final.(tui.Model); ok {
			failures = m.Failures()
			removed, saved = m.Totals()
		}

		rows := []tui.SummaryRow{
			{Label: "Files processed", Value: fmt.Sprintf("%d", finished.Successes+finished.Failures)},
			{Label: "Cleaned", Value: fmt.Sprintf("%d", finished.Successes)},
			{Label: "Failed", Value: fmt.Sprintf("%d", finished.Failures)},
			{Label: "Metadata blocks removed", Value: fmt.Sprintf("%d", removed)},
			{Label: "Space saved", Value: units.BytesSize(float64(saved))},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
		for _, failure := range failures {
			fmt.Fprintf(os.Stdout, "%s %s\n", cleanFailStyle.Render("failed:"), failure.Error)
		}

		if finished.Failures > 0 {
			return fmt.Errorf("%d of %d files could not be cleaned", finished.Failures, job.Total)
		}
		return nil
	},
}

var cleanFailStyle = lipgloss.NewStyle().Foreground(tui.ColorError)

func init() {
	cleanCmd.Flags().BoolVarP(&cleanRecursive, "recursive", "r", false, "descend into sub-directories")
	cleanCmd.Flags().String("filter", "all", "file family: all, images or office")

	rootCmd.AddCommand(cleanCmd)
}
