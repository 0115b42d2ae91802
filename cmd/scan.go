package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"filelens/internal/report"
	"filelens/internal/tui"
)

var (
	scanHash      bool
	scanRecursive bool
	scanJSON      bool
)

// scanResult is one element of the --json output.
type scanResult struct {
	Path    string                   `json:"path"`
	Report  *report.Report           `json:"report,omitempty"`
	Summary *report.DirectorySummary `json:"summary,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Report file metadata and privacy risks without modifying anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		includeHash := cfg.Analysis.IncludeHash
		if cmd.Flags().Changed("hash") {
			includeHash = scanHash
		}

		var results []scanResult
		var files []string
		failed := 0
		for _, path := range args {
			res := scanResult{Path: path}
			info, statErr := os.Stat(path)
			if statErr == nil && info.IsDir() {
				res.Summary, err = svc.AnalyzeDirectory(path, scanRecursive)
			} else {
				res.Report, err = svc.AnalyzeFile(path, includeHash)
				files = append(files, path)
			}
			if err != nil {
				res.Error = err.Error()
				failed++
			}
			results = append(results, res)
		}

		if scanJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return err
			}
		} else {
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(os.Stdout)
				}
				switch {
				case res.Error != "":
					fmt.Fprintf(os.Stdout, "%s\n  %s\n", scanFileStyle.Render(res.Path), scanErrorStyle.Render(res.Error))
				case res.Summary != nil:
					fmt.Fprintf(os.Stdout, "%s\n", scanFileStyle.Render(res.Path))
					fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.DirectoryRows(res.Summary)))
				default:
					fmt.Fprintln(os.Stdout, tui.RenderReport(res.Path, res.Report))
				}
			}
			if len(files) > 1 {
				fmt.Fprintln(os.Stdout)
				fmt.Fprintln(os.Stdout, scanFileStyle.Render("Scanned files"))
				fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.DirectoryRows(svc.AnalyzeFiles(files))))
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d paths could not be analyzed", failed, len(args))
		}
		return nil
	},
}

var (
	scanFileStyle  = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanErrorStyle = lipgloss.NewStyle().Foreground(tui.ColorError)
)

func init() {
	scanCmd.Flags().BoolVar(&scanHash, "hash", true, "compute MD5 and SHA-256 (overrides analysis.include_hash)")
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", false, "descend into sub-directories of directory arguments")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the results as JSON")

	rootCmd.AddCommand(scanCmd)
}
