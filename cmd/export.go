package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filelens/internal/export"
)

var (
	exportFormat string
	exportOutput string
	exportHash   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write a file's metadata report as JSON, TXT, XLSX or PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		includeHash := cfg.Analysis.IncludeHash
		if cmd.Flags().Changed("hash") {
			includeHash = exportHash
		}

		rep, err := svc.AnalyzeFile(args[0], includeHash)
		if err != nil {
			return err
		}
		path, ok, err := svc.ExportReport(rep, f, "", func(suggested string) (string, bool) {
			if exportOutput != "" {
				return exportOutput, true
			}
			return suggested, true
		})
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(os.Stdout, "Report written to %s\n", path)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json, txt, xlsx or pdf")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "destination file (default: <name>-metadata.<ext>)")
	exportCmd.Flags().BoolVar(&exportHash, "hash", true, "include MD5 and SHA-256 (overrides analysis.include_hash)")

	rootCmd.AddCommand(exportCmd)
}
