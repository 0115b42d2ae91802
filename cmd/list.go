package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listRecursive bool

var listCmd = &cobra.Command{
	Use:   "list <dir>",
	Short: "List the files a cleanup would rewrite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := parseFilter(cmd)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}

		paths, err := svc.ListCleanupFiles(args[0], listRecursive, filter)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(os.Stdout, path)
		}
		logger.Debug("listed cleanup candidates", "root", args[0], "filter", filter.String(), "count", len(paths))
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "descend into sub-directories")
	listCmd.Flags().String("filter", "all", "file family: all, images or office")

	rootCmd.AddCommand(listCmd)
}
