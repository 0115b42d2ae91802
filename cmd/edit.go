package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filelens/internal/metaerr"
	"filelens/internal/processor"
)

var editCmd = &cobra.Command{
	Use:   "edit <file> <field> <value>",
	Short: "Set the author, title, subject or company of an Office document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := processor.ParseOfficeField(args[1])
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}

		if err := svc.EditOfficeMetadata(args[0], field, args[2]); err != nil {
			logger.Error("edit failed", "path", args[0], "field", field.String(), "error", err)
			return errors.New(metaerr.Summary(err))
		}
		fmt.Fprintf(os.Stdout, "Updated %s of %s\n", field, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
