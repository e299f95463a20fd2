package cmd

import (
	"github.com/KaramelBytes/tabula-cli/internal/export"
	"github.com/spf13/cobra"
)

var (
	expOutput string
	expFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Convert a dataset to csv, tsv, json, yaml or markdown",
	Long: `Convert a dataset. The format comes from --format, else the extension of
--output, else export_format from config. Missing values are omitted from json
and yaml records and become empty cells elsewhere. SQLite stores numbers by
value, so "007" is written as 7 and "1e3" as 1000; integers keep full 64-bit
precision.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := exportFormat(cmd)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		return emitDataset(cmd, ds, expOutput, format)
	},
}

// exportFormat differs from outputFormat in that stdout gets the configured
// format rather than a table.
func exportFormat(cmd *cobra.Command) (export.Format, error) {
	if expOutput != "" || cmd.Flags().Changed("format") {
		return outputFormat(cmd, expFormat, expOutput)
	}
	return configuredFormat()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "destination file (stdout if empty)")
	exportCmd.Flags().StringVarP(&expFormat, "format", "f", "", "csv|tsv|json|yaml|md|table")
}
