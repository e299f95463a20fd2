package cmd

import (
	"github.com/spf13/cobra"
)

var (
	apOutput string
	apFormat string
)

var appendCmd = &cobra.Command{
	Use:   "append <file> <other>",
	Short: "Append rows of <other> to <file>, keeping only <file>'s columns",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd, apFormat, apOutput)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		other, err := loadDataset(cmd, args[1])
		if err != nil {
			return err
		}
		n := ds.AppendDataset(other)
		if skipped := other.Len() - n; skipped > 0 {
			logger.Warn("rows without shared columns skipped", "source", args[1], "skipped", skipped)
		}
		printf(cmd.ErrOrStderr(), "✓ Appended %d rows\n", n)
		return emitDataset(cmd, ds, apOutput, format)
	},
}

func init() {
	rootCmd.AddCommand(appendCmd)
	appendCmd.Flags().StringVarP(&apOutput, "output", "o", "", "write the combined dataset to this file instead of stdout")
	appendCmd.Flags().StringVar(&apFormat, "format", "", "output format: table|csv|tsv|json|yaml|md")
}
