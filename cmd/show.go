package cmd

import (
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	showLimit  int
	showFormat string
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the rows of a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		if showLimit > 0 && ds.Len() > showLimit {
			n := 0
			ds = ds.Where(func(*dataset.Row) bool {
				n++
				return n <= showLimit
			})
		}
		format, err := outputFormat(cmd, showFormat, "")
		if err != nil {
			return err
		}
		return emitDataset(cmd, ds, "", format)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 20, "maximum rows to print (0 = all)")
	showCmd.Flags().StringVar(&showFormat, "format", "table", "output format: table|csv|tsv|json|yaml|md")
}
