package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clDropMissing bool
	clDedup       bool
	clNormalize   []string
	clSort        string
	clOutput      string
	clFormat      string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Drop incomplete or duplicate rows, normalize and sort columns",
	Long: `Apply cleaning steps in this order: --drop-missing, --dedup, --normalize, --sort.
Normalization rescales a numeric column to [0, 1]. Sorting is stable; numeric
columns sort by value, others lexicographically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalize := splitList(clNormalize)
		if !clDropMissing && !clDedup && len(normalize) == 0 && clSort == "" {
			return fmt.Errorf("nothing to do: pass --drop-missing, --dedup, --normalize or --sort")
		}
		format, err := outputFormat(cmd, clFormat, clOutput)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		// Status lines go to stderr so stdout stays a clean export.
		status := cmd.ErrOrStderr()
		if clDropMissing {
			n := ds.RemoveRowsWithMissingValues()
			printf(status, "• Removed %d rows with missing values\n", n)
		}
		if clDedup {
			n := ds.RemoveDuplicates()
			printf(status, "• Removed %d duplicate rows\n", n)
		}
		for _, c := range normalize {
			if err := ds.NormalizeColumn(c); err != nil {
				return err
			}
			printf(status, "• Normalized %s\n", c)
		}
		if clSort != "" {
			if err := ds.SortByColumn(clSort); err != nil {
				return err
			}
			printf(status, "• Sorted by %s\n", clSort)
		}
		return emitDataset(cmd, ds, clOutput, format)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&clDropMissing, "drop-missing", false, "remove rows missing any column")
	cleanCmd.Flags().BoolVar(&clDedup, "dedup", false, "remove duplicate rows (first occurrence wins)")
	cleanCmd.Flags().StringSliceVar(&clNormalize, "normalize", nil, "numeric columns to min-max normalize")
	cleanCmd.Flags().StringVar(&clSort, "sort", "", "column to sort by")
	cleanCmd.Flags().StringVarP(&clOutput, "output", "o", "", "write the cleaned dataset to this file instead of stdout")
	cleanCmd.Flags().StringVar(&clFormat, "format", "", "output format: table|csv|tsv|json|yaml|md")
}
