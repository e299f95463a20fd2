package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tabula-cli/internal/filter"
	"github.com/spf13/cobra"
)

var (
	fltWhere  []string
	fltOutput string
	fltFormat string
)

var filterCmd = &cobra.Command{
	Use:   "filter <file> --where '<column> <op> <value>'...",
	Short: "Keep rows matching every --where condition",
	Long: `Keep rows matching every --where condition. Operators: = != < > <= >= in
(=< and => are accepted too). Numeric columns compare numerically; text columns
compare by equality, by length for < > <= >=, and by substring for in.

  tabula filter people.csv --where 'Age >= 30' --where 'Country != USA'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(fltWhere) == 0 {
			return fmt.Errorf("at least one --where condition is required")
		}
		conds := make([]filter.Condition, 0, len(fltWhere))
		for _, w := range fltWhere {
			c, err := filter.Parse(w)
			if err != nil {
				return err
			}
			conds = append(conds, c)
		}
		format, err := outputFormat(cmd, fltFormat, fltOutput)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		before := ds.Len()
		if _, err := filter.ApplyAll(ds, logger, conds...); err != nil {
			return err
		}
		logger.Info("filtered", "path", args[0], "kept", ds.Len(), "removed", before-ds.Len())
		return emitDataset(cmd, ds, fltOutput, format)
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringArrayVarP(&fltWhere, "where", "w", nil, "condition '<column> <op> <value>' (repeatable)")
	filterCmd.Flags().StringVarP(&fltOutput, "output", "o", "", "write matching rows to this file instead of stdout")
	filterCmd.Flags().StringVar(&fltFormat, "format", "", "output format: table|csv|tsv|json|yaml|md")
}
