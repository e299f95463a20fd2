package cmd

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/analysis"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	stColumn    string
	stCalcs     []string
	stWith      string
	stThreshold float64
	stJSON      bool
)

var numericCalcs = []string{"count", "sum", "min", "max", "mean", "median", "std"}

type statResult struct {
	Calc  string `json:"calc"`
	Value any    `json:"value"`
	Error string `json:"error,omitempty"`
}

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Compute statistics over one column",
	Long: `Compute statistics over one column. Available calculations:
  count, sum, min, max, mean, median, std   numeric columns
  mode, entropy                             any column
  outliers                                  numeric, |z| above --threshold
  correlation, regression                   numeric, paired with --with

Without --calc, numeric columns get count,sum,min,max,mean,median,std and
categorical columns get mode,entropy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(stColumn) == "" {
			return fmt.Errorf("--column is required")
		}
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		kind, err := ds.ColumnKind(stColumn)
		if err != nil {
			return err
		}
		calcs := splitList(stCalcs)
		if len(calcs) == 0 {
			calcs = numericCalcs
			if kind == dataset.KindCategorical {
				calcs = []string{"mode", "entropy"}
			}
		}
		threshold := stThreshold
		if threshold <= 0 && cfg != nil {
			threshold = cfg.OutlierThreshold
		}

		eng := analysis.New(ds, analysisOptions())
		results := make([]statResult, 0, len(calcs))
		failed := 0
		for _, c := range calcs {
			v, err := runCalc(eng, strings.ToLower(c), stColumn, stWith, threshold)
			r := statResult{Calc: c, Value: v}
			if err != nil {
				r.Value, r.Error = nil, err.Error()
				failed++
			}
			results = append(results, r)
		}

		out := cmd.OutOrStdout()
		if stJSON {
			b, err := utils.PrettyJSON(results)
			if err != nil {
				return err
			}
			printf(out, "%s\n", b)
		} else {
			printf(out, "%s (%s, %d rows)\n", stColumn, kind, ds.Len())
			for _, r := range results {
				if r.Error != "" {
					printf(out, "  %s: error: %s\n", r.Calc, r.Error)
					continue
				}
				printf(out, "  %s: %s\n", r.Calc, formatStat(r.Value))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d calculations failed", failed, len(results))
		}
		return nil
	},
}

// runCalc evaluates one named calculation. NaN results come back as nil so
// they encode as JSON null.
func runCalc(eng *analysis.Engine, calc, column, with string, threshold float64) (any, error) {
	num := func(f float64, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) {
			return nil, nil
		}
		return f, nil
	}
	needWith := func() error {
		if strings.TrimSpace(with) == "" {
			return fmt.Errorf("%s needs --with", calc)
		}
		return nil
	}
	switch calc {
	case "count":
		return eng.Count(column)
	case "sum":
		return num(eng.Sum(column))
	case "min":
		return num(eng.Min(column))
	case "max":
		return num(eng.Max(column))
	case "mean", "avg":
		return num(eng.Mean(column))
	case "median":
		return num(eng.Median(column))
	case "std", "stddev":
		return num(eng.StdDev(column))
	case "mode":
		return eng.Mode(column)
	case "entropy":
		return num(eng.Entropy(column))
	case "outliers":
		o, err := eng.Outliers(column, threshold)
		if err != nil {
			return nil, err
		}
		if o == nil {
			o = []analysis.Outlier{}
		}
		return o, nil
	case "correlation", "corr":
		if err := needWith(); err != nil {
			return nil, err
		}
		return num(eng.Correlation(column, with))
	case "regression", "regress":
		if err := needWith(); err != nil {
			return nil, err
		}
		// column is the independent variable
		return eng.Regress(column, with)
	}
	return nil, fmt.Errorf("unknown calculation %q", calc)
}

func formatStat(v any) string {
	switch x := v.(type) {
	case nil:
		return "n/a"
	case float64:
		return dataset.FormatNumber(x)
	case []analysis.Outlier:
		if len(x) == 0 {
			return "none"
		}
		parts := make([]string, len(x))
		for i, o := range x {
			parts[i] = fmt.Sprintf("row %d = %s (z=%.2f)", o.RowID, dataset.FormatNumber(o.Value), o.Z)
		}
		return fmt.Sprintf("%d: %s", len(x), strings.Join(parts, "; "))
	case analysis.Regression:
		return fmt.Sprintf("slope=%s intercept=%s r2=%.4f n=%d",
			dataset.FormatNumber(x.Slope), dataset.FormatNumber(x.Intercept), x.R2, x.N)
	}
	return fmt.Sprint(v)
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&stColumn, "column", "c", "", "column to analyze (required)")
	statsCmd.Flags().StringSliceVar(&stCalcs, "calc", nil, "calculations to run (comma-separated)")
	statsCmd.Flags().StringVar(&stWith, "with", "", "second column for correlation and regression (dependent variable)")
	statsCmd.Flags().Float64Var(&stThreshold, "threshold", 0, "|z| threshold for outliers (default from config)")
	statsCmd.Flags().BoolVar(&stJSON, "json", false, "print results as JSON")
}
