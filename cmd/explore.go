package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/analysis"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	exOutputPath string
	exColumn     string
	exSampleRows int
	exTopValues  int
	exNoCorr     bool
	exOutlierThr float64
	exQuiet      bool
)

var exploreCmd = &cobra.Command{
	Use:   "explore <files...>",
	Short: "Summarize one or more datasets (schema, statistics, correlations, sample rows)",
	Long: `Summarize datasets as Markdown. Globs are expanded. With --column, print the
value counts of that column instead of the overview.

With several inputs and --output, the output is treated as a directory and one
<name>.summary.md is written per input.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt := analysisOptions()
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = exSampleRows
		}
		if exTopValues > 0 {
			opt.TopValues = exTopValues
		}
		opt.Correlations = !exNoCorr
		if exOutlierThr > 0 {
			opt.OutlierThreshold = exOutlierThr
		}

		out := cmd.OutOrStdout()
		multi := len(files) > 1
		for i, path := range files {
			if multi && !exQuiet && exOutputPath != "" {
				printf(out, "[%d/%d] Processing %s...\n", i+1, len(files), filepath.Base(path))
			}
			ds, err := loadDataset(cmd, path)
			if err != nil {
				return err
			}
			eng := analysis.New(ds, opt)

			var md string
			if exColumn != "" {
				md, err = valueCountsMarkdown(eng, exColumn)
			} else {
				var rep *analysis.Report
				rep, err = eng.Describe(filepath.Base(path))
				if err == nil {
					md = rep.Markdown()
				}
			}
			if err != nil {
				return err
			}

			if exOutputPath == "" {
				printf(out, "%s\n", md)
				continue
			}
			target := exOutputPath
			if multi {
				target = summaryPath(exOutputPath, path, flagSheetName)
			}
			if err := utils.SafeWriteFile(target, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !exQuiet {
				printf(out, "✓ Wrote summary to %s\n", target)
			}
		}
		return nil
	},
}

func valueCountsMarkdown(eng *analysis.Engine, column string) (string, error) {
	counts, err := eng.ValueCounts(column)
	if err != nil {
		return "", err
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[VALUE COUNTS] %s\n", column))
	b.WriteString(fmt.Sprintf("Present: %d of %d rows, %d distinct\n", total, eng.Dataset().Len(), len(counts)))
	for _, c := range counts {
		b.WriteString(fmt.Sprintf("- %s: %d\n", c.Value, c.Count))
	}
	return b.String(), nil
}

// summaryPath picks <dir>/<name>[__sheet-x].summary.md, adding a __N suffix
// instead of overwriting an existing file.
func summaryPath(dir, input, sheet string) string {
	base := filepath.Base(input)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		s := strings.ToLower(strings.TrimSpace(sheet))
		var b strings.Builder
		for _, r := range s {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			} else if r == ' ' || r == '-' || r == '_' {
				b.WriteRune('-')
			}
		}
		ss := strings.Trim(b.String(), "-")
		if ss == "" {
			ss = "sheet"
		}
		safe += "__sheet-" + ss
	}
	outFile := filepath.Join(dir, safe+".summary.md")
	if _, err := os.Stat(outFile); err != nil {
		return outFile
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", safe, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringVarP(&exOutputPath, "output", "o", "", "write the summary here (a directory when several inputs are given)")
	exploreCmd.Flags().StringVarP(&exColumn, "column", "c", "", "print value counts for this column instead of the overview")
	exploreCmd.Flags().IntVar(&exSampleRows, "sample-rows", 5, "number of sample rows to include")
	exploreCmd.Flags().IntVar(&exTopValues, "top", 8, "categorical values listed per column")
	exploreCmd.Flags().BoolVar(&exNoCorr, "no-correlations", false, "skip the Pearson correlation matrix")
	exploreCmd.Flags().Float64Var(&exOutlierThr, "outlier-threshold", 0, "|z| threshold for outliers (default from config)")
	exploreCmd.Flags().BoolVar(&exQuiet, "quiet", false, "suppress progress and non-essential output")
}
