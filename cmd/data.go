package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/analysis"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/export"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/parser"
	"github.com/spf13/cobra"
)

// parseDelimiter maps a flag or config value to a CSV delimiter rune.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func parserOptions() (parser.Options, error) {
	d := flagDelimiter
	if d == "" && cfg != nil {
		d = cfg.CSVDelimiter
	}
	delim, err := parseDelimiter(d)
	if err != nil {
		return parser.Options{}, err
	}
	return parser.Options{Delimiter: delim, SheetName: flagSheetName, SheetIndex: flagSheetIndex, Table: flagTable}, nil
}

func ingestOptions() ingest.Options {
	opt := ingest.DefaultOptions()
	if cfg != nil {
		opt.Workers = cfg.Workers
		opt.EmptyAsMissing = cfg.EmptyAsMissing
	}
	opt.Logger = logger
	return opt
}

func analysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg != nil {
		opt.Workers = cfg.Workers
		if cfg.OutlierThreshold > 0 {
			opt.OutlierThreshold = cfg.OutlierThreshold
		}
	}
	opt.Logger = logger
	return opt
}

// loadDataset parses path and ingests it into a new dataset.
func loadDataset(cmd *cobra.Command, path string) (*dataset.Dataset, error) {
	popt, err := parserOptions()
	if err != nil {
		return nil, err
	}
	popt.Context = cmd.Context()
	in, err := parser.ParseFile(path, popt)
	if err != nil {
		return nil, err
	}
	ds, err := ingest.Import(cmd.Context(), in, ingestOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded", "path", path, "dataset", ds.ID().String(), "rows", ds.Len(), "columns", len(ds.Schema()))
	return ds, nil
}

// outputFormat resolves the export format from --format, the output
// extension, and finally config. Stdout defaults to a table.
func outputFormat(cmd *cobra.Command, flagValue, output string) (export.Format, error) {
	if cmd.Flags().Changed("format") {
		return export.ParseFormat(flagValue)
	}
	if output == "" {
		return export.Table, nil
	}
	def, err := configuredFormat()
	if err != nil {
		return "", err
	}
	return export.FormatFromPath(output, def), nil
}

// configuredFormat is export_format from config, csv when unset.
func configuredFormat() (export.Format, error) {
	if cfg == nil || cfg.ExportFormat == "" {
		return export.CSV, nil
	}
	return export.ParseFormat(cfg.ExportFormat)
}

// emitDataset writes ds to output, or to stdout when output is empty.
func emitDataset(cmd *cobra.Command, ds *dataset.Dataset, output string, format export.Format) error {
	out := cmd.OutOrStdout()
	if output == "" {
		return export.Write(out, ds, format)
	}
	if err := export.WriteFile(cmd.Context(), output, ds, format); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Debug("dataset written", "dataset", ds.ID().String(), "path", output, "format", string(format), "rows", ds.Len())
	fmt.Fprintf(out, "✓ Wrote %d rows to %s\n", ds.Len(), output)
	return nil
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	return files, nil
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func printf(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
