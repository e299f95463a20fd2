package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/tabula-cli/internal/config"
	"github.com/KaramelBytes/tabula-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile        string
	debug          bool
	flagWorkers    int
	flagLogLevel   string
	flagLogFormat  string
	flagDelimiter  string
	flagSheetName  string
	flagSheetIndex int
	flagTable      string

	// Loaded configuration
	cfg *cfgpkg.Global

	logger   *slog.Logger = logging.Discard()
	closeLog              = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "tabula",
	Short: "Tabula CLI: explore, clean and summarize tabular data",
	Long: `Tabula loads CSV, TSV, XLSX, JSON, YAML and SQLite files into an in-memory dataset,
computes statistics over its columns, filters and cleans rows, and exports the result.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.tabula/config.yaml)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")
	pf.IntVar(&flagWorkers, "workers", 0, "parallel workers for ingestion and scans (overrides config; 0 = GOMAXPROCS)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (default by extension)")
	pf.StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to read")
	pf.IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	pf.StringVar(&flagTable, "table", "", "SQLite: table to read (needed when the database has several)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{OutlierThreshold: 3.0, EmptyAsMissing: true, ExportFormat: "csv", LogLevel: "info", LogFormat: "text"}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("workers") && flagWorkers >= 0 {
		cfg.Workers = flagWorkers
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	setupLogger()
}

func setupLogger() {
	closeLog()
	l, closer, err := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		SeqURL: cfg.SeqURL,
		Output: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logging disabled: %v\n", err)
		logger, closeLog = logging.Discard(), func() {}
		return
	}
	logger, closeLog = l, closer
}
