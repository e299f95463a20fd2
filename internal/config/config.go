package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Workers bounds ingestion and scan parallelism; 0 means GOMAXPROCS.
	Workers          int     `mapstructure:"workers" yaml:"workers"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`
	EmptyAsMissing   bool    `mapstructure:"empty_as_missing" yaml:"empty_as_missing"`
	// CSVDelimiter overrides the delimiter chosen from the file extension.
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	ExportFormat string `mapstructure:"export_format" yaml:"export_format"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	SeqURL    string `mapstructure:"seq_url" yaml:"seq_url"`

	// External renderer invoked by `tabula plot`.
	PlotCommand string `mapstructure:"plot_command" yaml:"plot_command"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"workers",
	"outlier_threshold",
	"empty_as_missing",
	"csv_delimiter",
	"export_format",
	"log_level",
	"log_format",
	"seq_url",
	"plot_command",
}

// ExportFormats lists the formats understood by `export_format`.
var ExportFormats = []string{"csv", "tsv", "json", "yaml", "md"}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tabula"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tabula/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TABULA")
	v.AutomaticEnv()

	v.SetDefault("workers", 0)
	v.SetDefault("outlier_threshold", 3.0)
	v.SetDefault("empty_as_missing", true)
	v.SetDefault("csv_delimiter", "")
	v.SetDefault("export_format", "csv")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("seq_url", "")
	v.SetDefault("plot_command", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.OutlierThreshold <= 0 {
		c.OutlierThreshold = 3.0
	}
	return &c, nil
}

// Set validates val and stores it under key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for workers: %v", val)
		}
		c.Workers = i
	case "outlier_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for outlier_threshold: %v", val)
		}
		c.OutlierThreshold = f
	case "empty_as_missing":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for empty_as_missing: %w", err)
		}
		c.EmptyAsMissing = b
	case "csv_delimiter":
		if val == `\t` || val == "tab" {
			val = "\t"
		}
		if len([]rune(val)) > 1 {
			return fmt.Errorf("csv_delimiter must be a single character: %q", val)
		}
		c.CSVDelimiter = val
	case "export_format":
		f := strings.ToLower(val)
		if !contains(ExportFormats, f) {
			return fmt.Errorf("invalid export_format: %s (use %s)", val, strings.Join(ExportFormats, ", "))
		}
		c.ExportFormat = f
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "seq_url":
		c.SeqURL = val
	case "plot_command":
		c.PlotCommand = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders the value stored under key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "outlier_threshold":
		return strconv.FormatFloat(c.OutlierThreshold, 'g', -1, 64), nil
	case "empty_as_missing":
		return strconv.FormatBool(c.EmptyAsMissing), nil
	case "csv_delimiter":
		return c.CSVDelimiter, nil
	case "export_format":
		return c.ExportFormat, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "seq_url":
		return c.SeqURL, nil
	case "plot_command":
		return c.PlotCommand, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
