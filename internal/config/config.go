// Package config holds the run configuration, layered by viper from defaults,
// an optional config file, BCCOUNT_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Altius/bccount/internal/library"
	"github.com/Altius/bccount/internal/metrics"
	"github.com/Altius/bccount/internal/normalize"
	"github.com/Altius/bccount/internal/scan"
)

// ErrConfiguration marks failures detected before any read is scanned.
var ErrConfiguration = errors.New("configuration error")

// Config describes one counting run.
type Config struct {
	ReadDir      string `mapstructure:"read_dir"`      // directory searched for read files
	Library      string `mapstructure:"library"`       // barcode table, .csv or .xlsx
	Sheet        string `mapstructure:"sheet"`         // sheet name for .xlsx libraries
	OutputDir    string `mapstructure:"output_dir"`    // created if missing
	Probe        string `mapstructure:"probe"`         // probe-binding motif
	Threads      int    `mapstructure:"threads"`       // files scanned at once
	SplitUnknown bool   `mapstructure:"split_unknown"` // separate unknown barcodes in the error log

	Normalize Normalize `mapstructure:"normalize"`
	Metrics   Metrics   `mapstructure:"metrics"`
}

type Normalize struct {
	Command []string `mapstructure:"command"`
	Skip    bool     `mapstructure:"skip"`
}

type Metrics struct {
	Delimiter string `mapstructure:"delimiter"`
	Token     int    `mapstructure:"token"`
}

// Rule returns the column label rule.
func (m Metrics) Rule() metrics.LabelRule {
	return metrics.LabelRule{Delimiter: m.Delimiter, Token: m.Token}
}

// EnvPrefix prefixes environment overrides, e.g. BCCOUNT_READ_DIR or
// BCCOUNT_METRICS_TOKEN.
const EnvPrefix = "BCCOUNT"

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("read_dir", "")
	v.SetDefault("library", "barcodes.csv")
	v.SetDefault("sheet", library.DefaultSheet)
	v.SetDefault("output_dir", "")
	v.SetDefault("probe", scan.DefaultProbe)
	v.SetDefault("threads", 1)
	v.SetDefault("split_unknown", false)
	v.SetDefault("normalize.command", normalize.DefaultCommand)
	v.SetDefault("normalize.skip", false)
	v.SetDefault("metrics.delimiter", metrics.DefaultRule.Delimiter)
	v.SetDefault("metrics.token", metrics.DefaultRule.Token)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML, JSON or TOML config file into v.
func ReadFile(v *viper.Viper, filename string) error {
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrConfiguration, filename, err)
	}
	return nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return c, nil
}

// Validate checks the settings needed before scanning starts. Metrics and
// normalisation settings are checked only when those stages will run.
func (c *Config) Validate() error {
	var problems []string
	if c.ReadDir == "" {
		problems = append(problems, "read directory is required")
	} else if info, err := os.Stat(c.ReadDir); err != nil || !info.IsDir() {
		problems = append(problems, fmt.Sprintf("read directory %s not found", c.ReadDir))
	}
	if c.Library == "" {
		problems = append(problems, "barcode library is required")
	} else if info, err := os.Stat(c.Library); err != nil || info.IsDir() {
		problems = append(problems, fmt.Sprintf("barcode library %s not found", c.Library))
	}
	if c.OutputDir == "" {
		problems = append(problems, "output directory is required")
	}
	if c.Threads < 1 {
		problems = append(problems, fmt.Sprintf("threads must be at least 1, got %d", c.Threads))
	}
	if !c.Normalize.Skip {
		if len(c.Normalize.Command) == 0 {
			problems = append(problems, "normalize.command is empty")
		}
		problems = append(problems, c.Metrics.problems()...)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// Validate checks the label rule alone.
func (m Metrics) Validate() error {
	if p := m.problems(); len(p) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(p, "; "))
	}
	return nil
}

func (m Metrics) problems() []string {
	var p []string
	if m.Delimiter == "" {
		p = append(p, "metrics.delimiter is empty")
	}
	if m.Token < 0 {
		p = append(p, fmt.Sprintf("metrics.token must not be negative, got %d", m.Token))
	}
	return p
}
