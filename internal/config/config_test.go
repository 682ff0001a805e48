package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Altius/bccount/internal/metrics"
	"github.com/Altius/bccount/internal/normalize"
	"github.com/Altius/bccount/internal/scan"
)

func TestDefaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, scan.DefaultProbe, c.Probe)
	assert.Equal(t, 1, c.Threads)
	assert.Equal(t, "Sheet1", c.Sheet)
	assert.Equal(t, normalize.DefaultCommand, c.Normalize.Command)
	assert.Equal(t, metrics.DefaultRule, c.Metrics.Rule())
	assert.False(t, c.SplitUnknown)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bccount.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
read_dir: /from/file
output_dir: /out/file
threads: 2
split_unknown: true
normalize:
  command: [Rscript, --vanilla, norm.R]
metrics:
  delimiter: "_"
  token: 1
`), 0o644))

	t.Setenv("BCCOUNT_THREADS", "6")
	t.Setenv("BCCOUNT_METRICS_TOKEN", "0")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("reads", "", "")
	require.NoError(t, fs.Parse([]string{"--reads", "/from/flag"}))

	v := New()
	require.NoError(t, v.BindPFlag("read_dir", fs.Lookup("reads")))
	require.NoError(t, ReadFile(v, file))

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", c.ReadDir)
	assert.Equal(t, "/out/file", c.OutputDir)
	assert.Equal(t, 6, c.Threads)
	assert.True(t, c.SplitUnknown)
	assert.Equal(t, []string{"Rscript", "--vanilla", "norm.R"}, c.Normalize.Command)
	assert.Equal(t, metrics.LabelRule{Delimiter: "_", Token: 0}, c.Metrics.Rule())
}

func TestReadFileMissing(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "barcodes.csv")
	require.NoError(t, os.WriteFile(lib, []byte("GGTTCCAA\n"), 0o644))

	valid := func() *Config {
		c, err := Load(New())
		require.NoError(t, err)
		c.ReadDir = dir
		c.Library = lib
		c.OutputDir = filepath.Join(dir, "out")
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no reads", func(c *Config) { c.ReadDir = "" }},
		{"missing reads", func(c *Config) { c.ReadDir = filepath.Join(dir, "nope") }},
		{"reads is file", func(c *Config) { c.ReadDir = lib }},
		{"missing library", func(c *Config) { c.Library = filepath.Join(dir, "nope.csv") }},
		{"no output", func(c *Config) { c.OutputDir = "" }},
		{"threads", func(c *Config) { c.Threads = 0 }},
		{"no normaliser", func(c *Config) { c.Normalize.Command = nil }},
		{"no delimiter", func(c *Config) { c.Metrics.Delimiter = "" }},
		{"negative token", func(c *Config) { c.Metrics.Token = -1 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := valid()
			test.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrConfiguration)
		})
	}

	// metrics settings are irrelevant when normalisation is skipped
	c := valid()
	c.Normalize.Skip = true
	c.Metrics.Delimiter = ""
	assert.NoError(t, c.Validate())
}
