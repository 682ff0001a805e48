// Command bccount counts probe-anchored barcodes in gzip FASTQ reads, tallies
// PCR bias around them and compiles per-condition metrics from the
// normalised counts.
package main

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Altius/bccount/internal/config"
)

var (
	configFile string
	cpuprofile string
	memprofile string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "bccount",
	Short: "Count probe-anchored barcodes in gzip FASTQ files",
	Long: `bccount finds the probe motif in every read, extracts the 8 nt barcode
that follows it and counts library barcodes per sample. It also tallies the bases
around the probe and barcode to measure PCR bias, runs an external normalisation
program on the raw counts and summarises the normalised counts per condition.

Settings come from flags, BCCOUNT_* environment variables, an optional config
file and built-in defaults, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return startCPUProfile(cpuprofile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "read configuration from `file` (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	rootCmd.PersistentFlags().StringVar(&memprofile, "memprofile", "", "write memory profile to `file`")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")
}

func newLogger() *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime)
}

// loadConfig layers the config file, environment and the flags named in
// bindings (viper key to flag name) over the defaults.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v := config.New()
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, err
		}
	}
	if configFile != "" {
		if err := config.ReadFile(v, configFile); err != nil {
			return nil, err
		}
	}
	return config.Load(v)
}

func fail(err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
	stopProfiles()
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
	stopProfiles()
}
