package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Altius/bccount/internal/pipeline"
)

var metricsBindings = map[string]string{
	"metrics.delimiter": "delimiter",
	"metrics.token":     "token",
}

var metricsCmd = &cobra.Command{
	Use:   "metrics normcounts.csv",
	Short: "Compile per-condition metrics from a normalised count table",
	Long: `Groups the sample columns of a normalised count table by condition label
and writes the per-barcode mean and standard deviation of every condition to
cell_type_variance.csv, and the replicates beside their summaries to
normalized_compiled.csv.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, metricsBindings)
		if err != nil {
			return err
		}
		if err := cfg.Metrics.Validate(); err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = filepath.Dir(args[0])
		}

		logger := newLogger()
		logger.Println("Compiling metrics from", args[0])
		variance, compiled, err := pipeline.CompileMetrics(args[0], out, cfg.Metrics.Rule())
		if err != nil {
			return err
		}
		logger.Println("Wrote", variance, compiled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	f := metricsCmd.Flags()
	f.StringP("output", "o", "", "output directory (default: beside the input table)")
	f.String("delimiter", "", `sample name delimiter for condition labels (default ".")`)
	f.Int("token", 2, "0-based token of the sample name holding the condition label")
}
