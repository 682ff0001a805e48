package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/aquasecurity/table"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Altius/bccount/internal/aggregate"
	"github.com/Altius/bccount/internal/normalize"
	"github.com/Altius/bccount/internal/pipeline"
	"github.com/Altius/bccount/internal/scan"
)

var showProgress bool

var runBindings = map[string]string{
	"read_dir":          "reads",
	"library":           "library",
	"sheet":             "sheet",
	"output_dir":        "output",
	"probe":             "probe",
	"threads":           "threads",
	"split_unknown":     "split-unknown",
	"normalize.skip":    "skip-normalize",
	"normalize.command": "normalize-cmd",
	"metrics.delimiter": "delimiter",
	"metrics.token":     "token",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Count barcodes, normalise and compile metrics",
	Long: `Scans every .fastq.gz and .fq.gz file below the read directory and writes
rawcounts.csv, logfile_YYYYMMDD.log and pcr_bias.csv to the output directory.
The normalisation program is then run on the raw counts and must write
normcounts.csv, from which cell_type_variance.csv and normalized_compiled.csv
are compiled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, runBindings)
		if err != nil {
			return err
		}

		var bar *progressbar.ProgressBar
		r := &pipeline.Runner{
			Config: cfg,
			Logger: newLogger(),
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		}
		if showProgress {
			r.OnFiles = func(n int) {
				bar = progressbar.NewOptions(n,
					progressbar.OptionSetDescription("Scanning read files"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish())
			}
			r.OnFile = func(sample string, _ *scan.Result) {
				bar.Describe(sample)
				_ = bar.Add(1)
			}
		}

		sum, err := r.Run()
		if bar != nil {
			_ = bar.Finish()
		}
		if sum != nil && sum.Matrix != nil {
			printSummary(sum.Matrix)
		}
		var cerr *normalize.CollaboratorError
		if errors.As(err, &cerr) {
			color.Yellow("Raw counts, error log and bias table were kept in %s", cfg.OutputDir)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.StringP("reads", "r", "", "directory searched for read files")
	f.StringP("library", "l", "", "barcode library, .csv or .xlsx (default barcodes.csv)")
	f.String("sheet", "", "sheet holding the barcodes in an .xlsx library (default Sheet1)")
	f.StringP("output", "o", "", "output directory, created if missing")
	f.String("probe", "", "probe-binding motif preceding the barcode")
	f.IntP("threads", "j", 1, "read files scanned at once")
	f.Bool("split-unknown", false, "report unknown barcodes apart from truncated barcode regions")
	f.Bool("skip-normalize", false, "stop after raw counts, error log and bias table")
	f.StringSlice("normalize-cmd", nil, "normalisation program and leading arguments")
	f.String("delimiter", "", `sample name delimiter for condition labels (default ".")`)
	f.Int("token", 2, "0-based token of the sample name holding the condition label")
	f.BoolVar(&showProgress, "progress", false, "show a progress bar over read files")
}

func printSummary(m *aggregate.Matrix) {
	t := table.New(os.Stdout)
	t.SetHeaders("Sample", "Reads", "Probe found", "Known barcode", "Ambiguous", "Not found")
	t.SetHeaderStyle(table.StyleBold)
	t.SetDividers(table.UnicodeRoundedDividers)
	t.SetAlignment(table.AlignLeft, table.AlignRight, table.AlignRight,
		table.AlignRight, table.AlignRight, table.AlignRight)

	var empty []string
	for i, sample := range m.Samples {
		var known int64
		for _, n := range m.Column(i) {
			known += n
		}
		if known == 0 {
			empty = append(empty, sample)
		}
		t.AddRow(sample,
			strconv.FormatInt(m.Reads[i], 10),
			strconv.FormatInt(m.Matched[i], 10),
			strconv.FormatInt(known, 10),
			strconv.FormatInt(m.Errors[i].Ambiguous, 10),
			strconv.FormatInt(m.Errors[i].NotFound(), 10))
	}
	t.Render()
	for _, s := range empty {
		color.Yellow("Warning: no library barcode found in sample %s", s)
	}
}
