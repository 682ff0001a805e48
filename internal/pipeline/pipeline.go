// Package pipeline runs one counting job end to end: library and read
// discovery, scanning, reports, normalisation and per-condition metrics.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Altius/bccount/internal/aggregate"
	"github.com/Altius/bccount/internal/config"
	"github.com/Altius/bccount/internal/library"
	"github.com/Altius/bccount/internal/locate"
	"github.com/Altius/bccount/internal/metrics"
	"github.com/Altius/bccount/internal/normalize"
	"github.com/Altius/bccount/internal/report"
	"github.com/Altius/bccount/internal/scan"
)

// Runner holds the collaborators of a run. Only Config is required.
type Runner struct {
	Config *config.Config
	Logger *log.Logger

	// Stdout receives the normaliser's output verbatim.
	Stdout io.Writer
	// Stderr receives the normaliser's standard error.
	Stderr io.Writer

	// OnFiles is called once with the number of read files found.
	OnFiles func(n int)
	// OnFile is called as each sample is folded in.
	OnFile func(sample string, res *scan.Result)

	Now func() time.Time
}

// Summary lists what a run produced. Paths of stages that did not run are
// empty.
type Summary struct {
	Matrix     *aggregate.Matrix
	RawCounts  string
	ErrorLog   string
	Bias       string
	NormCounts string
	Variance   string
	Compiled   string
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func configError(err error) error {
	return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
}

// prepare checks everything that can be checked before the first read.
func (r *Runner) prepare() (*scan.Scanner, []string, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	r.logger().Println("Reading barcode library", cfg.Library)
	lib, err := library.Load(cfg.Library, cfg.Sheet)
	if err != nil {
		return nil, nil, configError(err)
	}
	s, err := scan.New(lib, cfg.Probe)
	if err != nil {
		return nil, nil, configError(err)
	}

	files, err := locate.ReadFiles(cfg.ReadDir)
	if err != nil {
		return nil, nil, configError(err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("%w: no read files below %s", config.ErrConfiguration, cfg.ReadDir)
	}
	if _, err := aggregate.SampleIDs(files); err != nil {
		return nil, nil, configError(err)
	}
	r.logger().Printf("Found %d barcodes and %d read files", lib.Len(), len(files))
	return s, files, nil
}

// Run executes the whole job. A normalisation failure is returned after the
// raw counts, error log and bias table have been written.
func (r *Runner) Run() (*Summary, error) {
	cfg := r.Config
	s, files, err := r.prepare()
	if err != nil {
		return nil, err
	}
	if r.OnFiles != nil {
		r.OnFiles(len(files))
	}

	r.logger().Println("Starting scan")
	onFile := func(sample string, res *scan.Result) {
		r.logger().Printf("%s: %d reads, %d with probe", res.Path, res.Reads, res.Matched)
		if r.OnFile != nil {
			r.OnFile(sample, res)
		}
	}
	m, err := aggregate.Run(s, files, aggregate.Options{Threads: cfg.Threads, OnFile: onFile})
	if err != nil {
		return nil, err
	}
	e := m.TotalErrors()
	r.logger().Printf("Scanned %d samples: %d ambiguous, %d out of bounds, %d unknown barcodes",
		len(m.Samples), e.Ambiguous, e.OutOfBounds, e.Unknown)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}
	sum := &Summary{
		Matrix:    m,
		RawCounts: filepath.Join(cfg.OutputDir, report.RawCountsFile),
		ErrorLog:  filepath.Join(cfg.OutputDir, report.LogFileName(r.now())),
		Bias:      filepath.Join(cfg.OutputDir, report.BiasFile),
	}
	if err := report.WriteRawCounts(sum.RawCounts, m); err != nil {
		return sum, err
	}
	if err := report.WriteErrorLog(sum.ErrorLog, m, cfg.SplitUnknown); err != nil {
		return sum, err
	}
	if err := report.WriteBias(sum.Bias, m.Bias.Normalize()); err != nil {
		return sum, err
	}
	r.logger().Println("Wrote", sum.RawCounts, sum.ErrorLog, sum.Bias)

	if cfg.Normalize.Skip {
		r.logger().Println("Skipping normalization")
		return sum, nil
	}

	r.logger().Println("Starting normalization")
	c := normalize.Collaborator{Command: cfg.Normalize.Command, Stderr: r.Stderr}
	out, norm, err := c.Run(sum.RawCounts, cfg.OutputDir)
	if r.Stdout != nil && len(out) > 0 {
		r.Stdout.Write(out)
	}
	if err != nil {
		return sum, err
	}
	sum.NormCounts = norm

	sum.Variance, sum.Compiled, err = CompileMetrics(norm, cfg.OutputDir, cfg.Metrics.Rule())
	if err != nil {
		return sum, err
	}
	r.logger().Println("Wrote", sum.Variance, sum.Compiled)
	return sum, nil
}

// CompileMetrics reads a normalised count table and writes the
// per-condition summary and compiled tables into outDir.
func CompileMetrics(normCounts, outDir string, rule metrics.LabelRule) (variance, compiled string, err error) {
	t, err := metrics.ReadTable(normCounts)
	if err != nil {
		return "", "", err
	}
	summary, full, err := metrics.Compile(t, rule)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", err
	}
	variance = filepath.Join(outDir, report.VarianceFile)
	if err := report.WriteTable(variance, summary); err != nil {
		return "", "", err
	}
	compiled = filepath.Join(outDir, report.CompiledFile)
	if err := report.WriteTable(compiled, full); err != nil {
		return "", "", err
	}
	return variance, compiled, nil
}
