package report

import (
	"math"
	"strconv"
	"time"

	"github.com/Altius/bccount/internal/aggregate"
	"github.com/Altius/bccount/internal/bias"
	"github.com/Altius/bccount/internal/metrics"
)

// Artefact file names inside the output directory.
const (
	RawCountsFile = "rawcounts.csv"
	BiasFile      = "pcr_bias.csv"
	VarianceFile  = "cell_type_variance.csv"
	CompiledFile  = "normalized_compiled.csv"
)

// Error log row labels.
const (
	AmbiguousRow   = "Number of instances with 'N' in barcode region"
	NotFoundRow    = "Number of instances where barcode not found in barcode region"
	OutOfBoundsRow = "Number of instances where barcode region extends past the read"
	UnknownRow     = "Number of instances where a well-formed barcode is not in the library"
)

const cacheSize = 128

// LogFileName returns the dated error log name for now.
func LogFileName(now time.Time) string {
	return "logfile_" + now.Format("20060102") + ".log"
}

// WriteRawCounts writes barcodes as rows and samples as columns.
func WriteRawCounts(path string, m *aggregate.Matrix) error {
	w, err := NewTableWriter(path, cacheSize, append([]string{"barcodes"}, m.Samples...))
	if err != nil {
		return err
	}
	for b, bc := range m.Barcodes {
		row := make([]string, 0, len(m.Samples)+1)
		row = append(row, bc)
		for s := range m.Samples {
			row = append(row, strconv.FormatInt(m.Column(s)[b], 10))
		}
		w.Write(row)
	}
	return w.Close()
}

// WriteErrorLog writes the per-sample barcode failures. By default
// out-of-bounds fields and unrecognised barcodes share the "not found" row;
// split writes them as separate rows.
func WriteErrorLog(path string, m *aggregate.Matrix, split bool) error {
	w, err := NewTableWriter(path, cacheSize, append([]string{"Type of error"}, m.Samples...))
	if err != nil {
		return err
	}
	type line struct {
		label string
		value func(i int) int64
	}
	lines := []line{
		{AmbiguousRow, func(i int) int64 { return m.Errors[i].Ambiguous }},
		{NotFoundRow, func(i int) int64 { return m.Errors[i].NotFound() }},
	}
	if split {
		lines = []line{
			lines[0],
			{OutOfBoundsRow, func(i int) int64 { return m.Errors[i].OutOfBounds }},
			{UnknownRow, func(i int) int64 { return m.Errors[i].Unknown }},
		}
	}
	for _, l := range lines {
		row := []string{l.label}
		for i := range m.Samples {
			row = append(row, strconv.FormatInt(l.value(i), 10))
		}
		w.Write(row)
	}
	return w.Close()
}

// WriteBias writes normalised bias frequencies, one row per position.
func WriteBias(path string, f bias.Frequencies) error {
	header := []string{"region", "position"}
	for i := 0; i < len(bias.Bases); i++ {
		header = append(header, bias.Bases[i:i+1])
	}
	w, err := NewTableWriter(path, cacheSize, header)
	if err != nil {
		return err
	}
	for pos := range f {
		region, n := bias.Label(pos)
		row := []string{region, strconv.Itoa(n)}
		for _, v := range f[pos] {
			row = append(row, formatFloat(v))
		}
		w.Write(row)
	}
	return w.Close()
}

// WriteTable writes a metrics table with its index as the first column.
// NaN cells are left empty.
func WriteTable(path string, t *metrics.Table) error {
	index := t.IndexName
	if index == "" {
		index = "barcodes"
	}
	w, err := NewTableWriter(path, cacheSize, append([]string{index}, t.Columns...))
	if err != nil {
		return err
	}
	for r, label := range t.Index {
		row := make([]string, 0, len(t.Columns)+1)
		row = append(row, label)
		for _, v := range t.Data[r] {
			row = append(row, formatFloat(v))
		}
		w.Write(row)
	}
	return w.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
