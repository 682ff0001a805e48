// Package report writes the run's tabular artefacts.
package report

import (
	"encoding/csv"

	"github.com/shenwei356/xopen"
)

// TableWriter writes CSV rows through xopen, so a name ending in .gz is
// compressed. Rows are cached and written in batches.
// Call Close() when you're done!
type TableWriter struct {
	writer *xopen.Writer
	csv    *csv.Writer
	cache  [][]string
	err    error
}

// NewTableWriter creates filename and writes header as its first row.
// cachesize: How many rows to buffer at a time
func NewTableWriter(filename string, cachesize int, header []string) (*TableWriter, error) {
	writer, err := xopen.Wopen(filename)
	if err != nil {
		return nil, err
	}
	w := &TableWriter{
		writer: writer,
		csv:    csv.NewWriter(writer),
		cache:  make([][]string, 0, cachesize),
	}
	w.Write(header)
	return w, nil
}

func (w *TableWriter) Write(row []string) {
	w.cache = append(w.cache, row)
	if cap(w.cache) == len(w.cache) {
		w.Flush()
	}
}

func (w *TableWriter) Flush() {
	if w.err == nil {
		w.err = w.csv.WriteAll(w.cache)
	}
	w.cache = w.cache[:0] // Empty the slice but keep allocated capacity
}

// Close flushes pending rows and closes the file, returning the first error.
func (w *TableWriter) Close() error {
	w.Flush()
	if err := w.writer.Close(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}
