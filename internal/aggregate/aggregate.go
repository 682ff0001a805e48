// Package aggregate runs the scanner over a batch of sample files and
// assembles the per-sample count matrix, error log and bias table.
package aggregate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Altius/bccount/internal/bias"
	"github.com/Altius/bccount/internal/locate"
	"github.com/Altius/bccount/internal/scan"
)

var ErrDuplicateSample = errors.New("duplicate sample id")

// Matrix is the outcome of a whole run.
type Matrix struct {
	Barcodes []string
	Samples  []string
	// Counts[s][b] is the count of barcode b in sample s.
	Counts  [][]int64
	Errors  []scan.ErrorCounts
	Reads   []int64
	Matched []int64
	Bias    *bias.Table
}

// Column returns the barcode counts of sample s.
func (m *Matrix) Column(s int) []int64 { return m.Counts[s] }

// TotalErrors sums the barcode failures of every sample.
func (m *Matrix) TotalErrors() scan.ErrorCounts {
	var total scan.ErrorCounts
	for _, e := range m.Errors {
		total.Add(e)
	}
	return total
}

// Options tune a run.
type Options struct {
	// Threads is the number of files scanned at once; values below two scan
	// sequentially.
	Threads int
	// OnFile is called after each file is folded in, in file order.
	OnFile func(sample string, res *scan.Result)
}

// SampleID derives the sample identifier from a read file name: the text
// before the first underscore.
func SampleID(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '_'); i >= 0 {
		return name[:i]
	}
	return locate.TrimSuffix(name)
}

// SampleIDs derives sample identifiers for files and rejects duplicates.
func SampleIDs(files []string) ([]string, error) {
	ids := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, f := range files {
		id := SampleID(f)
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %q from %s and %s", ErrDuplicateSample, id, prev, f)
		}
		seen[id] = f
		ids[i] = id
	}
	return ids, nil
}

// Run scans every file and folds the results in file order. The first file
// that fails aborts the run.
func Run(s *scan.Scanner, files []string, opt Options) (*Matrix, error) {
	samples, err := SampleIDs(files)
	if err != nil {
		return nil, err
	}

	m := &Matrix{
		Barcodes: s.Library().Barcodes(),
		Samples:  samples,
		Counts:   make([][]int64, 0, len(files)),
		Errors:   make([]scan.ErrorCounts, 0, len(files)),
		Bias:     bias.NewTable(),
	}
	fold := func(i int, res *scan.Result) {
		m.Counts = append(m.Counts, res.Counts)
		m.Errors = append(m.Errors, res.Errors)
		m.Reads = append(m.Reads, res.Reads)
		m.Matched = append(m.Matched, res.Matched)
		m.Bias.Fold(&res.Bias)
		if opt.OnFile != nil {
			opt.OnFile(samples[i], res)
		}
	}

	if opt.Threads < 2 || len(files) < 2 {
		for i, f := range files {
			res, err := s.ScanFile(f)
			if err != nil {
				return nil, err
			}
			fold(i, res)
		}
		return m, nil
	}

	results, err := scanParallel(s.ScanFile, files, opt.Threads)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		fold(i, res)
	}
	return m, nil
}

type job struct {
	i    int
	path string
}

// scanParallel scans files with a fixed pool of workers. Each worker returns
// its own partial result; nothing shared is written until every file is done.
// Once a file fails no further files are handed out, and files queued after
// the earliest failure are skipped.
func scanParallel(scanFile func(string) (*scan.Result, error), files []string, threads int) ([]*scan.Result, error) {
	if threads > len(files) {
		threads = len(files)
	}
	results := make([]*scan.Result, len(files))
	errs := make([]error, len(files))

	var (
		mu     sync.Mutex
		failed = len(files) // index of the earliest failing file
	)
	stop := make(chan struct{})

	jobs := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				mu.Lock()
				skip := j.i > failed
				mu.Unlock()
				if skip {
					continue
				}
				results[j.i], errs[j.i] = scanFile(j.path)
				if errs[j.i] == nil {
					continue
				}
				mu.Lock()
				if failed == len(files) {
					close(stop)
				}
				if j.i < failed {
					failed = j.i
				}
				mu.Unlock()
			}
		}()
	}
send:
	for i, f := range files {
		select {
		case jobs <- job{i: i, path: f}:
		case <-stop:
			break send
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
