package report

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shenwei356/xopen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Altius/bccount/internal/aggregate"
	"github.com/Altius/bccount/internal/bias"
	"github.com/Altius/bccount/internal/metrics"
	"github.com/Altius/bccount/internal/scan"
)

func matrix() *aggregate.Matrix {
	return &aggregate.Matrix{
		Barcodes: []string{"GGTTCCAA", "ACGTACGT"},
		Samples:  []string{"S1", "S2"},
		Counts:   [][]int64{{3, 0}, {1, 7}},
		Errors: []scan.ErrorCounts{
			{Ambiguous: 1, OutOfBounds: 2, Unknown: 3},
			{Ambiguous: 0, OutOfBounds: 0, Unknown: 4},
		},
		Bias: bias.NewTable(),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriteRawCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), RawCountsFile)
	require.NoError(t, WriteRawCounts(path, matrix()))
	assert.Equal(t, "barcodes,S1,S2\nGGTTCCAA,3,1\nACGTACGT,0,7\n", readFile(t, path))
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.log")
	require.NoError(t, WriteErrorLog(path, matrix(), false))
	assert.Equal(t, "Type of error,S1,S2\n"+
		AmbiguousRow+",1,0\n"+
		NotFoundRow+",5,4\n", readFile(t, path))

	path = filepath.Join(dir, "split.log")
	require.NoError(t, WriteErrorLog(path, matrix(), true))
	assert.Equal(t, "Type of error,S1,S2\n"+
		AmbiguousRow+",1,0\n"+
		OutOfBoundsRow+",2,0\n"+
		UnknownRow+",3,4\n", readFile(t, path))
}

func TestLogFileName(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "logfile_20261019.log", LogFileName(now))
}

func TestWriteBias(t *testing.T) {
	path := filepath.Join(t.TempDir(), BiasFile)
	require.NoError(t, WriteBias(path, bias.NewTable().Normalize()))

	lines := strings.Split(strings.TrimSpace(readFile(t, path)), "\n")
	require.Len(t, lines, bias.Positions+1)
	assert.Equal(t, "region,position,A,C,G,T", lines[0])
	assert.Equal(t, "region_1,1,0.25,0.25,0.25,0.25", lines[1])
	assert.Equal(t, "region_2,4,0.25,0.25,0.25,0.25", lines[8])
	assert.Equal(t, "region_3,3,0.25,0.25,0.25,0.25", lines[11])
}

func TestWriteTableGzip(t *testing.T) {
	tab := &metrics.Table{
		Index:   []string{"GGTTCCAA"},
		Columns: []string{"liver_avg", "liver_std"},
		Data:    [][]float64{{1.5, math.NaN()}},
	}
	path := filepath.Join(t.TempDir(), "summary.csv.gz")
	require.NoError(t, WriteTable(path, tab))

	fh, err := xopen.Ropen(path)
	require.NoError(t, err)
	defer fh.Close()
	b, err := io.ReadAll(fh)
	require.NoError(t, err)
	assert.Equal(t, "barcodes,liver_avg,liver_std\nGGTTCCAA,1.5,\n", string(b))
}

func TestTableWriterBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.csv")
	w, err := NewTableWriter(path, 2, []string{"a", "b"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		w.Write([]string{"x", "y"})
	}
	require.NoError(t, w.Close())
	assert.Equal(t, "a,b\n"+strings.Repeat("x,y\n", 5), readFile(t, path))
}
