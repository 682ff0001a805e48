package metrics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var firstToken = LabelRule{Delimiter: ".", Token: 0}

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		rule  LabelRule
		want  string
		valid bool
	}{
		{"liver.rep1", firstToken, "liver", true},
		{"P1.rep1.kidney", DefaultRule, "kidney", true},
		{"P1.rep1.kidney.extra", DefaultRule, "kidney", true},
		{"P1.rep1", DefaultRule, "", false},
		{"liver", firstToken, "", false},
		{".rep1", firstToken, "", false},
		{"liver_rep1", LabelRule{Delimiter: "_", Token: 0}, "liver", true},
	}
	for _, test := range tests {
		got, err := test.rule.Label(test.name)
		if !test.valid {
			var mce *MalformedColumnNameError
			assert.True(t, errors.As(err, &mce), test.name)
			continue
		}
		require.NoError(t, err, test.name)
		assert.Equal(t, test.want, got)
	}
}

func TestCompileScenario(t *testing.T) {
	tab := &Table{
		IndexName: "barcodes",
		Index:     []string{"GGTTCCAA", "ACGTACGT"},
		Columns:   []string{"liver.rep1", "kidney.rep1", "liver.rep2"},
		Data: [][]float64{
			{2, 5, 4},
			{1, 0, 1},
		},
	}

	groups, err := Groups(tab.Columns, firstToken)
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Label: "liver", Columns: []int{0, 2}},
		{Label: "kidney", Columns: []int{1}},
	}, groups)

	summary, compiled, err := Compile(tab, firstToken)
	require.NoError(t, err)

	assert.Equal(t, []string{"liver_avg", "liver_std", "kidney_avg", "kidney_std"}, summary.Columns)
	assert.Equal(t, tab.Index, summary.Index)
	assert.Equal(t, 3.0, summary.Data[0][0])
	assert.InDelta(t, math.Sqrt2, summary.Data[0][1], 1e-12)
	assert.Equal(t, 5.0, summary.Data[0][2])
	assert.True(t, math.IsNaN(summary.Data[0][3]))
	assert.Equal(t, 1.0, summary.Data[1][0])
	assert.Equal(t, 0.0, summary.Data[1][1])

	assert.Equal(t, []string{
		"liver.rep1", "liver.rep2", "liver_avg", "liver_std",
		"kidney.rep1", "kidney_avg", "kidney_std",
	}, compiled.Columns)
	assert.Equal(t, []float64{2, 4, 3}, compiled.Data[0][:3])
	assert.Equal(t, 5.0, compiled.Data[0][4])
}

func TestCompileMalformed(t *testing.T) {
	tab := &Table{Columns: []string{"liver.rep1", "kidney"}, Data: [][]float64{{1, 2}}}
	_, _, err := Compile(tab, firstToken)
	var mce *MalformedColumnNameError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "kidney", mce.Column)
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{1, math.NaN(), 3})
	assert.Equal(t, 2.0, mean)
	assert.InDelta(t, math.Sqrt2, std, 1e-12)

	mean, std = MeanStd([]float64{math.NaN()})
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(std))
}

func TestReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normcounts.csv")
	data := "\"\",\"P1.r1.liver\",\"P1.r2.liver\"\n\"GGTTCCAA\",1.5,2.5\n\"ACGTACGT\",NA,0\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	tab, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, "", tab.IndexName)
	assert.Equal(t, []string{"P1.r1.liver", "P1.r2.liver"}, tab.Columns)
	assert.Equal(t, []string{"GGTTCCAA", "ACGTACGT"}, tab.Index)
	assert.Equal(t, []float64{1.5, 2.5}, tab.Data[0])
	assert.True(t, math.IsNaN(tab.Data[1][0]))

	require.NoError(t, os.WriteFile(path, []byte("barcodes,a.b.c\nGGTTCCAA,x\n"), 0o644))
	_, err = ReadTable(path)
	assert.Error(t, err)
}
