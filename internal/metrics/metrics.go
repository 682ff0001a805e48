// Package metrics summarises normalised barcode counts per condition.
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
	"gonum.org/v1/gonum/stat"
)

// Table is a labelled numeric matrix; Data[r][c] is row Index[r], column
// Columns[c].
type Table struct {
	IndexName string
	Index     []string
	Columns   []string
	Data      [][]float64
}

// ReadTable reads a CSV table whose first column is the row index. Blank,
// NA and NaN cells are read as NaN.
func ReadTable(path string) (*Table, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: empty table", path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: no sample columns", path)
	}

	t := &Table{IndexName: header[0], Columns: header[1:]}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		row := make([]float64, len(rec)-1)
		for i, cell := range rec[1:] {
			if row[i], err = parseCell(cell); err != nil {
				line, _ := r.FieldPos(i + 1)
				return nil, fmt.Errorf("%s:%d: column %q: %w", path, line, t.Columns[i], err)
			}
		}
		t.Index = append(t.Index, rec[0])
		t.Data = append(t.Data, row)
	}
	return t, nil
}

func parseCell(cell string) (float64, error) {
	switch strings.TrimSpace(cell) {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}

// LabelRule extracts the condition label from a column name: the Token-th
// (0-based) field after splitting on Delimiter.
type LabelRule struct {
	Delimiter string
	Token     int
}

// DefaultRule reads "plate.replicate.celltype" sample names.
var DefaultRule = LabelRule{Delimiter: ".", Token: 2}

// MalformedColumnNameError reports a column whose name does not carry a label
// under the configured rule.
type MalformedColumnNameError struct {
	Column string
	Rule   LabelRule
}

func (e *MalformedColumnNameError) Error() string {
	return fmt.Sprintf("column %q has no label at token %d of %q-delimited name",
		e.Column, e.Rule.Token, e.Rule.Delimiter)
}

// Label returns the condition label of column.
func (r LabelRule) Label(column string) (string, error) {
	if r.Delimiter == "" || r.Token < 0 || !strings.Contains(column, r.Delimiter) {
		return "", &MalformedColumnNameError{Column: column, Rule: r}
	}
	parts := strings.Split(column, r.Delimiter)
	if r.Token >= len(parts) || parts[r.Token] == "" {
		return "", &MalformedColumnNameError{Column: column, Rule: r}
	}
	return parts[r.Token], nil
}

// Group is the set of replicate columns sharing a label.
type Group struct {
	Label   string
	Columns []int
}

// Groups partitions columns by label, in order of first appearance.
func Groups(columns []string, rule LabelRule) ([]Group, error) {
	var groups []Group
	at := make(map[string]int)
	for i, name := range columns {
		label, err := rule.Label(name)
		if err != nil {
			return nil, err
		}
		g, ok := at[label]
		if !ok {
			g = len(groups)
			at[label] = g
			groups = append(groups, Group{Label: label})
		}
		groups[g].Columns = append(groups[g].Columns, i)
	}
	return groups, nil
}

// MeanStd returns the mean and sample standard deviation of the non-NaN
// values. The deviation is NaN with fewer than two values.
func MeanStd(values []float64) (mean, std float64) {
	x := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	switch len(x) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return x[0], math.NaN()
	}
	return stat.MeanStdDev(x, nil)
}

// Compile computes per-label mean and standard deviation for every row.
// summary holds "<label>_avg" and "<label>_std" per label; compiled holds each
// label's replicate columns followed by its two summary columns.
func Compile(t *Table, rule LabelRule) (summary, compiled *Table, err error) {
	groups, err := Groups(t.Columns, rule)
	if err != nil {
		return nil, nil, err
	}

	summary = &Table{IndexName: t.IndexName, Index: t.Index}
	compiled = &Table{IndexName: t.IndexName, Index: t.Index}
	for _, g := range groups {
		summary.Columns = append(summary.Columns, g.Label+"_avg", g.Label+"_std")
		for _, c := range g.Columns {
			compiled.Columns = append(compiled.Columns, t.Columns[c])
		}
		compiled.Columns = append(compiled.Columns, g.Label+"_avg", g.Label+"_std")
	}

	values := make([]float64, 0, len(t.Columns))
	for _, row := range t.Data {
		var srow, crow []float64
		for _, g := range groups {
			values = values[:0]
			for _, c := range g.Columns {
				values = append(values, row[c])
			}
			mean, std := MeanStd(values)
			srow = append(srow, mean, std)
			crow = append(crow, values...)
			crow = append(crow, mean, std)
		}
		summary.Data = append(summary.Data, srow)
		compiled.Data = append(compiled.Data, crow)
	}
	return summary, compiled, nil
}
