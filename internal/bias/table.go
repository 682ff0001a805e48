// Package bias tallies base composition at fixed positions around the probe
// and barcode, used to spot PCR amplification bias.
package bias

import "math"

// Positions is the number of tallied positions across all regions.
const Positions = 11

// Bases are the tallied bases, in column order.
const Bases = "ACGT"

// Region is a named run of consecutive bias positions.
type Region struct {
	Name string
	Len  int
}

// Regions lists the bias regions in position order: four bases before the
// probe, the four spacer bases before the barcode and three bases after it.
var Regions = []Region{
	{Name: "region_1", Len: 4},
	{Name: "region_2", Len: 4},
	{Name: "region_3", Len: 3},
}

// Label returns the region name and 1-based position within that region for
// bias position pos.
func Label(pos int) (string, int) {
	for _, r := range Regions {
		if pos < r.Len {
			return r.Name, pos + 1
		}
		pos -= r.Len
	}
	return "", 0
}

func baseIndex(b byte) int {
	switch b {
	case 'A':
		return 0
	case 'C':
		return 1
	case 'G':
		return 2
	case 'T':
		return 3
	}
	return -1
}

// Counts holds raw per-position per-base tallies.
type Counts [Positions][4]int64

// Observe counts base b at position pos. Bases outside ACGT and positions out
// of range are ignored; the return value reports whether b was counted.
func (c *Counts) Observe(pos int, b byte) bool {
	i := baseIndex(b)
	if i < 0 || pos < 0 || pos >= Positions {
		return false
	}
	c[pos][i]++
	return true
}

// Add adds o into c.
func (c *Counts) Add(o *Counts) {
	for p := range c {
		for b := range c[p] {
			c[p][b] += o[p][b]
		}
	}
}

// Total returns the number of observations at position pos.
func (c *Counts) Total(pos int) int64 {
	var n int64
	for _, v := range c[pos] {
		n += v
	}
	return n
}

// Table is the run-wide accumulator. Every cell starts at one so that rows
// never sum to zero and an unobserved position normalises to a uniform
// distribution.
type Table struct {
	counts Counts
}

func NewTable() *Table {
	t := &Table{}
	for p := range t.counts {
		for b := range t.counts[p] {
			t.counts[p][b] = 1
		}
	}
	return t
}

// Fold adds one file's tallies to the table.
func (t *Table) Fold(c *Counts) { t.counts.Add(c) }

// Counts returns a copy of the accumulated counts, pseudocounts included.
func (t *Table) Counts() Counts { return t.counts }

// Normalize returns the per-position base frequencies.
func (t *Table) Normalize() Frequencies {
	var f Frequencies
	for p := range t.counts {
		n := float64(t.counts.Total(p))
		for b := range t.counts[p] {
			f[p][b] = float64(t.counts[p][b]) / n
		}
	}
	return f.Normalize()
}

// Frequencies are per-position base frequencies; each row sums to about one.
type Frequencies [Positions][4]float64

// Normalize divides each row by its sum and rounds to two decimals. Rows that
// sum to zero are left as zeros.
func (f Frequencies) Normalize() Frequencies {
	var out Frequencies
	for p := range f {
		var sum float64
		for _, v := range f[p] {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for b, v := range f[p] {
			out[p][b] = Round(v/sum, 2)
		}
	}
	return out
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
