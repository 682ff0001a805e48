// Package scan locates the probe motif in each read, classifies the barcode
// field that follows it and tallies the PCR bias positions around them.
package scan

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Altius/bccount/internal/bias"
	"github.com/Altius/bccount/internal/library"
)

// DefaultProbe is the probe-binding motif used to anchor the barcode.
const DefaultProbe = "CCTGCTAGTCCACGTCCATGTCCACC"

// Spacer is the number of bases between the probe end and the barcode.
const Spacer = 4

// Outcome classifies the barcode field of one read.
type Outcome int

const (
	NoProbe     Outcome = iota // motif absent; the read is ignored
	Known                      // barcode is in the library
	Ambiguous                  // field contains N
	Unknown                    // well-formed but not in the library
	OutOfBounds                // read ends before the field does
)

func (o Outcome) String() string {
	switch o {
	case NoProbe:
		return "no-probe"
	case Known:
		return "known"
	case Ambiguous:
		return "ambiguous"
	case Unknown:
		return "unknown"
	case OutOfBounds:
		return "out-of-bounds"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Match is the classification of a single read.
type Match struct {
	Outcome      Outcome
	ProbeStart   int
	BarcodeStart int
	Barcode      []byte // the field as read, possibly shorter than BarcodeLen
	Index        int    // library index when Outcome is Known
}

// ErrorCounts holds the per-file barcode failures.
type ErrorCounts struct {
	Ambiguous   int64
	OutOfBounds int64
	Unknown     int64
}

// NotFound is the legacy "barcode not found" count, which does not separate
// unrecognised barcodes from truncated fields.
func (e ErrorCounts) NotFound() int64 { return e.OutOfBounds + e.Unknown }

func (e *ErrorCounts) Add(o ErrorCounts) {
	e.Ambiguous += o.Ambiguous
	e.OutOfBounds += o.OutOfBounds
	e.Unknown += o.Unknown
}

// Result is everything one read file contributes to a run.
type Result struct {
	Path    string
	Counts  []int64 // indexed like the library
	Errors  ErrorCounts
	Bias    bias.Counts
	Reads   int64 // records decoded
	Matched int64 // records containing the probe
}

// Scanner classifies reads against one barcode library. It holds no mutable
// state and may be shared between goroutines.
type Scanner struct {
	probe   []byte
	library *library.Set
}

var ErrInvalidProbe = errors.New("invalid probe motif")

// New returns a scanner for probe and lib. An empty probe selects DefaultProbe.
func New(lib *library.Set, probe string) (*Scanner, error) {
	if probe == "" {
		probe = DefaultProbe
	}
	for i := 0; i < len(probe); i++ {
		switch probe[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidProbe, probe)
		}
	}
	return &Scanner{probe: []byte(probe), library: lib}, nil
}

func (s *Scanner) Library() *library.Set { return s.library }

// NewResult returns an empty result sized for the scanner's library.
func (s *Scanner) NewResult(path string) *Result {
	return &Result{Path: path, Counts: make([]int64, s.library.Len())}
}

// Classify finds the leftmost probe in seq and classifies the barcode field.
func (s *Scanner) Classify(seq []byte) Match {
	start := bytes.Index(seq, s.probe)
	if start < 0 {
		return Match{Outcome: NoProbe, ProbeStart: -1, BarcodeStart: -1, Index: -1}
	}
	m := Match{
		ProbeStart:   start,
		BarcodeStart: start + len(s.probe) + Spacer,
		Index:        -1,
	}
	if m.BarcodeStart < len(seq) {
		end := m.BarcodeStart + library.BarcodeLen
		if end > len(seq) {
			end = len(seq)
		}
		m.Barcode = seq[m.BarcodeStart:end]
	}

	switch {
	case bytes.IndexByte(m.Barcode, 'N') >= 0:
		m.Outcome = Ambiguous
	case len(m.Barcode) < library.BarcodeLen:
		m.Outcome = OutOfBounds
	default:
		if i, ok := s.library.Index(m.Barcode); ok {
			m.Outcome = Known
			m.Index = i
		} else {
			m.Outcome = Unknown
		}
	}
	return m
}

// BiasWindows returns the base at each bias position for a read with a probe
// match, or 0 where the position falls outside the read.
func BiasWindows(seq []byte, m Match) [bias.Positions]byte {
	var w [bias.Positions]byte
	if m.Outcome == NoProbe {
		return w
	}
	starts := [...]int{
		m.ProbeStart - bias.Regions[0].Len,
		m.BarcodeStart - bias.Regions[1].Len,
		m.BarcodeStart + library.BarcodeLen,
	}
	pos := 0
	for r, region := range bias.Regions {
		for i := 0; i < region.Len; i++ {
			if at := starts[r] + i; at >= 0 && at < len(seq) {
				w[pos] = seq[at]
			}
			pos++
		}
	}
	return w
}

// ScanSequence classifies one read sequence and records it in res.
func (s *Scanner) ScanSequence(seq []byte, res *Result) Match {
	res.Reads++
	m := s.Classify(seq)
	if m.Outcome == NoProbe {
		return m
	}
	res.Matched++

	switch m.Outcome {
	case Known:
		res.Counts[m.Index]++
	case Ambiguous:
		res.Errors.Ambiguous++
	case OutOfBounds:
		res.Errors.OutOfBounds++
	case Unknown:
		res.Errors.Unknown++
	}

	for pos, b := range BiasWindows(seq, m) {
		res.Bias.Observe(pos, b)
	}
	return m
}
