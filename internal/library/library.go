// Package library loads the ordered set of expected barcodes.
package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shenwei356/xopen"
	"github.com/xuri/excelize/v2"
)

// BarcodeLen is the length of every library barcode.
const BarcodeLen = 8

// SheetColumn is the barcode column header used by spreadsheet libraries.
const SheetColumn = "8nt Barcode Sequence"

// DefaultSheet is read when no sheet name is given for a spreadsheet library.
const DefaultSheet = "Sheet1"

var ErrInvalidLibrary = errors.New("invalid barcode library")

// Set is an ordered collection of distinct barcodes. Order defines the row
// order of every count table.
type Set struct {
	barcodes []string
	index    map[string]int
}

// NewSet validates barcodes and returns them as a Set.
func NewSet(barcodes []string) (*Set, error) {
	if len(barcodes) == 0 {
		return nil, fmt.Errorf("%w: no barcodes", ErrInvalidLibrary)
	}
	s := &Set{
		barcodes: make([]string, 0, len(barcodes)),
		index:    make(map[string]int, len(barcodes)),
	}
	for _, bc := range barcodes {
		if !Valid(bc) {
			return nil, fmt.Errorf("%w: %q is not %d nt over ACGT", ErrInvalidLibrary, bc, BarcodeLen)
		}
		if _, dup := s.index[bc]; dup {
			return nil, fmt.Errorf("%w: duplicate barcode %q", ErrInvalidLibrary, bc)
		}
		s.index[bc] = len(s.barcodes)
		s.barcodes = append(s.barcodes, bc)
	}
	return s, nil
}

// Valid reports whether bc is a well-formed library barcode.
func Valid(bc string) bool {
	if len(bc) != BarcodeLen {
		return false
	}
	for i := 0; i < len(bc); i++ {
		switch bc[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

func (s *Set) Len() int { return len(s.barcodes) }

// Barcodes returns a copy of the barcodes in library order.
func (s *Set) Barcodes() []string {
	out := make([]string, len(s.barcodes))
	copy(out, s.barcodes)
	return out
}

// Index returns the library position of bc.
func (s *Set) Index(bc []byte) (int, bool) {
	i, ok := s.index[string(bc)]
	return i, ok
}

// Load reads a barcode library. Files ending in .xlsx are read as spreadsheets
// from the named sheet; anything else is read as delimited text with one
// barcode in the first column of each row. The first populated row of
// delimited text is taken as a header when it holds anything other than
// sequence letters, whatever its wording.
func Load(path, sheet string) (*Set, error) {
	var (
		tokens []token
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		tokens, err = readSheet(path, sheet)
	} else {
		tokens, err = readDelimited(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLibrary, path, err)
	}

	barcodes := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !Valid(t.value) {
			return nil, fmt.Errorf("%w: %s row %d: %q is not %d nt over ACGT",
				ErrInvalidLibrary, path, t.row, t.value, BarcodeLen)
		}
		barcodes = append(barcodes, t.value)
	}
	set, err := NewSet(barcodes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

type token struct {
	row   int // 1-based row in the source
	value string
}

// missing reports cells treated as absent rather than malformed.
func missing(cell string) bool {
	switch strings.ToLower(cell) {
	case "", "nan", "na", "n/a":
		return true
	}
	return false
}

func clean(cell string) string {
	return strings.ToUpper(strings.TrimSpace(cell))
}

// nucleotides reports whether cell is made of sequence letters only, so a
// malformed barcode is never mistaken for a header.
func nucleotides(cell string) bool {
	for i := 0; i < len(cell); i++ {
		switch cell[i] {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

func readDelimited(path string) ([]token, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var (
		tokens []token
		row    int
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row++
		if len(rec) == 0 {
			continue
		}
		cell := strings.TrimSpace(rec[0])
		if missing(cell) {
			continue
		}
		// optional header, only as the first populated row
		if len(tokens) == 0 && !nucleotides(clean(cell)) {
			continue
		}
		tokens = append(tokens, token{row: row, value: clean(cell)})
	}
	return tokens, nil
}

// readSheet reads the SheetColumn column of a spreadsheet. The first data row
// below the header is a description row in the vendor template and is dropped.
func readSheet(path, sheet string) ([]token, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	col := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(name) == SheetColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("sheet %q has no %q column", sheet, SheetColumn)
	}

	var tokens []token
	for i := 2; i < len(rows); i++ {
		if col >= len(rows[i]) {
			continue
		}
		cell := strings.TrimSpace(rows[i][col])
		if missing(cell) {
			continue
		}
		tokens = append(tokens, token{row: i + 1, value: clean(cell)})
	}
	return tokens, nil
}
