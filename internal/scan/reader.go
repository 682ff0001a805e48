package scan

import (
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

const (
	chunkBuffer = 10
	chunkSize   = 1000
)

// ReadFileError reports a read file that could not be opened or decoded.
type ReadFileError struct {
	Path string
	Err  error
}

func (e *ReadFileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ReadFileError) Unwrap() error { return e.Err }

// ScanFile streams every record of a (gzip) FASTQ file through the scanner.
// Any open or decode failure abandons the file. Sequence letters are not
// validated; Classify and BiasWindows deal with unexpected characters.
func (s *Scanner) ScanFile(path string) (*Result, error) {
	fq, err := fastx.NewReader(seq.Unlimit, path, "")
	if err != nil {
		return nil, &ReadFileError{Path: path, Err: err}
	}
	defer fq.Close()

	res := s.NewResult(path)
	chunks := fq.ChunkChan(chunkBuffer, chunkSize)
	for chunk := range chunks {
		for _, record := range chunk.Data {
			s.ScanSequence(record.Seq.Seq, res)
		}
		if chunk.Err != nil && chunk.Err != io.EOF {
			// drain so the decoding goroutine can exit
			for range chunks {
			}
			return nil, &ReadFileError{Path: path, Err: chunk.Err}
		}
	}
	return res, nil
}
