// Package normalize runs the external count normalisation step.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultCommand is the normaliser used when none is configured. The raw
// counts path and output directory are appended to it.
var DefaultCommand = []string{"Rscript", "--vanilla", "./modules/normalization.R"}

// OutputFile is the table the normaliser must write into the output directory.
const OutputFile = "normcounts.csv"

// CollaboratorError reports a normaliser that failed or produced no output.
type CollaboratorError struct {
	Command  []string
	ExitCode int
	Output   []byte
	Err      error
}

func (e *CollaboratorError) Error() string {
	msg := fmt.Sprintf("normalization %q failed", strings.Join(e.Command, " "))
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" with exit status %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Collaborator invokes an external normalisation program.
type Collaborator struct {
	Command []string
	// Stderr receives the program's standard error; nil discards it.
	Stderr io.Writer
}

// Run normalises rawCounts into outDir and returns the program's standard
// output together with the path of the normalised table.
func (c Collaborator) Run(rawCounts, outDir string) (output []byte, normCounts string, err error) {
	argv := c.Command
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	argv = append(append([]string(nil), argv...), rawCounts, outDir)

	var stdout bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	err = cmd.Run()
	output = stdout.Bytes()
	if err != nil {
		cerr := &CollaboratorError{Command: argv, Output: output, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
			cerr.Err = nil
		}
		return output, "", cerr
	}

	normCounts = filepath.Join(outDir, OutputFile)
	if _, err := os.Stat(normCounts); err != nil {
		return output, "", &CollaboratorError{Command: argv, Output: output,
			Err: fmt.Errorf("no %s written: %w", OutputFile, err)}
	}
	return output, normCounts, nil
}
