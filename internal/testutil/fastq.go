// Package testutil writes read file fixtures for package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
)

// FASTQ renders sequences as FASTQ records with constant quality.
func FASTQ(seqs ...string) string {
	var b strings.Builder
	for i, s := range seqs {
		fmt.Fprintf(&b, "@read%d\n%s\n+\n%s\n", i+1, s, strings.Repeat("I", len(s)))
	}
	return b.String()
}

// WriteGz writes data gzip-compressed to dir/name, creating parent
// directories, and returns the path.
func WriteGz(t testing.TB, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fh, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gw := pgzip.NewWriter(fh)
	if _, err := gw.Write([]byte(data)); err != nil {
		t.Fatalf("write gz: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gz: %v", err)
	}
	if err := fh.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}
