// Package locate finds compressed FASTQ files below a sample directory.
package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrDirectoryNotFound = errors.New("read directory not found")

// Suffixes lists the accepted read file name endings.
var Suffixes = []string{".fastq.gz", ".fq.gz"}

// IsReadFile reports whether name is an accepted read file name.
func IsReadFile(name string) bool {
	if metadata(name) {
		return false
	}
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// TrimSuffix removes an accepted read suffix from name.
func TrimSuffix(name string) string {
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return strings.TrimSuffix(name, s)
		}
	}
	return name
}

// metadata matches files written by desktop platforms next to the reads.
func metadata(name string) bool {
	return name == ".DS_Store" || name == "Thumbs.db" || strings.HasPrefix(name, "._")
}

// ReadFiles returns every read file below dir, sorted by path so that sample
// order does not depend on the platform's directory iteration order.
func ReadFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsReadFile(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
