package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b_S2_L001_R1_001.fastq.gz",
		"a_S1_L001_R1_001.fastq.gz",
		"nested/run2/c_S3.fq.gz",
		"nested/notes.txt",
		"d_S4.fastq",
		".DS_Store",
		"._a_S1_L001_R1_001.fastq.gz",
	} {
		touch(t, filepath.Join(dir, name))
	}

	got, err := ReadFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_S1_L001_R1_001.fastq.gz"),
		filepath.Join(dir, "b_S2_L001_R1_001.fastq.gz"),
		filepath.Join(dir, "nested/run2/c_S3.fq.gz"),
	}, got)
}

func TestReadFilesNotDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadFiles(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	file := filepath.Join(dir, "x.fastq.gz")
	touch(t, file)
	_, err = ReadFiles(file)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestTrimSuffix(t *testing.T) {
	assert.Equal(t, "S1", TrimSuffix("S1.fastq.gz"))
	assert.Equal(t, "S1", TrimSuffix("S1.fq.gz"))
	assert.Equal(t, "S1.txt", TrimSuffix("S1.txt"))
}
