package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.nya")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	src, err := ReadSource(path)
	require.NoError(t, err)
	require.Equal(t, "fn main() {}", src)
}

func TestReadSourceMissing(t *testing.T) {
	_, err := ReadSource(filepath.Join(t.TempDir(), "missing.nya"))
	require.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ll")
	require.NoError(t, WriteOutput(path, "; module"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "; module", string(data))
}
