package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
	assert.DirExists(t, dir)

	path := filepath.Join(dir, "out.csv")
	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("NU_ANO\n"), 0o644))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(dir), "directories are not files")
}
