package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"yamo/treasury/internal/fileutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("test"), 0600))

	assert.True(t, fileutils.FileExists(testFile))
	assert.False(t, fileutils.FileExists(filepath.Join(tmpDir, "nonexistent.txt")))
	assert.False(t, fileutils.FileExists(tmpDir))
}

func TestDirectoryExists(t *testing.T) {
	tmpDir := t.TempDir()

	assert.True(t, fileutils.DirectoryExists(tmpDir))
	assert.False(t, fileutils.DirectoryExists(filepath.Join(tmpDir, "nonexistent")))

	testFile := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("test"), 0600))
	assert.False(t, fileutils.DirectoryExists(testFile))
}

func TestEnsureDirectoryExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fileutils.EnsureDirectoryExists(dir))
	assert.True(t, fileutils.DirectoryExists(dir))
	// existing directory is fine
	assert.NoError(t, fileutils.EnsureDirectoryExists(dir))
}

func TestCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "clients.csv")

	f, err := fileutils.CreateFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("id\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test file
	require.NoError(t, err)
	assert.Equal(t, "id\n", string(data))

	// a directory cannot be created over a file
	_, err = fileutils.CreateFile(filepath.Join(path, "nested.csv"))
	assert.Error(t, err)
}
