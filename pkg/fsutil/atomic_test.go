package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvs-project/fcp/pkg/fsutil"
)

func TestAtomicWrite_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("chunk_size: 1024\n")

	require.NoError(t, fsutil.AtomicWrite(afero.NewOsFs(), path, data, 0600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAtomicWrite_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	require.NoError(t, fsutil.AtomicWrite(afero.NewOsFs(), path, []byte("new"), 0644))

	content, _ := os.ReadFile(path)
	assert.Equal(t, "new", string(content))
}

func TestAtomicWrite_NoTmpLeftOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, fsutil.AtomicWrite(afero.NewOsFs(), path, []byte("x"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.yaml", entries[0].Name())
}

func TestAtomicWrite_MissingDirFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "config.yaml")
	assert.Error(t, fsutil.AtomicWrite(afero.NewOsFs(), path, []byte("x"), 0644))
}

func TestAtomicWrite_MemFs(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afs.MkdirAll("/etc/fcp", 0755))
	require.NoError(t, fsutil.AtomicWrite(afs, "/etc/fcp/config.yaml", []byte("mem"), 0644))

	content, err := afero.ReadFile(afs, "/etc/fcp/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mem", string(content))
}

func TestRemoveIfExists(t *testing.T) {
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "/partial.bin", []byte("half"), 0644))

	require.NoError(t, fsutil.RemoveIfExists(afs, "/partial.bin"))
	exists, err := afero.Exists(afs, "/partial.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	// second removal is a no-op
	assert.NoError(t, fsutil.RemoveIfExists(afs, "/partial.bin"))
}

func TestRemoveIfExists_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/keep.bin", []byte("x"), 0644))

	err := fsutil.RemoveIfExists(afero.NewReadOnlyFs(base), "/keep.bin")
	assert.Error(t, err)
}

func TestFsyncDir(t *testing.T) {
	assert.NoError(t, fsutil.FsyncDir(afero.NewOsFs(), t.TempDir()))
	assert.Error(t, fsutil.FsyncDir(afero.NewOsFs(), filepath.Join(t.TempDir(), "missing")))
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	link := filepath.Join(dir, "link")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))
	require.NoError(t, os.Symlink(a, link))

	afs := afero.NewOsFs()
	assert.True(t, fsutil.SameFile(afs, a, link))
	assert.False(t, fsutil.SameFile(afs, a, b))
	assert.False(t, fsutil.SameFile(afs, a, filepath.Join(dir, "missing")))
}
