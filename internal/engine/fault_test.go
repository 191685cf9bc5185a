package engine_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvs-project/fcp/internal/engine"
	"github.com/jvs-project/fcp/pkg/errclass"
	"github.com/jvs-project/fcp/pkg/model"
)

var (
	errDiskFull   = errors.New("no space left on device")
	errRemoveBusy = errors.New("device or resource busy")
	errReadFault  = errors.New("input/output error")
)

// faultFs injects failures into an otherwise working filesystem.
type faultFs struct {
	afero.Fs
	writeBudget int64 // bytes accepted before writes fail; negative disables
	failRemove  bool
	failRead    bool
}

func (f *faultFs) Open(name string) (afero.File, error) {
	file, err := f.Fs.Open(name)
	if err != nil || !f.failRead {
		return file, err
	}
	return &faultFile{File: file, failRead: true, budget: -1}, nil
}

func (f *faultFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&(os.O_WRONLY|os.O_RDWR) == 0 || f.writeBudget < 0 {
		return file, err
	}
	return &faultFile{File: file, budget: f.writeBudget}, nil
}

func (f *faultFs) Remove(name string) error {
	if f.failRemove {
		return &os.PathError{Op: "remove", Path: name, Err: errRemoveBusy}
	}
	return f.Fs.Remove(name)
}

type faultFile struct {
	afero.File
	budget   int64
	failRead bool
}

func (f *faultFile) Read(p []byte) (int, error) {
	if f.failRead {
		return 0, errReadFault
	}
	return f.File.Read(p)
}

func (f *faultFile) Write(p []byte) (int, error) {
	if f.budget >= 0 && int64(len(p)) > f.budget {
		return 0, errDiskFull
	}
	f.budget -= int64(len(p))
	return f.File.Write(p)
}

func TestCopyEngine_WriteFailureLeavesPartialFile(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/src", patterned(20), 0644))
	afs := &faultFs{Fs: base, writeBudget: 8}

	e := newEngine(model.PathSpec{From: "/src", To: "/dst"}, engine.WithFs(afs), engine.WithChunkSize(4))
	var rec recorder
	rec.attach(e)

	res := runWithTimeout(t, context.Background(), e)
	assert.Equal(t, model.StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, errclass.ErrIO)
	assert.ErrorIs(t, res.Err, errDiskFull)
	assert.Equal(t, int64(8), res.BytesCopied)

	content, err := afero.ReadFile(base, "/dst")
	require.NoError(t, err, "partial destination stays after an I/O failure")
	assert.Equal(t, patterned(8), content)

	progress, results, _ := rec.snapshot()
	assert.Equal(t, []float64{20, 40}, progress)
	assert.Len(t, results, 1)
}

func TestCopyEngine_ReadFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/src", []byte("abc"), 0644))
	afs := &faultFs{Fs: base, writeBudget: -1, failRead: true}

	res := runWithTimeout(t, context.Background(),
		newEngine(model.PathSpec{From: "/src", To: "/dst"}, engine.WithFs(afs)))
	assert.Equal(t, model.StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, errclass.ErrIO)
	assert.ErrorIs(t, res.Err, errReadFault)
}

func TestCopyEngine_CleanupFailureIsReportedNotEscalated(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/src", patterned(32), 0644))
	afs := &faultFs{Fs: base, writeBudget: -1, failRemove: true}

	e := newEngine(model.PathSpec{From: "/src", To: "/dst"}, engine.WithFs(afs), engine.WithChunkSize(8))
	var rec recorder
	rec.attach(e)
	e.OnProgress(func(float64) { e.RequestCancel() })

	res := runWithTimeout(t, context.Background(), e)
	assert.Equal(t, model.StatusCanceled, res.Status)
	assert.NoError(t, res.Err)
	require.ErrorIs(t, res.CleanupErr, errclass.ErrCleanup)
	assert.ErrorIs(t, res.CleanupErr, errRemoveBusy)
	assert.True(t, res.OK())

	exists, err := afero.Exists(base, "/dst")
	require.NoError(t, err)
	assert.True(t, exists)

	_, results, _ := rec.snapshot()
	assert.Len(t, results, 1)
}

func TestCopyEngine_OverwriteRemoveFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/src", []byte("new"), 0644))
	require.NoError(t, afero.WriteFile(base, "/dst", []byte("old"), 0644))
	afs := &faultFs{Fs: base, writeBudget: -1, failRemove: true}

	res := runWithTimeout(t, context.Background(),
		newEngine(model.PathSpec{From: "/src", To: "/dst"}, engine.WithFs(afs), engine.WithResolver(engine.Overwrite)))
	assert.Equal(t, model.StatusFailed, res.Status)
	require.ErrorIs(t, res.Err, errclass.ErrIO)

	content, _ := afero.ReadFile(base, "/dst")
	assert.Equal(t, "old", string(content))
}

func TestCopyEngine_ReadOnlyDestination(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/src", []byte("abc"), 0644))

	res := runWithTimeout(t, context.Background(),
		newEngine(model.PathSpec{From: "/src", To: "/dst"}, engine.WithFs(afero.NewReadOnlyFs(base))))
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, errclass.ErrIO)
}
