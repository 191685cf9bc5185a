package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/jvs-project/fcp/internal/gate"
	"github.com/jvs-project/fcp/pkg/errclass"
	"github.com/jvs-project/fcp/pkg/fsutil"
	"github.com/jvs-project/fcp/pkg/logging"
	"github.com/jvs-project/fcp/pkg/metrics"
	"github.com/jvs-project/fcp/pkg/model"
	"github.com/jvs-project/fcp/pkg/pathutil"
	"github.com/jvs-project/fcp/pkg/progress"
)

// CopyEngine copies a single file in chunks under the control of a
// pause/cancel gate. An engine serves one copy; create a new one per file.
//
// Pause, Resume and RequestCancel may be called from any goroutine while
// Run executes. Progress and completion callbacks run on the goroutine
// that called Run.
type CopyEngine struct {
	spec          model.PathSpec
	id            string
	fs            afero.Fs
	gate          *gate.Gate
	chunkSize     int
	resolver      ConflictResolver
	sync          bool
	preserveTimes bool
	baseLogger    *logging.Logger
	log           *logging.Logger
	metrics       *metrics.Registry

	mu         sync.Mutex
	onProgress []progress.Callback
	onComplete []func(model.Result)

	running atomic.Bool
}

// NewCopyEngine creates an engine for spec.
func NewCopyEngine(spec model.PathSpec, opts ...Option) *CopyEngine {
	e := &CopyEngine{
		spec:      spec,
		id:        uuid.NewString(),
		fs:        afero.NewOsFs(),
		gate:      gate.New(),
		chunkSize: DefaultChunkSize,
		resolver:  Abandon,
		sync:      true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.baseLogger == nil {
		e.baseLogger = logging.Global()
	}
	e.log = e.baseLogger.WithFields(map[string]any{
		"copy_id": e.id,
		"from":    spec.From,
		"to":      spec.To,
	})
	return e
}

// ID returns the identifier used in this engine's log entries.
func (e *CopyEngine) ID() string {
	return e.id
}

// Spec returns the paths this engine copies.
func (e *CopyEngine) Spec() model.PathSpec {
	return e.spec
}

// Pause suspends the copy before its next write.
func (e *CopyEngine) Pause() {
	if e.gate.Pause() {
		e.log.Info("copy paused")
	}
}

// Resume continues a paused copy.
func (e *CopyEngine) Resume() {
	if e.gate.Resume() {
		e.log.Info("copy resumed")
	}
}

// RequestCancel asks the copy to stop at the next chunk boundary.
// It takes effect while paused and while a conflict decision is pending.
func (e *CopyEngine) RequestCancel() {
	if e.gate.Cancel() {
		e.log.Info("copy cancel requested")
	}
}

// State returns the gate state.
func (e *CopyEngine) State() model.GateState {
	return e.gate.State()
}

// OnProgress registers fn to receive completion percentages.
func (e *CopyEngine) OnProgress(fn func(percent float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onProgress = append(e.onProgress, fn)
}

// OnComplete registers fn to receive the result. It is the last callback
// delivered for a Run and fires exactly once per Run.
func (e *CopyEngine) OnComplete(fn func(model.Result)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = append(e.onComplete, fn)
}

// Run performs the copy and blocks until it ends. Canceling ctx has the
// same effect as RequestCancel. The returned Result is also passed to the
// completion callbacks. A Run rejected with E_ENGINE_BUSY only returns its
// Result; the callbacks belong to the copy already in progress.
func (e *CopyEngine) Run(ctx context.Context) model.Result {
	if !e.running.CompareAndSwap(false, true) {
		res := model.Result{
			Spec:   e.spec,
			Status: model.StatusFailed,
			Err:    errclass.ErrEngineBusy.WithMessage("copy already running on this engine"),
		}
		e.log.Warn("run rejected, copy already in progress", nil)
		return res
	}
	defer e.running.Store(false)

	start := time.Now()
	e.log.Info("copy started", map[string]any{"chunk_size": e.chunkSize})

	res := e.run(ctx)
	res.Spec = e.spec
	res.Duration = time.Since(start)

	e.finish(res)
	e.complete(res)
	return res
}

func (e *CopyEngine) run(ctx context.Context) model.Result {
	var res model.Result

	if err := pathutil.ValidatePathSpec(e.spec); err != nil {
		res.Status = model.StatusFailed
		res.Err = err
		return res
	}

	for {
		res.Attempts++
		if e.canceled(ctx) {
			res.Status = model.StatusCanceled
			return res
		}

		err := e.copyOnce(ctx, &res)
		switch {
		case err == nil:
			res.Status = model.StatusCompleted
			return res

		case errors.Is(err, errclass.ErrCanceled):
			res.Status = model.StatusCanceled
			return res

		case errors.Is(err, errclass.ErrDestExists):
			decision, err := e.resolveConflict(ctx)
			if err != nil {
				if errors.Is(err, errclass.ErrCanceled) {
					res.Status = model.StatusCanceled
				} else {
					res.Status = model.StatusFailed
					res.Err = err
				}
				return res
			}
			if decision == model.DecisionAbandon {
				res.Status = model.StatusAbandoned
				return res
			}
			if err := fsutil.RemoveIfExists(e.fs, e.spec.To); err != nil {
				res.Status = model.StatusFailed
				res.Err = errclass.ErrIO.Wrap(err, "remove existing destination")
				return res
			}
			e.log.Info("existing destination removed, retrying", map[string]any{"attempt": res.Attempts})

		default:
			res.Status = model.StatusFailed
			res.Err = err
			return res
		}
	}
}

// copyOnce opens both files and streams the source into a freshly created
// destination. It returns an ErrDestExists class error if the destination
// already exists, before anything is written.
func (e *CopyEngine) copyOnce(ctx context.Context, res *model.Result) error {
	src, err := e.fs.Open(e.spec.From)
	if err != nil {
		return errclass.ErrIO.Wrap(err, "open source")
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errclass.ErrIO.Wrap(err, "stat source")
	}
	if info.IsDir() {
		return errclass.ErrPathInvalid.WithMessagef("source is a directory: %s", e.spec.From)
	}
	res.TotalBytes = info.Size()
	res.BytesCopied = 0

	dst, err := e.fs.OpenFile(e.spec.To, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errclass.ErrDestExists.Wrap(err, e.spec.To)
		}
		return errclass.ErrIO.Wrap(err, "create destination")
	}

	last, err := e.pump(ctx, src, dst, res)
	if err != nil {
		dst.Close()
		if errors.Is(err, errclass.ErrCanceled) {
			res.CleanupErr = e.removePartial()
		}
		return err
	}

	if e.sync {
		if err := dst.Sync(); err != nil {
			dst.Close()
			return errclass.ErrIO.Wrap(err, "sync destination")
		}
	}
	if err := dst.Close(); err != nil {
		return errclass.ErrIO.Wrap(err, "close destination")
	}
	if e.preserveTimes {
		if err := e.fs.Chtimes(e.spec.To, info.ModTime(), info.ModTime()); err != nil {
			return errclass.ErrIO.Wrap(err, "preserve modification time")
		}
	}
	if e.sync {
		if err := fsutil.FsyncDir(e.fs, filepath.Dir(e.spec.To)); err != nil {
			e.log.WarnErr("fsync destination directory", err)
		}
	}

	// Empty or shrunken sources never reach 100 through the loop.
	if last < 100 {
		e.report(100)
	}
	return nil
}

// pump runs the chunk loop and returns the last reported percentage.
func (e *CopyEngine) pump(ctx context.Context, src io.Reader, dst io.Writer, res *model.Result) (float64, error) {
	buf := make([]byte, e.chunkSize)
	last := -1.0

	for {
		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			if e.canceled(ctx) {
				return last, errclass.ErrCanceled.WithMessage("copy canceled")
			}
			if err := e.gate.Wait(ctx); err != nil {
				return last, err
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return last, errclass.ErrIO.Wrap(err, "write destination")
			}
			res.BytesCopied += int64(n)

			if p := progress.Percent(res.BytesCopied, res.TotalBytes); p > last {
				last = p
				e.report(p)
			}
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return last, nil
		default:
			return last, errclass.ErrIO.Wrap(readErr, "read source")
		}
	}
}

func (e *CopyEngine) resolveConflict(ctx context.Context) (model.Decision, error) {
	to := e.spec.To
	if fsutil.SameFile(e.fs, e.spec.From, to) {
		return "", errclass.ErrSameFile.WithMessagef("destination %s is the source file", to)
	}
	if info, err := e.fs.Stat(to); err == nil && info.IsDir() {
		return "", errclass.ErrPathInvalid.WithMessagef("destination is a directory: %s", to)
	}

	e.log.Info("destination exists, asking for decision")

	rctx, cancel := e.cancelContext(ctx)
	defer cancel()

	decision, err := e.resolver.ResolveConflict(rctx, to)
	if e.canceled(ctx) {
		return "", errclass.ErrCanceled.WithMessage("canceled during conflict resolution")
	}
	if err != nil {
		return "", errclass.ErrIO.Wrap(err, "resolve conflict")
	}

	switch decision {
	case model.DecisionOverwrite, model.DecisionAbandon:
	default:
		return "", errclass.ErrIO.WithMessagef("unknown conflict decision %q", decision)
	}

	e.metrics.RecordConflict(decision)
	e.log.Info("conflict resolved", map[string]any{"decision": string(decision)})
	return decision, nil
}

// cancelContext derives a context that is also canceled by RequestCancel.
func (e *CopyEngine) cancelContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-e.gate.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (e *CopyEngine) canceled(ctx context.Context) bool {
	return e.gate.Canceled() || ctx.Err() != nil
}

// removePartial deletes the destination after a cancel. Failure is
// reported, never escalated.
func (e *CopyEngine) removePartial() error {
	if err := fsutil.RemoveIfExists(e.fs, e.spec.To); err != nil {
		e.log.WarnErr("could not remove partial destination", err)
		return errclass.ErrCleanup.Wrap(err, fmt.Sprintf("remove %s", e.spec.To))
	}
	return nil
}

func (e *CopyEngine) report(percent float64) {
	e.mu.Lock()
	subs := e.onProgress
	e.mu.Unlock()
	for _, fn := range subs {
		fn(percent)
	}
}

func (e *CopyEngine) complete(res model.Result) {
	e.mu.Lock()
	subs := e.onComplete
	e.mu.Unlock()
	for _, fn := range subs {
		fn(res)
	}
}

func (e *CopyEngine) finish(res model.Result) {
	e.metrics.RecordCopy(res)

	fields := map[string]any{
		"status":       string(res.Status),
		"bytes_copied": res.BytesCopied,
		"total_bytes":  res.TotalBytes,
		"attempts":     res.Attempts,
		"duration_ms":  res.Duration.Milliseconds(),
	}
	switch {
	case res.Err != nil:
		e.log.ErrorErr("copy failed", res.Err, fields)
	case res.CleanupErr != nil:
		e.log.WarnErr("copy canceled, partial destination left behind", res.CleanupErr, fields)
	default:
		e.log.Info("copy finished", fields)
	}
}
