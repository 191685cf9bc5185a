package engine

import (
	"context"

	"github.com/spf13/afero"

	"github.com/jvs-project/fcp/pkg/logging"
	"github.com/jvs-project/fcp/pkg/metrics"
	"github.com/jvs-project/fcp/pkg/model"
)

// DefaultChunkSize is the number of bytes moved per read/write cycle.
const DefaultChunkSize = 1 << 20

// ConflictResolver decides what to do when the destination already exists.
// ResolveConflict may block until a decision is available; ctx is canceled
// when the copy is canceled, and implementations should return promptly then.
type ConflictResolver interface {
	ResolveConflict(ctx context.Context, existingPath string) (model.Decision, error)
}

// ResolverFunc adapts a function to ConflictResolver.
type ResolverFunc func(ctx context.Context, existingPath string) (model.Decision, error)

// ResolveConflict calls f.
func (f ResolverFunc) ResolveConflict(ctx context.Context, existingPath string) (model.Decision, error) {
	return f(ctx, existingPath)
}

// Always returns a resolver that answers every conflict with d.
func Always(d model.Decision) ConflictResolver {
	return ResolverFunc(func(context.Context, string) (model.Decision, error) {
		return d, nil
	})
}

var (
	// Overwrite replaces an existing destination.
	Overwrite = Always(model.DecisionOverwrite)
	// Abandon leaves an existing destination untouched and stops.
	Abandon = Always(model.DecisionAbandon)
)

// Option configures a CopyEngine.
type Option func(*CopyEngine)

// WithFs sets the filesystem both paths are resolved on. Defaults to the OS.
func WithFs(fs afero.Fs) Option {
	return func(e *CopyEngine) { e.fs = fs }
}

// WithChunkSize sets the read/write block size. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(e *CopyEngine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithResolver sets the conflict resolver. Defaults to Abandon.
func WithResolver(r ConflictResolver) Option {
	return func(e *CopyEngine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLogger sets the base logger. Defaults to the global logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *CopyEngine) {
		if l != nil {
			e.baseLogger = l
		}
	}
}

// WithMetrics records outcomes on r. Nil disables metrics.
func WithMetrics(r *metrics.Registry) Option {
	return func(e *CopyEngine) { e.metrics = r }
}

// WithSync controls fsync of the destination before it is closed. Defaults to true.
func WithSync(sync bool) Option {
	return func(e *CopyEngine) { e.sync = sync }
}

// WithPreserveTimes copies the source modification time to the destination.
func WithPreserveTimes(preserve bool) Option {
	return func(e *CopyEngine) { e.preserveTimes = preserve }
}
