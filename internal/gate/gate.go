// Package gate implements the pause/cancel gate a copy loop waits on.
//
// A Gate is in one of three states: running, paused or canceled. Running and
// paused toggle freely; canceled is terminal. Wait blocks while the gate is
// paused and returns as soon as it is running again or canceled, so a cancel
// issued during a pause always unblocks the waiter.
package gate

import (
	"context"
	"sync"

	"github.com/jvs-project/fcp/pkg/errclass"
	"github.com/jvs-project/fcp/pkg/model"
)

// Gate is safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	state    model.GateState
	changed  chan struct{} // closed and replaced on every transition
	canceled chan struct{} // closed once on cancel
}

// New returns a gate in the running state.
func New() *Gate {
	return &Gate{
		state:    model.GateRunning,
		changed:  make(chan struct{}),
		canceled: make(chan struct{}),
	}
}

// transition moves from one of want to to. Reports whether the state changed.
func (g *Gate) transition(to model.GateState, want ...model.GateState) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	ok := false
	for _, w := range want {
		if g.state == w {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}

	g.state = to
	close(g.changed)
	g.changed = make(chan struct{})
	if to == model.GateCanceled {
		close(g.canceled)
	}
	return true
}

// Pause blocks future Wait calls until Resume or Cancel.
// No effect unless the gate is running.
func (g *Gate) Pause() bool {
	return g.transition(model.GatePaused, model.GateRunning)
}

// Resume releases waiters blocked by Pause.
// No effect unless the gate is paused.
func (g *Gate) Resume() bool {
	return g.transition(model.GateRunning, model.GatePaused)
}

// Cancel moves the gate to its terminal canceled state.
func (g *Gate) Cancel() bool {
	return g.transition(model.GateCanceled, model.GateRunning, model.GatePaused)
}

// State returns the current state.
func (g *Gate) State() model.GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Canceled reports whether Cancel has been called.
func (g *Gate) Canceled() bool {
	return g.State() == model.GateCanceled
}

// Done returns a channel closed when the gate is canceled.
func (g *Gate) Done() <-chan struct{} {
	return g.canceled
}

// Wait returns nil once the gate is running. It returns an ErrCanceled
// class error if the gate is canceled or ctx is done first.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		state, changed := g.state, g.changed
		g.mu.Unlock()

		switch state {
		case model.GateRunning:
			if err := ctx.Err(); err != nil {
				return errclass.ErrCanceled.Wrap(err, "")
			}
			return nil
		case model.GateCanceled:
			return errclass.ErrCanceled.WithMessage("copy canceled")
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return errclass.ErrCanceled.Wrap(ctx.Err(), "")
		}
	}
}
