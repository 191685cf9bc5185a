package cli

import (
	"os"
	"os/signal"
	"slices"

	"github.com/jvs-project/fcp/pkg/logging"
	"github.com/jvs-project/fcp/pkg/model"
)

// copyControl is the part of the engine driven by process signals.
type copyControl interface {
	Pause()
	Resume()
	RequestCancel()
	State() model.GateState
}

// watchSignals cancels c on an interrupt and toggles pause on a pause
// signal, calling onPause with the new state. The returned func stops
// watching.
func watchSignals(c copyControl, onPause func(paused bool)) (stop func()) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, append(slices.Clone(cancelSignals), pauseSignals...)...)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigs:
				handleSignal(c, sig, onPause)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func handleSignal(c copyControl, sig os.Signal, onPause func(bool)) {
	if slices.Contains(pauseSignals, sig) {
		switch c.State() {
		case model.GateRunning:
			c.Pause()
		case model.GatePaused:
			c.Resume()
		default:
			return
		}
		paused := c.State() == model.GatePaused
		logging.Info("pause toggled by signal", map[string]any{"paused": paused})
		if onPause != nil {
			onPause(paused)
		}
		return
	}
	logging.Info("cancel requested by signal", map[string]any{"signal": sig.String()})
	c.RequestCancel()
}
