package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvs-project/fcp/internal/gate"
	"github.com/jvs-project/fcp/pkg/model"
)

// gateControl drives a real gate in place of an engine.
type gateControl struct{ g *gate.Gate }

func (c gateControl) Pause()                 { c.g.Pause() }
func (c gateControl) Resume()                { c.g.Resume() }
func (c gateControl) RequestCancel()         { c.g.Cancel() }
func (c gateControl) State() model.GateState { return c.g.State() }

func TestHandleSignal_Interrupt(t *testing.T) {
	c := gateControl{gate.New()}
	handleSignal(c, os.Interrupt, nil)
	assert.Equal(t, model.GateCanceled, c.State())
}

func TestWatchSignals_Stop(t *testing.T) {
	c := gateControl{gate.New()}
	stop := watchSignals(c, nil)
	stop()
	assert.Equal(t, model.GateRunning, c.State())
}
