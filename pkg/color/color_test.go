package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetState(t *testing.T) {
	t.Helper()
	enabled, overridden := state.enabled.Load(), state.overridden.Load()
	t.Cleanup(func() {
		state.enabled.Store(enabled)
		state.overridden.Store(overridden)
	})
	state.overridden.Store(false)
}

func TestInit(t *testing.T) {
	resetState(t)
	t.Setenv("TERM", "xterm-256color")

	Init(false, true)
	assert.True(t, Enabled())

	Init(false, false)
	assert.False(t, Enabled(), "not a terminal")

	Init(true, true)
	assert.False(t, Enabled(), "--no-color")
}

func TestInit_Environment(t *testing.T) {
	resetState(t)

	t.Setenv("TERM", "dumb")
	Init(false, true)
	assert.False(t, Enabled())

	t.Setenv("TERM", "xterm")
	t.Setenv("NO_COLOR", "")
	Init(false, true)
	assert.False(t, Enabled(), "NO_COLOR disables even when empty")
}

func TestOverrideWins(t *testing.T) {
	resetState(t)

	Enable()
	Init(true, false)
	assert.True(t, Enabled())

	Disable()
	Init(false, true)
	assert.False(t, Enabled())
}

func TestFormatting(t *testing.T) {
	resetState(t)

	Enable()
	assert.Equal(t, Green+"ok"+Reset, Success("ok"))
	assert.Equal(t, Bold+Red+"bad"+Reset, Error("bad"))
	assert.Equal(t, Yellow+"3 left"+Reset, Warningf("%d left", 3))
	assert.Equal(t, Cyan+"/tmp/a"+Reset, Path("/tmp/a"))
	assert.Equal(t, DimCode+"x"+Reset, Dim("x"))
	assert.Equal(t, Bold+DimCode+"fcp history"+Reset, Code("fcp history"))

	Disable()
	assert.Equal(t, "ok", Success("ok"))
	assert.Equal(t, "done 5", Successf("done %d", 5))
	assert.Equal(t, "bad", Error("bad"))
	assert.Equal(t, "/tmp/a", Path("/tmp/a"))
}
