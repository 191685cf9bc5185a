// Package color provides terminal color output support for fcp.
// It respects the NO_COLOR environment variable (https://no-color.org/).
package color

import (
	"fmt"
	"os"
	"sync/atomic"
)

var state struct {
	enabled    atomic.Bool
	overridden atomic.Bool
}

// Init decides whether to color output. isTTY reports whether the output
// is a terminal. NO_COLOR, TERM=dumb and noColorFlag all disable color.
// An earlier Enable or Disable call takes precedence.
func Init(noColorFlag, isTTY bool) {
	if state.overridden.Load() {
		return
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	on := isTTY && !noColor && !noColorFlag && os.Getenv("TERM") != "dumb"
	state.enabled.Store(on)
}

// Enabled returns true if color output is enabled.
func Enabled() bool {
	return state.enabled.Load()
}

// Disable turns off color output.
func Disable() {
	state.overridden.Store(true)
	state.enabled.Store(false)
}

// Enable turns on color output.
func Enable() {
	state.overridden.Store(true)
	state.enabled.Store(true)
}

// ANSI codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	DimCode = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
)

func wrap(code, s string) string {
	if !Enabled() {
		return s
	}
	return code + s + Reset
}

// Success formats a success message in green.
func Success(s string) string { return wrap(Green, s) }

// Successf formats a success message with printf-style arguments.
func Successf(format string, args ...any) string { return Success(fmt.Sprintf(format, args...)) }

// Error formats an error message in bold red.
func Error(s string) string { return wrap(Bold+Red, s) }

// Warning formats a warning message in yellow.
func Warning(s string) string { return wrap(Yellow, s) }

// Warningf formats a warning message with printf-style arguments.
func Warningf(format string, args ...any) string { return Warning(fmt.Sprintf(format, args...)) }

// Path formats a file path in cyan.
func Path(s string) string { return wrap(Cyan, s) }

// Dim formats secondary information.
func Dim(s string) string { return wrap(DimCode, s) }

// Code formats a command string.
func Code(s string) string { return wrap(Bold+DimCode, s) }
