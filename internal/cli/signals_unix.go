//go:build !windows

package cli

import (
	"os"
	"syscall"
)

var (
	cancelSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	pauseSignals  = []os.Signal{syscall.SIGUSR1}
)
