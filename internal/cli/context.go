package cli

import (
	"fmt"
	"io"

	"golang.org/x/term"

	"github.com/jvs-project/fcp/pkg/color"
)

// Exit codes.
const (
	exitFailed   = 1
	exitCanceled = 130
)

// exitError carries a process exit code out of a command.
// err may be nil when the command already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fmtErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.Error("fcp:"), fmt.Sprintf(format, args...))
}

// fdWriter is satisfied by *os.File.
type fdWriter interface {
	Fd() uintptr
}

func isTerminal(v any) bool {
	f, ok := v.(fdWriter)
	return ok && term.IsTerminal(int(f.Fd()))
}
