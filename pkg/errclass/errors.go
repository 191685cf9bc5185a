package errclass

import "fmt"

// FCPError is a stable, machine-readable error class.
type FCPError struct {
	Code    string
	Message string
	cause   error
}

func (e *FCPError) Error() string {
	switch {
	case e.Message == "" && e.cause == nil:
		return e.Code
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	case e.cause == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
}

// Is matches any FCPError carrying the same Code.
func (e *FCPError) Is(target error) bool {
	t, ok := target.(*FCPError)
	return ok && e.Code == t.Code
}

// Unwrap exposes the underlying cause, if any.
func (e *FCPError) Unwrap() error {
	return e.cause
}

// WithMessage returns a new FCPError with the same Code but a specific message.
func (e *FCPError) WithMessage(msg string) *FCPError {
	return &FCPError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new FCPError with a formatted message.
func (e *FCPError) WithMessagef(format string, args ...any) *FCPError {
	return &FCPError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new FCPError with the same Code that wraps err.
// Both the class and err stay reachable through errors.Is and errors.As.
func (e *FCPError) Wrap(err error, msg string) *FCPError {
	return &FCPError{Code: e.Code, Message: msg, cause: err}
}

// Stable error classes.
var (
	ErrPathInvalid   = &FCPError{Code: "E_PATH_INVALID"}
	ErrSameFile      = &FCPError{Code: "E_SAME_FILE"}
	ErrDestExists    = &FCPError{Code: "E_DEST_EXISTS"}
	ErrIO            = &FCPError{Code: "E_IO"}
	ErrCleanup       = &FCPError{Code: "E_CLEANUP"}
	ErrCanceled      = &FCPError{Code: "E_CANCELED"}
	ErrEngineBusy    = &FCPError{Code: "E_ENGINE_BUSY"}
	ErrConfigInvalid = &FCPError{Code: "E_CONFIG_INVALID"}
	ErrJournalBroken = &FCPError{Code: "E_JOURNAL_BROKEN"}
)
