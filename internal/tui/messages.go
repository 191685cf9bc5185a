package tui

import "github.com/jvs-project/fcp/pkg/model"

// Message types for the TUI

// ProgressMsg carries a completion percentage from the engine.
type ProgressMsg float64

// ConflictMsg asks the user what to do with an existing destination.
// The answer is sent on Reply, which must be buffered.
type ConflictMsg struct {
	Path  string
	Reply chan<- model.Decision
}

// DoneMsg signals that the copy has ended.
type DoneMsg struct {
	Result model.Result
}
