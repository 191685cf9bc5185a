package model

import "time"

// PathSpec names the source and destination of a single file copy.
type PathSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Status is the terminal state of a copy operation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusAbandoned Status = "abandoned"
	StatusFailed    Status = "failed"
)

// Decision is the answer to a destination conflict.
type Decision string

const (
	DecisionOverwrite Decision = "overwrite"
	DecisionAbandon   Decision = "abandon"
)

// GateState is the pause/cancel state observed by a running copy.
type GateState string

const (
	GateRunning  GateState = "running"
	GatePaused   GateState = "paused"
	GateCanceled GateState = "canceled"
)

// Result describes how a copy ended.
// Err is set only for StatusFailed. CleanupErr is set when a canceled copy
// could not remove its partial destination.
type Result struct {
	Spec        PathSpec      `json:"spec"`
	Status      Status        `json:"status"`
	BytesCopied int64         `json:"bytes_copied"`
	TotalBytes  int64         `json:"total_bytes"`
	Attempts    int           `json:"attempts"`
	Duration    time.Duration `json:"duration_ns"`
	Err         error         `json:"-"`
	CleanupErr  error         `json:"-"`
}

// OK reports whether the copy ended without a failure.
// Cancellation and abandonment are not failures.
func (r Result) OK() bool {
	return r.Status != StatusFailed
}
