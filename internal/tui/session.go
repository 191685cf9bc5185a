package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jvs-project/fcp/internal/engine"
	"github.com/jvs-project/fcp/pkg/model"
)

// Session connects one CopyEngine to a bubbletea program.
// A Session is also the engine's ConflictResolver: pass it to
// engine.WithResolver before creating the engine.
type Session struct {
	prompts chan ConflictMsg
}

// NewSession creates a session.
func NewSession() *Session {
	return &Session{prompts: make(chan ConflictMsg)}
}

// ResolveConflict posts a prompt to the UI and waits for the answer or ctx.
func (s *Session) ResolveConflict(ctx context.Context, existingPath string) (model.Decision, error) {
	reply := make(chan model.Decision, 1)
	select {
	case s.prompts <- ConflictMsg{Path: existingPath, Reply: reply}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var _ engine.ConflictResolver = (*Session)(nil)

// Run starts e on a worker goroutine and runs the UI until the copy ends.
// If the UI fails, the copy is canceled and its result is still returned.
func (s *Session) Run(ctx context.Context, e *engine.CopyEngine, label string, opts ...tea.ProgramOption) (model.Result, error) {
	p := tea.NewProgram(NewModel(e, label, s.prompts), opts...)

	e.OnProgress(func(percent float64) { p.Send(ProgressMsg(percent)) })
	e.OnComplete(func(res model.Result) { p.Send(DoneMsg{Result: res}) })

	done := make(chan model.Result, 1)
	go func() { done <- e.Run(ctx) }()

	_, uiErr := p.Run()
	if uiErr != nil {
		e.RequestCancel()
	}
	res := <-done
	close(s.prompts)

	if uiErr != nil {
		return res, fmt.Errorf("run tui: %w", uiErr)
	}
	return res, nil
}
