// Package tui is an interactive terminal control surface for a single copy.
// It renders progress, forwards pause/resume/cancel keys to the engine and
// answers destination conflicts without blocking the copy goroutine's
// cancellation.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jvs-project/fcp/pkg/model"
)

// Controller is the subset of the copy engine the TUI drives.
type Controller interface {
	Pause()
	Resume()
	RequestCancel()
	State() model.GateState
}

// Model is the bubbletea model for one copy.
type Model struct {
	ctl     Controller
	label   string
	prompts <-chan ConflictMsg

	bar  progress.Model
	help help.Model
	keys keyMap

	percent    float64
	paused     bool
	cancelling bool
	prompt     *ConflictMsg
	result     *model.Result
}

// NewModel creates a model driving ctl. Conflict prompts arrive on prompts.
func NewModel(ctl Controller, label string, prompts <-chan ConflictMsg) Model {
	return Model{
		ctl:     ctl,
		label:   label,
		prompts: prompts,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
}

// Result returns the final result once DoneMsg has been received.
func (m Model) Result() (model.Result, bool) {
	if m.result == nil {
		return model.Result{}, false
	}
	return *m.result, true
}

// waitForPrompt blocks until the resolver posts a conflict.
func waitForPrompt(prompts <-chan ConflictMsg) tea.Cmd {
	if prompts == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-prompts
		if !ok {
			return nil
		}
		return msg
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForPrompt(m.prompts)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w > 60 {
			w = 60
		}
		if w > 10 {
			m.bar.Width = w
		}
		m.help.Width = msg.Width
		return m, nil

	case ProgressMsg:
		if p := float64(msg); p > m.percent {
			m.percent = p
		}
		return m, nil

	case ConflictMsg:
		m.prompt = &msg
		return m, nil

	case DoneMsg:
		res := msg.Result
		m.result = &res
		m.prompt = nil
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.result != nil {
		return m, tea.Quit
	}

	if key.Matches(msg, m.keys.Cancel) {
		m.cancelling = true
		m.ctl.RequestCancel()
		if m.prompt != nil {
			// Cancellation unblocks the resolver through its context.
			m.prompt = nil
			return m, waitForPrompt(m.prompts)
		}
		return m, nil
	}

	if m.prompt != nil {
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.answer(model.DecisionOverwrite)
		case key.Matches(msg, m.keys.No):
			return m.answer(model.DecisionAbandon)
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Pause) && !m.cancelling {
		if m.paused {
			m.ctl.Resume()
		} else {
			m.ctl.Pause()
		}
		m.paused = m.ctl.State() == model.GatePaused
	}
	return m, nil
}

func (m Model) answer(d model.Decision) (tea.Model, tea.Cmd) {
	m.prompt.Reply <- d
	m.prompt = nil
	// An overwrite retries the copy, which may conflict again.
	return m, waitForPrompt(m.prompts)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Copying "+m.label) + "\n")
	b.WriteString(m.bar.ViewAs(m.percent/100) + "\n")

	switch {
	case m.result != nil:
		b.WriteString(renderResult(*m.result) + "\n")
		return b.String()
	case m.prompt != nil:
		b.WriteString(PromptStyle.Render(fmt.Sprintf("%s already exists.\nOverwrite it?", PathStyle.Render(m.prompt.Path))) + "\n")
		b.WriteString(m.help.View(promptKeys{m.keys}) + "\n")
		return b.String()
	case m.cancelling:
		b.WriteString(DimStyle.Render("cancelling...") + "\n")
	case m.paused:
		b.WriteString(PausedStyle.Render("paused") + "\n")
	}

	b.WriteString(m.help.View(copyKeys{m.keys}) + "\n")
	return b.String()
}

func renderResult(res model.Result) string {
	switch res.Status {
	case model.StatusCompleted:
		return SuccessStyle.Render(fmt.Sprintf("done: %d bytes copied", res.BytesCopied))
	case model.StatusAbandoned:
		return DimStyle.Render("skipped: destination kept")
	case model.StatusCanceled:
		if res.CleanupErr != nil {
			return ErrorStyle.Render("canceled; partial file left: " + res.CleanupErr.Error())
		}
		return DimStyle.Render("canceled")
	default:
		msg := "failed"
		if res.Err != nil {
			msg += ": " + res.Err.Error()
		}
		return ErrorStyle.Render(msg)
	}
}
