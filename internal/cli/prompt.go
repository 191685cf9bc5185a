package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jvs-project/fcp/internal/engine"
	"github.com/jvs-project/fcp/pkg/model"
)

// promptResolver asks on out and reads the answer from in.
// Anything but y or yes keeps the existing destination.
type promptResolver struct {
	in  io.Reader
	out io.Writer

	once      sync.Once
	answers   chan string
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

var _ engine.ConflictResolver = (*promptResolver)(nil)

func (p *promptResolver) ResolveConflict(ctx context.Context, existingPath string) (model.Decision, error) {
	p.once.Do(p.startReader)

	if p.answers == nil {
		return model.DecisionAbandon, nil
	}
	select {
	case <-p.done:
		return model.DecisionAbandon, nil
	default:
	}

	fmt.Fprintf(p.out, "\n%s already exists. Overwrite? [y/N] ", existingPath)
	select {
	case line, ok := <-p.answers:
		if !ok {
			return model.DecisionAbandon, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return model.DecisionOverwrite, nil
		}
		return model.DecisionAbandon, nil
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	}
}

// Close stops the background reader once it has read its current line.
// Prompts after Close keep the existing destination.
func (p *promptResolver) Close() {
	p.once.Do(func() {})
	p.closeOnce.Do(func() {
		if p.done != nil {
			close(p.done)
		}
	})
}

// startReader reads lines in the background so a blocked read never
// holds up cancellation. The channel is closed at EOF or after Close.
func (p *promptResolver) startReader() {
	p.answers = make(chan string)
	p.done = make(chan struct{})
	p.stopped = make(chan struct{})
	go func() {
		defer close(p.stopped)
		defer close(p.answers)
		sc := bufio.NewScanner(p.in)
		for sc.Scan() {
			select {
			case p.answers <- sc.Text():
			case <-p.done:
				return
			}
		}
	}()
}
