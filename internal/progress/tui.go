package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI renders batch progress using a bubbletea interactive terminal display.
type TUI struct {
	Boring bool // use ASCII icons instead of emoji

	opts []tea.ProgramOption // extra program options, used by tests

	mu       sync.Mutex
	prog     *tea.Program
	done     chan error
	forward  sync.WaitGroup
	sealOnce sync.Once
}

// Start launches the bubbletea program. Calling Start again is a no-op.
func (t *TUI) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prog != nil {
		return nil
	}

	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, t.opts...)
	t.prog = tea.NewProgram(newModel(t.Boring), opts...)
	t.done = make(chan error, 1)
	go func() {
		_, err := t.prog.Run()
		t.done <- err
	}()
	return nil
}

// Attach adds a file row and forwards its events into the event loop.
func (t *TUI) Attach(ctx context.Context, name string, ch <-chan Event) error {
	prog := t.program()
	if prog == nil {
		return ErrNotStarted
	}
	prog.Send(fileAddedMsg{name: name})
	t.forward.Go(func() {
		consume(ctx, ch, func(ev Event) { prog.Send(fileEventMsg{name: name, event: ev}) })
	})
	return nil
}

// Seal tells the program to exit once every attached stream is drained.
// It is safe to call more than once, and before Start.
func (t *TUI) Seal() {
	prog := t.program()
	if prog == nil {
		return
	}
	t.sealOnce.Do(func() {
		go func() {
			t.forward.Wait()
			prog.Send(sealedMsg{})
		}()
	})
}

// Wait blocks until the program exits.
func (t *TUI) Wait() error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return ErrNotStarted
	}
	if err := <-done; err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func (t *TUI) program() *tea.Program {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prog
}
