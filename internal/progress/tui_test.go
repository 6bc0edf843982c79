package progress

import (
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

// newTestTUI returns a TUI configured for headless testing.
func newTestTUI() *TUI {
	return &TUI{
		Boring: true,
		opts: []tea.ProgramOption{
			tea.WithInput(nil),
			tea.WithOutput(io.Discard),
		},
	}
}

// requireWaitReturns asserts that tui.Wait() completes within a timeout.
func requireWaitReturns(t *testing.T, tui *TUI) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- tui.Wait() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Wait() did not return within timeout")
	}
}

func TestTUI(t *testing.T) {
	t.Parallel()

	t.Run("lifecycle", func(t *testing.T) {
		t.Parallel()

		t.Run("seal without attach exits cleanly", func(t *testing.T) {
			t.Parallel()

			tui := newTestTUI()
			require.NoError(t, tui.Start(t.Context()))
			tui.Seal()
			requireWaitReturns(t, tui)
		})

		t.Run("seal after files finish exits cleanly", func(t *testing.T) {
			t.Parallel()

			tui := newTestTUI()
			require.NoError(t, tui.Start(t.Context()))

			for _, name := range []string{"a.dae", "b.dae"} {
				ch := make(chan Event, 2)
				require.NoError(t, tui.Attach(t.Context(), name, ch))
				ch <- Event{Status: StatusParsing}
				ch <- Event{Status: StatusDone, IDs: 1}
				close(ch)
			}

			tui.Seal()
			requireWaitReturns(t, tui)
		})

		t.Run("attach before start returns error", func(t *testing.T) {
			t.Parallel()

			tui := newTestTUI()
			err := tui.Attach(t.Context(), "a.dae", make(chan Event))
			require.ErrorIs(t, err, ErrNotStarted)
		})

		t.Run("wait before start returns error", func(t *testing.T) {
			t.Parallel()

			tui := newTestTUI()
			require.ErrorIs(t, tui.Wait(), ErrNotStarted)
		})

		t.Run("seal before start does not panic", func(t *testing.T) {
			t.Parallel()

			newTestTUI().Seal()
		})
	})

	t.Run("idempotency", func(t *testing.T) {
		t.Parallel()

		t.Run("double seal", func(t *testing.T) {
			t.Parallel()

			tui := newTestTUI()
			require.NoError(t, tui.Start(t.Context()))
			tui.Seal()
			tui.Seal()
			requireWaitReturns(t, tui)
		})

		t.Run("double start", func(t *testing.T) {
			t.Parallel()

			tui := newTestTUI()
			require.NoError(t, tui.Start(t.Context()))
			require.NoError(t, tui.Start(t.Context()))
			tui.Seal()
			requireWaitReturns(t, tui)
		})
	})
}
