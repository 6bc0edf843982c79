package progress

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndisidore/collada/pkg/slogctx"
)

func TestPlain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		events       []Event
		wantLogs     []string
		wantLogCount map[string]int
		wantEmpty    bool
	}{
		{
			name: "parsed then valid",
			events: []Event{
				{Status: StatusParsing},
				{Status: StatusDone, IDs: 12, Duration: 40 * time.Millisecond},
			},
			wantLogs: []string{"[scene.dae] parsing", "[scene.dae] valid (12 ids)", "event=file.done", "duration=40ms"},
		},
		{
			name:     "cached",
			events:   []Event{{Status: StatusCached, IDs: 3}},
			wantLogs: []string{"[scene.dae] cached (3 ids)", "event=file.cached"},
		},
		{
			name:     "failure",
			events:   []Event{{Status: StatusFailed, Err: errors.New("COLLADA: missing required child")}},
			wantLogs: []string{"level=ERROR", "FAIL COLLADA: missing required child"},
		},
		{
			name:         "failure without error",
			events:       []Event{{Status: StatusFailed}},
			wantLogCount: map[string]int{"unknown error": 2},
		},
		{
			name:      "pending is silent",
			events:    []Event{{Status: StatusPending}},
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			ctx := slogctx.ContextWithLogger(context.Background(), log)

			ch := make(chan Event, len(tt.events))
			for _, ev := range tt.events {
				ch <- ev
			}
			close(ch)

			p := &Plain{}
			require.NoError(t, p.Start(ctx))
			require.NoError(t, p.Attach(ctx, "scene.dae", ch))
			p.Seal()
			require.NoError(t, p.Wait())

			output := buf.String()
			if tt.wantEmpty {
				assert.Empty(t, output)
			}
			for _, want := range tt.wantLogs {
				assert.Contains(t, output, want)
			}
			for substr, count := range tt.wantLogCount {
				assert.Equal(t, count, strings.Count(output, substr), "occurrences of %q", substr)
			}
		})
	}
}

func TestPlainDrainsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan Event)
	p := &Plain{}
	require.NoError(t, p.Attach(ctx, "late.dae", ch))

	// The sender must never block, even though the display stopped rendering.
	ch <- Event{Status: StatusParsing}
	close(ch)
	require.NoError(t, p.Wait())
}

func TestQuiet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := slogctx.ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	ch := make(chan Event, 2)
	ch <- Event{Status: StatusParsing}
	ch <- Event{Status: StatusFailed, Err: errors.New("bad")}
	close(ch)

	q := &Quiet{}
	require.NoError(t, q.Start(ctx))
	require.NoError(t, q.Attach(ctx, "a.dae", ch))
	q.Seal()
	require.NoError(t, q.Wait())
	assert.Empty(t, buf.String())
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusParsing, "parsing"},
		{StatusDone, "done"},
		{StatusCached, "cached"},
		{StatusFailed, "failed"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}
