package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ndisidore/collada/pkg/slogctx"
)

// Plain emits file events as slog records. The slog handler
// (pretty/json/text) decides how to render.
type Plain struct {
	wg sync.WaitGroup
}

// Start is a no-op for Plain.
func (*Plain) Start(_ context.Context) error { return nil }

// Attach spawns a goroutine that logs the events of one file.
func (p *Plain) Attach(ctx context.Context, name string, ch <-chan Event) error {
	p.wg.Go(func() {
		consume(ctx, ch, func(ev Event) { logEvent(ctx, slogctx.FromContext(ctx), name, ev) })
	})
	return nil
}

// Seal is a no-op for Plain.
func (*Plain) Seal() {}

// Wait blocks until all attached files finish.
func (p *Plain) Wait() error {
	p.wg.Wait()
	return nil
}

// consume hands every event on ch to fn. On cancellation it keeps draining
// ch so the sender can finish and close it.
func consume(ctx context.Context, ch <-chan Event, fn func(Event)) {
	for {
		select {
		case <-ctx.Done():
			//revive:disable-next-line:empty-block // draining
			for range ch {
			}
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fn(ev)
		}
	}
}

func logEvent(ctx context.Context, log *slog.Logger, name string, ev Event) {
	attrs := []slog.Attr{
		slog.String("file", name),
		slog.String("event", "file."+ev.Status.String()),
	}

	switch ev.Status {
	case StatusParsing:
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("[%s] parsing", name), attrs...)
	case StatusDone, StatusCached:
		attrs = append(attrs, slog.Int("ids", ev.IDs), slog.Duration("duration", ev.Duration))
		verb := "valid"
		if ev.Status == StatusCached {
			verb = "cached"
		}
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf("[%s] %s (%d ids)", name, verb, ev.IDs), attrs...)
	case StatusFailed:
		msg := "unknown error"
		if ev.Err != nil {
			msg = ev.Err.Error()
		}
		attrs = append(attrs, slog.String("error", msg))
		//nolint:sloglint // dynamic msg encodes user-facing formatted output
		log.LogAttrs(ctx, slog.LevelError, fmt.Sprintf("[%s] FAIL %s", name, msg), attrs...)
	default:
	}
}
