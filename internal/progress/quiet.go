package progress

import (
	"context"
	"sync"
)

// Quiet suppresses all progress; failures surface only through the
// caller's returned errors.
type Quiet struct {
	wg sync.WaitGroup
}

// Start is a no-op for Quiet.
func (*Quiet) Start(_ context.Context) error { return nil }

// Attach drains ch in the background.
func (q *Quiet) Attach(ctx context.Context, _ string, ch <-chan Event) error {
	q.wg.Go(func() {
		consume(ctx, ch, func(Event) {})
	})
	return nil
}

// Seal is a no-op for Quiet.
func (*Quiet) Seal() {}

// Wait blocks until every attached stream is drained.
func (q *Quiet) Wait() error {
	q.wg.Wait()
	return nil
}
