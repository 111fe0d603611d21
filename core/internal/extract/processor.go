package extract

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Processor runs per-member work sequentially or on a bounded worker pool.
type Processor struct {
	workers int
}

// NewProcessor creates a Processor. Values below 2 run sequentially.
func NewProcessor(workers int) *Processor {
	return &Processor{workers: max(workers, 1)}
}

// Workers returns the effective worker count.
func (p *Processor) Workers() int {
	return p.workers
}

// Run calls work for each index in [0, n). After each call returns, report
// (if non-nil) receives the finished index and the number of completed
// items; report calls are serialized. Once ctx is done no further items
// start; items already running are finished. Run returns ctx.Err().
func (p *Processor) Run(ctx context.Context, n int, work func(i int), report func(i, done int)) error {
	var (
		mu   sync.Mutex
		done int
	)
	finish := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if report != nil {
			report(i, done)
		}
	}

	if p.workers == 1 {
		for i := range n {
			if ctx.Err() != nil {
				break
			}
			work(i)
			finish(i)
		}
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			work(i)
			finish(i)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // only cancellation is reported, via ctx
	return ctx.Err()
}
