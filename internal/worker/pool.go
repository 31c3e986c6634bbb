package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Pool runs one Worker per consumer of the group.
type Pool struct {
	workers []*Worker
}

func NewPool(workers ...*Worker) *Pool {
	return &Pool{workers: workers}
}

func (p *Pool) Size() int {
	return len(p.workers)
}

// Run blocks until every worker returned. Context cancellation is not
// reported as an error.
func (p *Pool) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, w := range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	slog.InfoContext(ctx, "worker pool started", "size", len(p.workers))
	wg.Wait()
	return errors.Join(errs...)
}

func (p *Pool) Stop() {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
}
