package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Worker is a long-running task that stops when ctx is cancelled.
type Worker interface {
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start runs all workers until ctx is cancelled or one of them fails.
// The first failure cancels the rest and is returned once every worker has exited.
func (m *Manager) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range m.workers {
		g.Go(func() error {
			return w.Start(gctx)
		})
	}
	return g.Wait()
}
