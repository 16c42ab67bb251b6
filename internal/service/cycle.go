package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// cycle is owned by one load. Stopping it ends its geocoding loop; a new load replaces it.
type cycle struct {
	gen     uint64
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

func newCycle(gen uint64) *cycle {
	return &cycle{gen: gen, done: make(chan struct{})}
}

func (c *cycle) stop() {
	c.once.Do(func() {
		c.stopped.Store(true)
		close(c.done)
	})
}

func (c *cycle) isStopped() bool {
	return c.stopped.Load()
}

// wait sleeps for d and reports whether the cycle may continue.
func (c *cycle) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return !c.isStopped()
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}
