package contention

import (
	"sync"
	"sync/atomic"
)

// Counter is a shared integer that many goroutines increment.
type Counter interface {
	Inc()
	Load() int64
}

// AtomicCounter increments with a single atomic read-modify-write.
type AtomicCounter struct {
	n atomic.Int64
}

func (c *AtomicCounter) Inc() { c.n.Add(1) }

func (c *AtomicCounter) Load() int64 { return c.n.Load() }

// MutexCounter guards a plain integer with a mutex held for one increment only.
type MutexCounter struct {
	mu sync.Mutex
	n  int64
}

func (c *MutexCounter) Inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *MutexCounter) Load() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
