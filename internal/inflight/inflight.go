package inflight

import (
	"context"
	"net/http"
	"sync"
)

// Counter tracks invocations that shutdown waits for. The zero value is
// ready to use.
type Counter struct {
	mu    sync.Mutex
	count int64
	idle  chan struct{}
}

// Inc marks one more request in flight.
func (c *Counter) Inc() {
	c.mu.Lock()
	if c.count == 0 {
		c.idle = make(chan struct{})
	}
	c.count++
	c.mu.Unlock()
}

// Dec marks a request as finished. Extra calls are ignored.
func (c *Counter) Dec() {
	c.mu.Lock()
	if c.count > 0 {
		c.count--
		if c.count == 0 && c.idle != nil {
			close(c.idle)
			c.idle = nil
		}
	}
	c.mu.Unlock()
}

// Load returns the current in-flight count.
func (c *Counter) Load() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// WaitForZero blocks until no request is in flight or ctx is done, and
// reports whether the counter reached zero.
func (c *Counter) WaitForZero(ctx context.Context) bool {
	c.mu.Lock()
	if c.count == 0 {
		c.mu.Unlock()
		return true
	}
	ch := c.idle
	c.mu.Unlock()
	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// Middleware counts requests for the duration of next.
func (c *Counter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Inc()
			defer c.Dec()
			next.ServeHTTP(w, r)
		})
	}
}
