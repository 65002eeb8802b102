// Package shutdown coordinates process teardown through a single shutdown
// request channel.
//
// Both the serving loop and any fatal-error path funnel through one
// Coordinator, so exactly one component decides when cleanup runs and the
// process exits. Registered cleanup functions run once, in reverse
// registration order, whichever of SIGINT, SIGTERM or RequestShutdown fires
// first.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/breezehq/breeze/internal/logger"
)

// Coordinator owns the process-wide shutdown request channel.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	cleanups []func()
	once     sync.Once
}

// New returns a Coordinator whose context is cancelled on SIGINT, SIGTERM or
// a RequestShutdown call.
func New() *Coordinator {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Context returns the context cancelled when shutdown is requested. Long
// running loops should observe it instead of installing their own signal
// handlers.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnShutdown registers a cleanup function. Cleanups run exactly once, in
// reverse registration order, when Wait observes the shutdown request.
func (c *Coordinator) OnShutdown(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups = append(c.cleanups, f)
}

// RequestShutdown cancels the shutdown context programmatically, for fatal
// error paths that should tear the process down the same way a signal does.
func (c *Coordinator) RequestShutdown(reason string) {
	logger.Warn("Shutdown requested: %s", reason)
	c.cancel()
}

// Wait blocks until shutdown is requested, then runs the registered
// cleanups. Safe to call from exactly one goroutine, typically main.
func (c *Coordinator) Wait() {
	<-c.ctx.Done()
	c.runCleanups()
}

func (c *Coordinator) runCleanups() {
	c.once.Do(func() {
		c.mu.Lock()
		cleanups := make([]func(), len(c.cleanups))
		copy(cleanups, c.cleanups)
		c.mu.Unlock()

		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		c.cancel()
	})
}
