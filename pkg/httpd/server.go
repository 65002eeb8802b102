package httpd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/breezehq/breeze/internal/audit"
	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/pkg/metrics"
)

// Options configures a Server. Zero values fall back to sensible defaults;
// only Port is required.
type Options struct {
	// Port is the TCP port both listeners bind to.
	Port int

	// Workers is the pool size; non-positive means one worker per logical
	// CPU.
	Workers int

	// QueueCapacity bounds the pending-connection queue; non-positive means
	// DefaultQueueCapacity.
	QueueCapacity int

	// LogRequestParams includes the query string in access-log lines.
	LogRequestParams bool

	// AuditLog receives one line per inbound request and per error
	// response. May be nil.
	AuditLog *audit.Writer

	// Metrics receives request and connection observations; nil disables
	// instrumentation.
	Metrics metrics.HTTPMetrics
}

// Server owns the listeners, the worker pool, and the route table, and ties
// them together: accepted connections are submitted to the pool, parsed,
// routed, answered, and closed.
//
// Lifecycle: construct, register routes, call Serve with a context whose
// cancellation requests shutdown. Stop is idempotent and only unblocks the
// accept loops; connections already handed to the pool run to completion.
type Server struct {
	port      int
	logParams bool
	router    *Router
	pool      *TaskPool
	auditLog  *audit.Writer
	metrics   metrics.HTTPMetrics

	mu       sync.Mutex
	ln4, ln6 net.Listener
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer creates a Server and starts its worker pool.
func NewServer(opts Options) *Server {
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Server{
		port:      opts.Port,
		logParams: opts.LogRequestParams,
		router:    NewRouter(),
		pool:      NewTaskPool(opts.Workers, opts.QueueCapacity),
		auditLog:  opts.AuditLog,
		metrics:   m,
	}
}

// Handle registers a handler for the exact method and path.
func (s *Server) Handle(method, path string, handler Handler) {
	s.router.Handle(method, path, handler)
}

// Get registers a GET handler.
func (s *Server) Get(path string, handler Handler) { s.Handle("GET", path, handler) }

// Post registers a POST handler.
func (s *Server) Post(path string, handler Handler) { s.Handle("POST", path, handler) }

// Put registers a PUT handler.
func (s *Server) Put(path string, handler Handler) { s.Handle("PUT", path, handler) }

// Delete registers a DELETE handler.
func (s *Server) Delete(path string, handler Handler) { s.Handle("DELETE", path, handler) }

// Serve binds the IPv4 listener (fatal on failure) and the IPv6 listener
// (degrades to IPv4-only on failure), then accepts connections until ctx is
// cancelled or Stop is called. It blocks on the IPv4 accept loop; the IPv6
// loop runs on its own goroutine feeding the same pool. On return the pool
// has drained its queued work and all workers have exited.
func (s *Server) Serve(ctx context.Context) error {
	ln4, err := listen(ctx, "tcp4", fmt.Sprintf("0.0.0.0:%d", s.port))
	if err != nil {
		return fmt.Errorf("binding IPv4 listener on port %d: %w", s.port, err)
	}
	s.mu.Lock()
	s.ln4 = ln4
	s.mu.Unlock()
	logger.Info("Listening on %s (IPv4)", ln4.Addr())

	ln6, err := listen(ctx, "tcp6", fmt.Sprintf("[::]:%d", s.port))
	if err != nil {
		logger.Warn("IPv6 listener unavailable, serving IPv4 only: %v", err)
	} else {
		s.mu.Lock()
		s.ln6 = ln6
		s.mu.Unlock()
		logger.Info("Listening on %s (IPv6)", ln6.Addr())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.acceptLoop(ln6, "IPv6")
		}()
	}

	// Cancellation requests shutdown; done stops the watcher when the
	// accept loop exits for another reason.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()

	s.acceptLoop(ln4, "IPv4")
	close(done)

	s.Stop()
	s.wg.Wait()
	s.pool.Stop()
	logger.Info("Server stopped")
	return nil
}

// Stop closes both listeners, unblocking the accept loops. Safe to call
// more than once and from any goroutine. In-flight connections and queued
// jobs are not interrupted.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		logger.Info("Closing listeners")
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ln4 != nil {
			s.ln4.Close()
		}
		if s.ln6 != nil {
			s.ln6.Close()
		}
	})
}

// Addr returns the bound IPv4 listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln4 == nil {
		return nil
	}
	return s.ln4.Addr()
}

func (s *Server) acceptLoop(ln net.Listener, family string) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("%s accept loop exiting", family)
				return
			}
			logger.Error("Accept on %s failed: %v", family, err)
			continue
		}

		c := conn
		if !s.pool.Submit(func() { s.handleConnection(c) }) {
			logger.Warn("Task pool saturated, dropping connection from %s", c.RemoteAddr())
			c.Close()
		}
	}
}
