package httpd

import "sync"

// Handler processes one request and fills in the response. It is the sole
// contract between the engine and application code.
type Handler func(*Request, *Response)

type routeKey struct {
	method string
	path   string
}

// Router dispatches on the literal (method, path) pair. No prefix or
// wildcard matching and no trailing-slash normalization: "/a" and "/a/"
// are distinct routes.
type Router struct {
	mu     sync.RWMutex
	routes map[routeKey]Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{
		routes: make(map[routeKey]Handler),
	}
}

// Handle registers handler for the exact method and path, replacing any
// previous registration. Safe to call at any time, including while serving.
func (r *Router) Handle(method, path string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey{method: method, path: path}] = handler
}

// Find returns the handler registered for the exact (method, path) pair.
func (r *Router) Find(method, path string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.routes[routeKey{method: method, path: path}]
	return handler, ok
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
