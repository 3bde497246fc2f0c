package service

import (
	"context"
	"sync"

	"github.com/nhle/redmine-bridge/internal/redmine"
)

// ServiceCreateIssue is the name under which the create-issue handler is
// registered.
const ServiceCreateIssue = "create_issue"

// Handler processes one service invocation.
type Handler func(ctx context.Context, in CreateIssueInput) (*redmine.CreatedIssue, error)

// Registry maps service names to handlers. Registration is idempotent: a
// second registration under an existing name is a no-op, so each host
// process ends up with exactly one handler per service regardless of how
// many installations are set up.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty service registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler under name. It reports whether the handler was
// actually installed; false means a handler already existed and was kept.
func (r *Registry) Register(name string, h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[name]; ok {
		return false
	}
	r.handlers[name] = h
	return true
}

// Has reports whether a handler is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Get returns the handler registered under name, or nil.
func (r *Registry) Get(name string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}

// Unregister removes the handler registered under name. Removing an absent
// handler is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}
