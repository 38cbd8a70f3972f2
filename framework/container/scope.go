package container

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// scopeKey is the context key under which a Scope travels.
type scopeKey struct{}

// Scope is a per-logical-task instance cache. Every goroutine holding the
// same context shares the same Scope; contexts from different BeginScope
// calls never share instances. Scoped resolutions cache here and are torn
// down, newest first, when the scope ends.
type Scope struct {
	id string

	mu        sync.Mutex
	instances map[string]any
	order     []string
	ended     bool

	// serializes scoped construction within this scope; taken at most once
	// per resolve call tree
	buildMu sync.Mutex
}

func newScope() *Scope {
	return &Scope{id: uuid.NewString(), instances: make(map[string]any)}
}

// ID returns the scope's identifier, for logs and diagnostics.
func (s *Scope) ID() string { return s.id }

// Len returns the number of instances currently cached in the scope.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// get returns the cached instance for key. Errors once the scope ended.
func (s *Scope) get(key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, false, errors.Wrapf(ErrScopeEnded, "resolving [%s] in scope [%s]", key, s.id)
	}
	v, ok := s.instances[key]
	return v, ok, nil
}

// put caches an instance. Errors if the scope ended while it was being
// constructed, so the caller does not hand out an untracked value.
func (s *Scope) put(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return errors.Wrapf(ErrScopeEnded, "storing [%s] in scope [%s]", key, s.id)
	}
	s.instances[key] = v
	s.order = append(s.order, key)
	return nil
}

// end marks the scope ended and hands back its instances for teardown.
func (s *Scope) end() (map[string]any, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, nil, errors.Wrapf(ErrScopeEnded, "ending scope [%s]", s.id)
	}
	s.ended = true
	values, order := s.instances, s.order
	s.instances = nil
	s.order = nil
	return values, order, nil
}

// ── Scope lifecycle ───────────────────────────────────────────────────────────

// BeginScope derives a context carrying a fresh Scope. Child goroutines
// that receive the returned context resolve against the same Scope; sibling
// BeginScope calls get isolated Scopes. Every BeginScope should be paired
// with exactly one EndScope, usually via defer or RunInScope.
func (c *Container) BeginScope(ctx context.Context) context.Context {
	s := newScope()
	c.logger.Debug("container: scope begun", "scope", s.id)
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the Scope carried by ctx, if any.
func ScopeFromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}

// EndScope tears down every instance cached in the context's Scope, newest
// first, and marks the Scope ended. Teardown is best effort: failures are
// logged and aggregated into the returned DisposalError, never a hard stop.
// Ending an already ended scope, or a context without one, is an error.
func (c *Container) EndScope(ctx context.Context) error {
	s, ok := ScopeFromContext(ctx)
	if !ok {
		return ErrNoScope
	}
	values, order, err := s.end()
	if err != nil {
		return err
	}
	err = c.disposeAll(ctx, values, order)
	c.logger.Debug("container: scope ended", "scope", s.id, "instances", len(order))
	return err
}

// RunInScope runs fn inside a fresh scope and guarantees teardown on every
// exit path, including panic. fn's error is returned as-is; teardown
// failures are logged, not returned, matching their non-fatal contract.
//
//	err := c.RunInScope(ctx, func(ctx context.Context) error {
//	    job, err := container.Resolve[*ReportJob](ctx, c)
//	    ...
//	})
func (c *Container) RunInScope(ctx context.Context, fn func(ctx context.Context) error) error {
	scoped := c.BeginScope(ctx)
	defer func() {
		if err := c.EndScope(scoped); err != nil {
			c.logger.Error("container: scope teardown failed", "error", err)
		}
	}()
	return fn(scoped)
}
