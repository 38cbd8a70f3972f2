package container

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ── Teardown hooks ────────────────────────────────────────────────────────────

// ContextCloser is the context-aware teardown hook. When an instance
// implements several hooks, the first match in the order ContextCloser,
// io.Closer, Disposable is the only one invoked.
type ContextCloser interface {
	Close(ctx context.Context) error
}

// Disposable is the plain teardown hook, for types where Close would read
// wrong. Checked after io.Closer.
type Disposable interface {
	Dispose() error
}

// disposeValue invokes the highest-priority hook v implements, if any.
// A panicking hook is recovered and reported as an error.
func disposeValue(ctx context.Context, v any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic during disposal: %v", r)
		}
	}()
	switch h := v.(type) {
	case ContextCloser:
		return h.Close(ctx)
	case io.Closer:
		return h.Close()
	case Disposable:
		return h.Dispose()
	}
	return nil
}

// disposeAll tears down values in reverse insertion order, so dependents go
// before the dependencies they were built from. Every value is visited;
// failures are logged and collected into a DisposalError.
func (c *Container) disposeAll(ctx context.Context, values map[string]any, order []string) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		key := order[i]
		v, ok := values[key]
		if !ok {
			continue
		}
		if err := disposeValue(ctx, v); err != nil {
			c.logger.Error("container: disposal failed", "type", key, "error", err)
			errs = append(errs, errors.Wrapf(err, "disposing [%s]", key))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &DisposalError{Errors: errs}
}

// DisposeAllSingletons tears down every entry in the singleton store,
// newest first, and empties it. Intended to run exactly once at process
// shutdown, after the last request scope ended. Registrations survive, so
// a later resolve would reconstruct.
func (c *Container) DisposeAllSingletons(ctx context.Context) error {
	c.mu.Lock()
	values, order := c.singletons, c.singletonOrder
	c.singletons = make(map[string]any)
	c.singletonOrder = nil
	c.mu.Unlock()

	err := c.disposeAll(ctx, values, order)
	c.logger.Debug("container: singletons disposed", "count", len(order))
	return err
}
