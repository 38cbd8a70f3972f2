package container

import (
	"context"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// injectTag marks exported struct fields filled in by self-construction.
const injectTag = "inject"

// ── Resolution state ──────────────────────────────────────────────────────────

// resolution is the state of one top-level resolve call: the stack of keys
// currently under construction (cycle detection), and which build locks the
// call tree holds. It lives on the calling goroutine only and is discarded
// when the top-level call returns.
type resolution struct {
	c   *Container
	ctx context.Context

	stack   []string
	inStack map[string]bool

	// non-zero while a singleton constructor is on the stack; resolving a
	// scoped binding then would let it outlive its scope
	singletonDepth   int
	currentSingleton string

	holdsBuildMu bool
	lockedScope  *Scope
}

func (c *Container) newResolution(ctx context.Context) *resolution {
	return &resolution{c: c, ctx: ctx, inStack: make(map[string]bool)}
}

// release drops the build locks the call tree acquired.
func (r *resolution) release() {
	if r.holdsBuildMu {
		r.c.buildMu.Unlock()
		r.holdsBuildMu = false
	}
	if r.lockedScope != nil {
		r.lockedScope.buildMu.Unlock()
		r.lockedScope = nil
	}
}

// ── Resolution entry points ───────────────────────────────────────────────────

// Resolve resolves T from the container, using the scope carried by ctx for
// scoped bindings.
//
//	repo, err := container.Resolve[UserRepository](ctx, c)
func Resolve[T any](ctx context.Context, c *Container) (T, error) {
	var zero T
	v, err := c.resolveTop(ctx, typeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("container: Resolve[%s]: resolved to %T", TypeKey[T](), v)
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error. For wiring that is a bug to
// get wrong, like framework bootstrap.
func MustResolve[T any](ctx context.Context, c *Container) T {
	v, err := Resolve[T](ctx, c)
	if err != nil {
		panic(err)
	}
	return v
}

// Make resolves an abstract from the container. The abstract is a pointer
// marker so interface types stay expressible:
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Make(ctx, (*UserRepository)(nil))
func (c *Container) Make(ctx context.Context, abstract any) (any, error) {
	t, err := abstractOf(abstract)
	if err != nil {
		return nil, err
	}
	return c.resolveTop(ctx, t)
}

func (c *Container) resolveTop(ctx context.Context, t reflect.Type) (any, error) {
	r := c.newResolution(ctx)
	defer r.release()
	v, err := r.resolve(t)
	if err != nil {
		c.observe(ResolveEvent{Key: keyFor(t), Err: err})
	}
	return v, err
}

// ── Core resolve ──────────────────────────────────────────────────────────────

// resolve walks one step of the resolution: cycle check, override table,
// registration table, self-construction fallback, then the lifetime branch.
func (r *resolution) resolve(t reflect.Type) (any, error) {
	key := keyFor(t)

	if r.inStack[key] {
		start := lo.IndexOf(r.stack, key)
		chain := append(append([]string{}, r.stack[start:]...), key)
		return nil, &CircularDependencyError{Chain: chain}
	}

	c := r.c
	c.mu.RLock()
	o := c.overrides[key]
	b := c.bindings[key]
	c.mu.RUnlock()

	if o != nil {
		if o.isInstance {
			c.observe(ResolveEvent{Key: key, CacheHit: true})
			return o.instance, nil
		}
		b = o.binding
	}

	if b == nil {
		sb, ok := selfBinding(t)
		if !ok {
			return nil, &UnregisteredTypeError{Key: key}
		}
		b = sb
	}

	switch b.lifetime {
	case Singleton:
		return r.resolveSingleton(key, b)
	case Scoped:
		return r.resolveScoped(key, b)
	default:
		return r.construct(key, b)
	}
}

// resolveSingleton returns the cached instance or constructs it under the
// container build lock, so racing resolvers block and at most one instance
// is ever constructed. Failed construction caches nothing.
func (r *resolution) resolveSingleton(key string, b *binding) (any, error) {
	c := r.c

	c.mu.RLock()
	v, ok := c.singletons[key]
	c.mu.RUnlock()
	if ok {
		c.observe(ResolveEvent{Key: key, Lifetime: Singleton, CacheHit: true})
		return v, nil
	}

	// The outermost singleton miss in this call tree takes the build lock
	// for its whole construction subtree; nested misses skip straight to
	// construction. Racers block here, then re-check the store. The lock is
	// never held while waiting on a scope's build lock: scoped resolution
	// inside a singleton subtree fails the lifetime check instead.
	if !r.holdsBuildMu {
		c.buildMu.Lock()
		r.holdsBuildMu = true
		defer func() {
			c.buildMu.Unlock()
			r.holdsBuildMu = false
		}()
		c.mu.RLock()
		v, ok = c.singletons[key]
		c.mu.RUnlock()
		if ok {
			c.observe(ResolveEvent{Key: key, Lifetime: Singleton, CacheHit: true})
			return v, nil
		}
	}

	prev := r.currentSingleton
	r.currentSingleton = key
	r.singletonDepth++
	v, err := r.construct(key, b)
	r.singletonDepth--
	r.currentSingleton = prev
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.singletons[key] = v
	c.singletonOrder = append(c.singletonOrder, key)
	c.mu.Unlock()
	return v, nil
}

// resolveScoped returns the instance cached in the context's scope,
// constructing and storing it on first use. With no active scope the
// instance is constructed one-shot and never cached.
func (r *resolution) resolveScoped(key string, b *binding) (any, error) {
	if r.singletonDepth > 0 {
		return nil, &LifetimeConflictError{Singleton: r.currentSingleton, Scoped: key}
	}

	c := r.c
	s, ok := ScopeFromContext(r.ctx)
	if !ok {
		c.logger.Debug("container: no active scope, one-shot construction", "type", key)
		return r.construct(key, b)
	}

	v, ok, err := s.get(key)
	if err != nil {
		return nil, err
	}
	if ok {
		c.observe(ResolveEvent{Key: key, Lifetime: Scoped, CacheHit: true})
		return v, nil
	}

	// Same serialization as singletons, but per scope: concurrent handlers
	// of one request observe a single instance, while other scopes build in
	// parallel. A scoped subtree may wait on the container build lock for a
	// singleton dependency, never the other way around.
	if r.lockedScope == nil {
		s.buildMu.Lock()
		r.lockedScope = s
		defer func() {
			s.buildMu.Unlock()
			r.lockedScope = nil
		}()
		v, ok, err = s.get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			c.observe(ResolveEvent{Key: key, Lifetime: Scoped, CacheHit: true})
			return v, nil
		}
	}

	v, err = r.construct(key, b)
	if err != nil {
		return nil, err
	}
	if err := s.put(key, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ── Construction ──────────────────────────────────────────────────────────────

// construct builds one instance from b, resolving its declared dependencies
// through this resolution first. The key sits on the stack for the duration
// so re-entry is caught as a cycle.
func (r *resolution) construct(key string, b *binding) (any, error) {
	if b.hasInstance {
		return b.instance, nil
	}

	r.stack = append(r.stack, key)
	r.inStack[key] = true
	defer func() {
		r.stack = r.stack[:len(r.stack)-1]
		delete(r.inStack, key)
	}()

	start := time.Now()

	var v any
	var err error
	if b.self {
		v, err = r.buildStruct(b.abstract)
	} else {
		v, err = r.call(key, b)
	}
	if err != nil {
		return nil, err
	}

	r.c.observe(ResolveEvent{Key: key, Lifetime: b.lifetime, Duration: time.Since(start)})
	return v, nil
}

// call invokes b's constructor with resolved arguments. A context.Context
// parameter receives the resolving context rather than a container lookup.
func (r *resolution) call(key string, b *binding) (any, error) {
	params := b.params()
	args := make([]reflect.Value, len(params))
	for i, p := range params {
		if p == ctxType {
			args[i] = reflect.ValueOf(r.ctx)
			continue
		}
		dep, err := r.resolve(p)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving dependency [%s] of [%s]", keyFor(p), key)
		}
		rv := reflect.ValueOf(dep)
		if !rv.IsValid() {
			rv = reflect.Zero(p)
		}
		args[i] = rv
	}

	out := b.ctor.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, errors.Wrapf(out[1].Interface().(error), "constructing [%s]", key)
	}
	return out[0].Interface(), nil
}

// ── Self-construction fallback ────────────────────────────────────────────────

// selfBinding synthesizes a transient binding for an unregistered concrete
// type. Only structs and pointers to structs qualify; everything else has
// no constructible shape and stays an UnregisteredTypeError.
func selfBinding(t reflect.Type) (*binding, bool) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, false
	}
	return &binding{key: keyFor(t), abstract: t, lifetime: Transient, self: true}, true
}

// buildStruct constructs t directly, resolving exported fields tagged
// `inject:""` from the container. Untagged fields are left zero.
func (r *resolution) buildStruct(t reflect.Type) (any, error) {
	st := t
	ptr := st.Kind() == reflect.Pointer
	if ptr {
		st = st.Elem()
	}

	pv := reflect.New(st)
	ev := pv.Elem()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if _, tagged := f.Tag.Lookup(injectTag); !tagged {
			continue
		}
		if !f.IsExported() {
			return nil, errors.Errorf("container: inject tag on unexported field %s.%s", st.Name(), f.Name)
		}
		dep, err := r.resolve(f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "injecting field [%s] of [%s]", f.Name, keyFor(t))
		}
		rv := reflect.ValueOf(dep)
		if !rv.IsValid() {
			rv = reflect.Zero(f.Type)
		}
		ev.Field(i).Set(rv)
	}

	if ptr {
		return pv.Interface(), nil
	}
	return ev.Interface(), nil
}
