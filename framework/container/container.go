package container

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ── Binding types ─────────────────────────────────────────────────────────────

var errType = reflect.TypeOf((*error)(nil)).Elem()

// binding holds one registration: how to build an abstract type and under
// which lifetime the built value is owned. Bindings are immutable once
// stored; re-registration swaps the whole entry.
type binding struct {
	key      string
	abstract reflect.Type
	lifetime Lifetime

	// constructor; zero Value for pre-built instances and self bindings
	ctor     reflect.Value
	ctorType reflect.Type

	// pre-built value registered via Instance
	instance    any
	hasInstance bool

	// self bindings construct their abstract type directly by reflection
	self bool

	paramOnce  sync.Once
	paramTypes []reflect.Type
}

// params returns the constructor's parameter types, computed once.
func (b *binding) params() []reflect.Type {
	b.paramOnce.Do(func() {
		if !b.ctor.IsValid() {
			return
		}
		n := b.ctorType.NumIn()
		b.paramTypes = make([]reflect.Type, n)
		for i := 0; i < n; i++ {
			b.paramTypes[i] = b.ctorType.In(i)
		}
	})
	return b.paramTypes
}

// newBinding validates a constructor and wraps it in a binding.
func newBinding(abstract reflect.Type, ctor any, lt Lifetime) (*binding, error) {
	key := keyFor(abstract)
	if ctor == nil {
		return nil, errors.Wrapf(ErrNotAFunction, "registering [%s]", key)
	}
	v := reflect.ValueOf(ctor)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, errors.Wrapf(ErrNotAFunction, "registering [%s] with %s", key, t)
	}
	if t.IsVariadic() {
		return nil, errors.Wrapf(ErrBadConstructor, "registering [%s]: variadic constructors are not supported", key)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errType {
			return nil, errors.Wrapf(ErrBadConstructor, "registering [%s]: second return must be error, got %s", key, t.Out(1))
		}
	default:
		return nil, errors.Wrapf(ErrBadConstructor, "registering [%s]: %d return values", key, t.NumOut())
	}
	if !t.Out(0).AssignableTo(abstract) {
		return nil, errors.Wrapf(ErrReturnMismatch, "registering [%s]: constructor returns %s", key, t.Out(0))
	}
	return &binding{key: key, abstract: abstract, lifetime: lt, ctor: v, ctorType: t}, nil
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container. It resolves abstract types to concrete
// instances through registered constructors, with three lifetimes
// (transient, scoped, singleton), a test-friendly override table that wins
// over registrations, per-context scopes, and best-effort teardown of
// everything it cached.
//
// Registration and resolution entry points are package-level generic
// functions (RegisterSingleton, Resolve, ...) because Go methods cannot
// take type parameters; the untyped Make method mirrors them for dynamic
// callers.
type Container struct {
	mu sync.RWMutex

	// abstract key → binding
	bindings map[string]*binding

	// abstract key → override, consulted before bindings
	overrides map[string]*override

	// abstract key → built singleton
	singletons map[string]any

	// singleton keys in construction order; teardown runs in reverse
	singletonOrder []string

	// serializes singleton construction; taken at most once per resolve
	// call tree, so recursive construction never self-deadlocks
	buildMu sync.Mutex

	logger   *slog.Logger
	observer func(ResolveEvent)
}

// Option configures a Container at construction time.
type Option func(*Container)

// WithLogger sets the logger used for scope and teardown diagnostics.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithObserver installs a callback fired on every resolution, for metrics
// shims and debugging. The callback must be fast and must not resolve.
func WithObserver(fn func(ResolveEvent)) Option {
	return func(c *Container) { c.observer = fn }
}

// ResolveEvent describes one resolution, as seen by the observer.
type ResolveEvent struct {
	Key      string
	Lifetime Lifetime
	Duration time.Duration
	CacheHit bool
	Err      error
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		bindings:   make(map[string]*binding),
		overrides:  make(map[string]*override),
		singletons: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	// The container resolves itself, so constructors can declare a
	// *container.Container parameter. Like Laravel's $app->instance('app', $app).
	_ = Instance[*Container](c, c)
	return c
}

// Logger returns the container's logger, for collaborators that log on its
// behalf (middleware, kernels).
func (c *Container) Logger() *slog.Logger { return c.logger }

func (c *Container) observe(ev ResolveEvent) {
	if c.observer != nil {
		c.observer(ev)
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds T to a constructor under an explicit lifetime.
//
// The constructor is any func(deps...) T or func(deps...) (T, error); its
// parameter types are resolved from the container when T is constructed. A
// context.Context parameter receives the resolving context.
//
//	container.Register[UserRepository](c, NewGormUserRepository, container.Scoped)
func Register[T any](c *Container, ctor any, lt Lifetime) error {
	b, err := newBinding(typeOf[T](), ctor, lt)
	if err != nil {
		return err
	}
	c.put(b)
	return nil
}

// RegisterTransient binds T to a constructor producing a new instance on
// every resolve. The caller owns teardown.
//
//	// Laravel: $app->bind(UserRepository::class, ...)
//	container.RegisterTransient[UserRepository](c, NewGormUserRepository)
func RegisterTransient[T any](c *Container, ctor any) error {
	return Register[T](c, ctor, Transient)
}

// RegisterScoped binds T to a constructor producing one instance per scope.
//
//	// Laravel: $app->scoped(UnitOfWork::class, ...)
//	container.RegisterScoped[*UnitOfWork](c, NewUnitOfWork)
func RegisterScoped[T any](c *Container, ctor any) error {
	return Register[T](c, ctor, Scoped)
}

// RegisterSingleton binds T to a constructor whose result is cached after
// first resolution.
//
//	// Laravel: $app->singleton(Cache::class, ...)
//	container.RegisterSingleton[*Store](c, NewStore)
func RegisterSingleton[T any](c *Container, ctor any) error {
	return Register[T](c, ctor, Singleton)
}

// Instance registers a pre-built value as a singleton. The value lands in
// the singleton store directly, so it is handed back as-is and torn down by
// DisposeAllSingletons.
//
//	// Laravel: $app->instance(Config::class, $config)
//	container.Instance[*config.Config](c, cfg)
func Instance[T any](c *Container, value T) error {
	abstract := typeOf[T]()
	if isNil(reflect.ValueOf(value)) {
		return errors.Wrapf(ErrNilInstance, "registering [%s]", keyFor(abstract))
	}
	b := &binding{
		key:         keyFor(abstract),
		abstract:    abstract,
		lifetime:    Singleton,
		instance:    value,
		hasInstance: true,
	}
	c.put(b)
	return nil
}

// Alias makes A resolvable by delegating to E's registration: resolving A
// resolves E, so E's lifetime and caching apply and both keys observe the
// same singleton or scoped instance. E must be assignable to A; typically A
// is an interface E implements.
//
//	// Laravel: $app->bind(EventPusher::class, RedisEventPusher::class)
//	container.Alias[EventPusher, *RedisPusher](c)
func Alias[A, E any](c *Container) error {
	abstract, concrete := typeOf[A](), typeOf[E]()
	if !concrete.AssignableTo(abstract) {
		return errors.Wrapf(ErrReturnMismatch, "aliasing [%s]: [%s] is not assignable to it", keyFor(abstract), keyFor(concrete))
	}
	return Register[A](c, func(e E) A {
		var a A
		if v := reflect.ValueOf(e); v.IsValid() {
			reflect.ValueOf(&a).Elem().Set(v)
		}
		return a
	}, Transient)
}

// put stores a binding, dropping any cached singleton under the same key so
// the next resolve observes the new registration. Last write wins.
func (c *Container) put(b *binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[b.key] = b
	c.invalidateLocked(b.key)
	if b.hasInstance {
		c.singletons[b.key] = b.instance
		c.singletonOrder = append(c.singletonOrder, b.key)
	}
}

// invalidateLocked removes the cached singleton for key (must hold mu).
// The evicted value is not torn down: callers may still hold it.
func (c *Container) invalidateLocked(key string) {
	if _, ok := c.singletons[key]; ok {
		delete(c.singletons, key)
		c.singletonOrder = lo.Without(c.singletonOrder, key)
	}
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether T has a registration or an override.
//
//	// Laravel: $app->bound(UserRepository::class)
func Bound[T any](c *Container) bool {
	key := TypeKey[T]()
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasBinding := c.bindings[key]
	_, hasOverride := c.overrides[key]
	return hasBinding || hasOverride
}

// Resolved reports whether T currently sits in the singleton store.
//
//	// Laravel: $app->resolved(Cache::class)
func Resolved[T any](c *Container) bool {
	key := TypeKey[T]()
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.singletons[key]
	return ok
}

// Forget removes T's registration and cached singleton. Overrides survive;
// use Reset for those.
//
//	// Laravel: $app->forgetInstance(Cache::class)
func Forget[T any](c *Container) {
	key := TypeKey[T]()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, key)
	c.invalidateLocked(key)
}

// Flush resets the container to empty without running any teardown. Meant
// for tests; production shutdown goes through DisposeAllSingletons.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string]*binding)
	c.overrides = make(map[string]*override)
	c.singletons = make(map[string]any)
	c.singletonOrder = nil
}

// Bindings returns the sorted registered keys (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := lo.Keys(c.bindings)
	sort.Strings(keys)
	return keys
}
