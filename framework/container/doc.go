// Package container provides a type-keyed IoC (Inversion of Control)
// container with constructor injection, three lifetimes, context-carried
// scopes, a test-friendly override table, and best-effort teardown.
//
// # Overview
//
// Types are registered against constructor functions; the container
// discovers each constructor's dependencies from its parameter types by
// reflection and resolves them recursively. The vocabulary follows
// Laravel's container (bind / scoped / singleton / instance), adapted to
// Go generics.
//
// # Lifetimes
//
//	Transient  new instance per resolve; the caller owns teardown
//	Scoped     one instance per scope (per HTTP request, usually)
//	Singleton  one instance per container, torn down at shutdown
//
// # Registering
//
//	c := container.New()
//
//	// Singleton: created once, reused, disposed at shutdown
//	container.RegisterSingleton[*Store](c, NewStore)
//
//	// Scoped: one per request scope
//	container.RegisterScoped[*UnitOfWork](c, NewUnitOfWork)
//
//	// Transient, bound to an interface
//	container.RegisterTransient[UserRepository](c, NewGormUserRepository)
//
//	// Pre-built value
//	container.Instance[*config.Config](c, cfg)
//
// Constructors are func(deps...) T or func(deps...) (T, error). A
// context.Context parameter receives the resolving context.
//
// # Resolving
//
//	repo, err := container.Resolve[UserRepository](ctx, c)
//
//	// Panicking variant, for wiring that is a bug to get wrong
//	store := container.MustResolve[*Store](ctx, c)
//
//	// Untyped, with a pointer marker for the abstract
//	raw, err := c.Make(ctx, (*UserRepository)(nil))
//
// Resolving an unregistered concrete struct type constructs it directly,
// filling exported fields tagged `inject:""` from the container. Dependency
// cycles fail with the full path, e.g. app.A -> app.B -> app.A.
//
// # Scopes
//
//	ctx = c.BeginScope(ctx)
//	defer c.EndScope(ctx)
//
// Everything resolved as Scoped under that context shares one instance and
// is torn down, newest first, by EndScope. HTTP servers get this per
// request from the scope middleware; background jobs use RunInScope.
// Resolving a scoped type with no active scope constructs a throwaway
// instance rather than failing.
//
// # Overrides
//
// The override table wins over registrations, which keeps tests and local
// swaps away from the real wiring:
//
//	container.OverrideInstance[Mailer](c, &mailerSpy{})
//	defer container.Reset[Mailer](c)
//
//	// Scoped form, restores the previous state even on panic
//	container.WithOverride[Clock](c, NewFrozenClock, func() error {
//	    return run(ctx, c)
//	})
//
// # Teardown
//
// Instances may implement one of the teardown hooks, tried in order:
// Close(ctx) error, Close() error, Dispose() error. EndScope and
// DisposeAllSingletons invoke the first hook found, keep going past
// failures, and report them as a DisposalError.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return container.RegisterSingleton[*Store](app, NewStore)
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot(ctx)
package container
