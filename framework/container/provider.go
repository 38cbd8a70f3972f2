package container

import (
	"context"

	"github.com/pkg/errors"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations, mirroring Laravel's
// Illuminate\Support\ServiceProvider.
//
// Register binds services; it runs as soon as the provider is added and
// must not resolve anything. Boot runs after ALL providers have registered,
// so resolving other bindings there is safe.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return container.RegisterSingleton[*Store](app, NewStore)
//	}
//
//	func (p *AppServiceProvider) Boot(ctx context.Context, app *container.Container) error {
//	    store, err := container.Resolve[*Store](ctx, app)
//	    ...
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here; use Boot for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	// Safe to resolve and use any binding here.
	Boot(ctx context.Context, app *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct providing a no-op Boot.
// Embed it in your provider and only override what you need.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ context.Context, _ *Container) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders.
// It follows Laravel's two-phase bootstrap: register everything, then boot
// everything. Providers added after Boot are booted immediately. Not safe
// for concurrent use; bootstrap is single-threaded.
type ProviderRegistry struct {
	app        *Container
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
	bootCtx    context.Context
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider instance twice is a no-op.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "registering provider %T", provider)
	}
	r.providers = append(r.providers, provider)

	// A provider added after Boot is booted on the spot.
	if r.booted {
		if err := provider.Boot(r.bootCtx, r.app); err != nil {
			return errors.Wrapf(err, "booting provider %T", provider)
		}
	}
	return nil
}

// Boot calls Boot on all providers, in registration order. Must be called
// after ALL providers have been registered; later calls are no-ops.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot(ctx context.Context) error {
	if r.booted {
		return nil
	}
	r.booted = true
	r.bootCtx = ctx
	for _, provider := range r.providers {
		if err := provider.Boot(ctx, r.app); err != nil {
			return errors.Wrapf(err, "booting provider %T", provider)
		}
	}
	return nil
}

// Booted returns true once Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered providers, in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }
