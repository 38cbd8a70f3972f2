// Package providers wires the demo application into the container.
package providers

import (
	"context"

	"github.com/km-arc/go-ioc/app/controllers"
	"github.com/km-arc/go-ioc/app/storage"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/routing"
)

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider registers the persistence layer: the shared Store
// singleton plus the per-request UnitOfWork and repository.
//
// Laravel equivalent:
//
//	// Illuminate\Database\DatabaseServiceProvider
//	$app->singleton('db', fn($app) => new DatabaseManager(...));
type DatabaseServiceProvider struct {
	container.BaseProvider
}

func (p *DatabaseServiceProvider) Register(app *container.Container) error {
	if err := container.RegisterSingleton[*storage.Store](app, storage.NewStore); err != nil {
		return err
	}
	if err := container.RegisterScoped[*storage.UnitOfWork](app, storage.NewUnitOfWork); err != nil {
		return err
	}
	return container.RegisterScoped[storage.UserRepository](app, storage.NewGormUserRepository)
}

// ── AppServiceProvider ────────────────────────────────────────────────────────

// AppServiceProvider registers the demo's controllers and, in the boot
// phase, mounts their routes.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(app *container.Container) error {
	return container.RegisterTransient[*controllers.UserController](app, controllers.NewUserController)
}

// Boot mounts the /api/v1 routes. Running in the boot phase guarantees the
// router and the persistence bindings both exist, whatever order the
// providers were registered in.
func (p *AppServiceProvider) Boot(ctx context.Context, app *container.Container) error {
	router, err := container.Resolve[*routing.Router](ctx, app)
	if err != nil {
		return err
	}

	router.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", gohttp.Handle(app, (*controllers.UserController).Index))
		api.Post("/users", gohttp.Handle(app, (*controllers.UserController).Store))
		api.Get("/users/{id}", gohttp.Handle(app, (*controllers.UserController).Show))
		api.Put("/users/{id}", gohttp.Handle(app, (*controllers.UserController).Update))
		api.Patch("/users/{id}", gohttp.Handle(app, (*controllers.UserController).Update))
		api.Delete("/users/{id}", gohttp.Handle(app, (*controllers.UserController).Destroy))
	})
	return nil
}
