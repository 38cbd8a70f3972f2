package providers

import (
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/routing"
)

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router as a singleton. The
// router is built with NewWithContainer, so every request it serves runs
// inside its own container scope.
//
// Configuration and logging are not providers: the kernel loads them before
// the container exists (the container itself logs through them) and binds
// the built values as instances.
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	return container.RegisterSingleton[*routing.Router](app, func(c *container.Container) *routing.Router {
		return routing.NewWithContainer(c)
	})
}
