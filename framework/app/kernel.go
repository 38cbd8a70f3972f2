package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/framework/logging"
	"github.com/km-arc/go-ioc/framework/providers"
	"github.com/km-arc/go-ioc/routing"
)

// shutdownTimeout bounds both server drain and singleton teardown.
const shutdownTimeout = 10 * time.Second

// Application is the top-level application container.
// It embeds the IoC Container and carries the ProviderRegistry so user code
// can register bindings and providers directly — exactly like $app in
// Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg *config.Config
	log *slog.Logger
}

// New creates and bootstraps the application: it loads configuration, builds
// the logger, and wires both into a fresh container.
//
// Config and the logger are bound as instances rather than through providers
// because the container itself logs through them, so they must exist before
// it does. Everything else arrives via providers, in registration order.
//
//	app := app.New()           // loads .env automatically
//	app.Register(&AppServiceProvider{})
//	app.Run(context.Background())
func New(envFiles ...string) *Application {
	cfg := config.Load(envFiles...)
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	c := container.New(container.WithLogger(logger))
	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		cfg:       cfg,
		log:       logger,
	}

	_ = container.Instance[*config.Config](c, cfg)
	_ = container.Instance[*slog.Logger](c, logger)

	// Framework core providers (same order as Laravel).
	if err := app.Register(&providers.RoutingServiceProvider{}); err != nil {
		panic(err)
	}

	return app
}

// Register adds a ServiceProvider to the application.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
//
//	// Laravel: $app->boot()
func (a *Application) Boot(ctx context.Context) error {
	return a.Providers.Boot(ctx)
}

// Config returns the loaded application configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Log returns the application logger.
func (a *Application) Log() *slog.Logger { return a.log }

// Router resolves the HTTP router singleton.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](context.Background(), a.Container)
}

// Run boots the application (if needed) and serves HTTP until ctx is
// cancelled or SIGINT/SIGTERM arrives. On the way down it drains in-flight
// requests, then tears down every cached singleton in reverse construction
// order.
//
// In debug mode the dependency graph is validated before the server starts,
// so a missing registration or a lifetime conflict fails the boot instead of
// the first unlucky request.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !a.Providers.Booted() {
		if err := a.Boot(ctx); err != nil {
			return err
		}
	}
	if a.IsDebug() {
		if err := a.Validate(); err != nil {
			return errors.Wrap(err, "dependency graph validation failed")
		}
	}

	addr := ":" + a.cfg.App.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Info("server started", "app", a.cfg.App.Name, "addr", addr, "env", a.cfg.App.Env)
	defer a.log.Info("server stopped")

	go func() {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			a.log.Error("server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	disposeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.DisposeAllSingletons(disposeCtx)
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.cfg.App.Debug }
func (a *Application) Version() string     { return "0.1.0" }

// Controller is an embeddable base for HTTP controllers.
type Controller struct{}

func (c *Controller) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}
func (c *Controller) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}
