package main

import (
	"context"
	"net/http"
	"os"

	appproviders "github.com/km-arc/go-ioc/app/providers"
	"github.com/km-arc/go-ioc/framework/app"
	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	gohttp "github.com/km-arc/go-ioc/framework/http"
	"github.com/km-arc/go-ioc/routing"
)

func main() {
	application := app.New() // loads .env automatically

	for _, p := range []container.ServiceProvider{
		&appproviders.DatabaseServiceProvider{},
		&appproviders.AppServiceProvider{},
	} {
		if err := application.Register(p); err != nil {
			application.Log().Error("provider registration failed", "error", err)
			os.Exit(1)
		}
	}

	r := application.Router()

	// ── Basic routes ─────────────────────────────────────────────────────────

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{"message": "Welcome to Go-IoC!"})
	})

	// GET /healthz — handler parameters are injected from the container
	r.Get("/healthz", gohttp.Handler(application.Container, func(cfg *config.Config) (map[string]any, error) {
		return map[string]any{"app": cfg.App.Name, "env": cfg.App.Env}, nil
	}))

	// ── Auth group with middleware ────────────────────────────────────────────

	r.Group(func(protected *routing.Router) {
		protected.Middleware(AuthMiddleware)

		protected.Get("/profile", func(w http.ResponseWriter, req *http.Request) {
			gohttp.NewResponse(w).Success(map[string]any{"user": "authenticated"})
		})
	})

	if err := application.Run(context.Background()); err != nil {
		application.Log().Error("server error", "error", err)
		os.Exit(1)
	}
}

// AuthMiddleware is an example JWT/token guard.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)

		if req.BearerToken() == "" {
			gohttp.NewResponse(w).Unauthorized()
			return
		}
		next.ServeHTTP(w, r)
	})
}
