package http

import (
	"net/http"

	"github.com/km-arc/go-ioc/framework/container"
)

// ScopeMiddleware opens a container scope around each request and tears it
// down after the response, on every exit path including panics unwinding to
// an outer Recoverer. Handlers below it resolve scoped bindings against the
// request's scope through r.Context().
//
//	router.Middleware(gohttp.ScopeMiddleware(app.Container))
func ScopeMiddleware(c *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := c.BeginScope(r.Context())
			defer func() {
				if err := c.EndScope(ctx); err != nil {
					c.Logger().Error("http: scope teardown failed",
						"method", r.Method, "path", r.URL.Path, "error", err)
				}
			}()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
