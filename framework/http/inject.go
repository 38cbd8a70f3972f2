package http

import (
	"context"
	"net/http"
	"reflect"

	"github.com/pkg/errors"

	"github.com/km-arc/go-ioc/framework/container"
)

var (
	writerType  = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	requestType = reflect.TypeOf((*http.Request)(nil))
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	reqType     = reflect.TypeOf((*Request)(nil))
	resType     = reflect.TypeOf((*Response)(nil))
	errType     = reflect.TypeOf((*error)(nil)).Elem()
)

// Handler adapts a function with injectable parameters into an
// http.HandlerFunc. Parameters are filled per request:
//
//   - http.ResponseWriter, *http.Request, context.Context: the request's own
//   - *Request, *Response: wrapped helpers
//   - anything else: resolved from the container against the request's scope
//
// The function may return nothing, error, or (T, error). A returned value is
// sent as 200 {"data": v}; a returned error is logged and sent as 500.
//
//	router.Get("/health", gohttp.Handler(app.Container, func(db *app.Store, res *gohttp.Response) {
//	    res.Success(db.Ping())
//	}))
//
// Handler panics on a malformed function, since route wiring runs at
// bootstrap and a bad signature is a programming error.
func Handler(c *container.Container, fn any) http.HandlerFunc {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic(errors.Errorf("http: Handler needs a function, got %T", fn))
	}
	if t.IsVariadic() {
		panic(errors.New("http: Handler does not support variadic functions"))
	}
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) != errType {
			panic(errors.Errorf("http: Handler function may only return error or (T, error), got %s", t.Out(0)))
		}
	case 2:
		if t.Out(1) != errType {
			panic(errors.Errorf("http: Handler function's second return must be error, got %s", t.Out(1)))
		}
	default:
		panic(errors.Errorf("http: Handler function returns %d values", t.NumOut()))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		args := make([]reflect.Value, t.NumIn())
		for i := range args {
			p := t.In(i)
			switch p {
			case writerType:
				args[i] = reflect.ValueOf(w)
			case requestType:
				args[i] = reflect.ValueOf(r)
			case ctxType:
				args[i] = reflect.ValueOf(r.Context())
			case reqType:
				args[i] = reflect.ValueOf(NewRequest(r))
			case resType:
				args[i] = reflect.ValueOf(NewResponse(w))
			default:
				dep, err := c.Make(r.Context(), reflect.New(p).Interface())
				if err != nil {
					c.Logger().Error("http: resolving handler dependency failed",
						"type", p.String(), "path", r.URL.Path, "error", err)
					NewResponse(w).ServerError()
					return
				}
				rv := reflect.ValueOf(dep)
				if !rv.IsValid() {
					rv = reflect.Zero(p)
				}
				args[i] = rv
			}
		}

		out := v.Call(args)
		switch t.NumOut() {
		case 1:
			if !out[0].IsNil() {
				c.Logger().Error("http: handler failed", "path", r.URL.Path, "error", out[0].Interface().(error))
				NewResponse(w).ServerError()
			}
		case 2:
			if !out[1].IsNil() {
				c.Logger().Error("http: handler failed", "path", r.URL.Path, "error", out[1].Interface().(error))
				NewResponse(w).ServerError()
				return
			}
			NewResponse(w).Success(out[0].Interface())
		}
	}
}

// Handle resolves T against the request's scope and hands it to h with the
// wrapped helpers. The typed counterpart of Handler for controller methods:
//
//	router.Get("/users", gohttp.Handle(app.Container,
//	    func(ctl *UserController, res *gohttp.Response, req *gohttp.Request) {
//	        ctl.Index(res, req)
//	    }))
func Handle[T any](c *container.Container, h func(T, *Response, *Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := container.Resolve[T](r.Context(), c)
		if err != nil {
			c.Logger().Error("http: resolving handler failed",
				"type", container.TypeKey[T](), "path", r.URL.Path, "error", err)
			NewResponse(w).ServerError()
			return
		}
		h(t, NewResponse(w), NewRequest(r))
	}
}
