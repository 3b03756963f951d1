package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

var (
	WithRoutes = func(routes ...Route) ConfigRouter {
		return func(router *Router) {
			router.AddRoutes(routes...)
		}
	}

	// WithRouteMiddleware wraps every route added after it, outermost first.
	// The route's path pattern is passed in so per-route instrumentation can
	// label by pattern instead of by raw URL.
	WithRouteMiddleware = func(mw func(pattern string) func(http.Handler) http.Handler) ConfigRouter {
		return func(router *Router) {
			router.common = append(router.common, mw)
		}
	}
)

type Route struct {
	Path    string
	Method  string
	Handler http.Handler
}

type Router struct {
	router *httprouter.Router
	common []func(pattern string) func(http.Handler) http.Handler
}

type ConfigRouter func(router *Router)

func New(configs ...ConfigRouter) *Router {
	router := &Router{
		router: httprouter.New(),
	}

	for _, config := range configs {
		config(router)
	}

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// AddRoutes registers routes wrapped in the route middlewares configured so
// far, first configured outermost.
func (r *Router) AddRoutes(routes ...Route) {
	for _, route := range routes {
		handler := route.Handler

		for i := len(r.common) - 1; i >= 0; i-- {
			handler = r.common[i](route.Path)(handler)
		}

		r.router.Handler(route.Method, route.Path, handler)
	}
}
