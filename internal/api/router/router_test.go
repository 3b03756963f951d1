package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func tagging(tag string, calls *[]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*calls = append(*calls, tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var calls []string
	var patterns []string

	rt := New(
		WithRoutes(Route{
			Path:    "/early",
			Method:  http.MethodGet,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		}),
		WithRouteMiddleware(func(pattern string) func(http.Handler) http.Handler {
			patterns = append(patterns, pattern)
			return tagging("first", &calls)
		}),
		WithRouteMiddleware(func(pattern string) func(http.Handler) http.Handler {
			return tagging("second", &calls)
		}),
		WithRoutes(Route{
			Path:   "/items/:id",
			Method: http.MethodGet,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, "handler:"+httprouter.ParamsFromContext(r.Context()).ByName("id"))
			}),
		}),
	)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"first", "second", "handler:42"}, calls)
	assert.Equal(t, []string{"/items/:id"}, patterns)

	calls = nil
	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/early", nil))
	assert.Empty(t, calls)
}

func TestUnknownRoute(t *testing.T) {
	rt := New(WithRoutes(Route{
		Path:    "/known",
		Method:  http.MethodGet,
		Handler: http.NotFoundHandler(),
	}))

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/known", strings.NewReader("{}")))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
