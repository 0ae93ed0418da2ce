package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/scorify/internal/shared"
)

type pingHandler struct{}

func (pingHandler) Routes() []string { return []string{"GET /ping", "GET /pong"} }

func (pingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, r.URL.Path)
}

func tagging(tag string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Order", tag)
			next.ServeHTTP(w, r)
		})
	}
}

func TestBasicRouter(t *testing.T) {
	t.Run("Path Values", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/users/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, r.PathValue("id"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/ada", nil))

		if rec.Code != http.StatusOK || rec.Body.String() != "ada" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("get", "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Unknown Path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewBasicRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Handler Routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(pingHandler{})

		for _, path := range []string{"/ping", "/pong"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != path {
				t.Errorf("%s: got %q", path, rec.Body.String())
			}
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(tagging("outer"), tagging("inner"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if got := strings.Join(rec.Header().Values("X-Order"), ","); got != "outer,inner" {
			t.Errorf("expected outer,inner got %s", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Logging Keeps Request ID", func(t *testing.T) {
		var seen string
		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen != "req-1" || rec.Header().Get("X-Request-ID") != "req-1" {
			t.Errorf("request id not propagated: ctx=%q header=%q", seen, rec.Header().Get("X-Request-ID"))
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status not passed through, got %d", rec.Code)
		}
	})

	t.Run("Logging Generates Request ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Logging(logger)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated request id")
		}
	})

	t.Run("Recover", func(t *testing.T) {
		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "boom") {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	cors := CORS([]string{"http://127.0.0.1:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))

	t.Run("CORS Allowed Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://127.0.0.1:3000")
		rec := httptest.NewRecorder()
		cors.ServeHTTP(rec, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "http://127.0.0.1:3000" {
			t.Errorf("missing allow origin: %v", rec.Header())
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("expected credentials to be allowed")
		}
		if rec.Body.String() != "ok" {
			t.Error("expected the request to reach the handler")
		}
	})

	t.Run("CORS Other Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.test")
		rec := httptest.NewRecorder()
		cors.ServeHTTP(rec, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("unexpected allow origin for foreign origin")
		}
	})

	t.Run("CORS Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/get-user-info", nil)
		req.Header.Set("Origin", "http://127.0.0.1:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		cors.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID") {
			t.Errorf("expected request id header to be allowed, got %q", rec.Header().Get("Access-Control-Allow-Headers"))
		}

		req.Header.Set("Origin", "http://evil.test")
		rec = httptest.NewRecorder()
		cors.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403 for foreign preflight, got %d", rec.Code)
		}
	})
}
