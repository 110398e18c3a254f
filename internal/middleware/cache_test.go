package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func cachedHandler(status int, body string) http.Handler {
	return NewCacheMiddleware(5 * time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestCacheMiddleware_SetsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	cachedHandler(http.StatusOK, `[{"name":"Books"}]`).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", got)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("expected ETag header")
	}
	if w.Body.String() != `[{"name":"Books"}]` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestCacheMiddleware_NotModified(t *testing.T) {
	h := cachedHandler(http.StatusOK, `[{"name":"Books"}]`)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	etag := first.Header().Get("ETag")

	for _, inm := range []string{etag, "W/" + etag, `"other", ` + etag} {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set("If-None-Match", inm)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusNotModified {
			t.Errorf("If-None-Match %q: status = %d, want %d", inm, w.Code, http.StatusNotModified)
		}
		if w.Body.Len() != 0 {
			t.Errorf("304 response should have empty body, got %q", w.Body.String())
		}
	}
}

func TestCacheMiddleware_ChangedBodyChangesETag(t *testing.T) {
	a := httptest.NewRecorder()
	cachedHandler(http.StatusOK, `["a"]`).ServeHTTP(a, httptest.NewRequest(http.MethodGet, "/", nil))
	b := httptest.NewRecorder()
	cachedHandler(http.StatusOK, `["b"]`).ServeHTTP(b, httptest.NewRequest(http.MethodGet, "/", nil))

	if a.Header().Get("ETag") == b.Header().Get("ETag") {
		t.Error("different bodies should produce different ETags")
	}
}

func TestCacheMiddleware_SkipsErrorsAndWrites(t *testing.T) {
	w := httptest.NewRecorder()
	cachedHandler(http.StatusNotFound, `{"code":"CATEGORY_NOT_FOUND"}`).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories/x", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w.Header().Get("ETag") != "" || w.Header().Get("Cache-Control") != "" {
		t.Error("error responses should not be cached")
	}

	w = httptest.NewRecorder()
	cachedHandler(http.StatusCreated, `{}`).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/categories", nil))
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Header().Get("ETag") != "" {
		t.Error("POST responses should not carry ETag")
	}
}
