package httpx

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000", "http://localhost:5173"})(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("disallowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
		req.Header.Set("Origin", "http://evil.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/books", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	w := httptest.NewRecorder()
	SecurityHeadersMiddleware(false)(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	w = httptest.NewRecorder()
	SecurityHeadersMiddleware(true)(okHandler()).ServeHTTP(w, req)
	assert.True(t, strings.HasPrefix(w.Header().Get("Strict-Transport-Security"), "max-age="))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	var readErr error
	handler := RequestSizeLimitMiddleware(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`)))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, readErr)
	})

	t.Run("declared length too large", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 64))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("undeclared length too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(bytes.NewReader(make([]byte, 64))))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Error(t, readErr)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)

	for _, bad := range []string{"has space", strings.Repeat("x", 65)} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", bad)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.NotEqual(t, bad, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err, "replaced with a fresh uuid")
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mw("outer"), mw("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRateLimiter(t *testing.T) {
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})
	rl.now = func() time.Time { return clock }
	handler := rl.Middleware(okHandler())

	hit := func(remote, forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	t.Run("burst then reject per ip regardless of port", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, hit("192.0.2.1:5555", "").Code)
		assert.Equal(t, http.StatusOK, hit("192.0.2.1:6666", "").Code)
		w := hit("192.0.2.1:7777", "")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))

		assert.Equal(t, http.StatusOK, hit("192.0.2.2:5555", "").Code, "limits are per client")
	})

	t.Run("forwarded header from an untrusted peer is ignored", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, hit("198.51.100.4:1", "203.0.113.1").Code)
		assert.Equal(t, http.StatusOK, hit("198.51.100.4:1", "203.0.113.2").Code)
		assert.Equal(t, http.StatusTooManyRequests, hit("198.51.100.4:1", "203.0.113.3").Code,
			"rotating X-Forwarded-For must not mint fresh buckets")
	})

	t.Run("trusted proxy forwards the nearest untrusted hop", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, hit("10.0.0.9:1", "203.0.113.7").Code)
		assert.Equal(t, http.StatusOK, hit("10.0.0.8:1", "1.2.3.4, 203.0.113.7, 10.0.0.5").Code,
			"spoofed leftmost hop is not the client")
		assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.9:1", "5.6.7.8, 203.0.113.7").Code)
	})

	t.Run("tokens refill and idle buckets are swept", func(t *testing.T) {
		clock = clock.Add(time.Second)
		assert.Equal(t, http.StatusOK, hit("192.0.2.1:5555", "").Code)

		clock = clock.Add(10 * time.Minute)
		hit("192.0.2.3:5555", "")
		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Len(t, rl.clients, 1)
	})
}
