package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/minicrm/internal/config"
	"github.com/straye-as/minicrm/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func hit(h http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.LimitByIP(okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/api/v1/leads", "10.0.0.1:1234").Code)
	}
}

func TestRateLimiter_Exceeded(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, zap.NewNop())
	h := rl.LimitByIP(okHandler)

	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/leads", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/leads", "10.0.0.1:1234").Code)

	w := hit(h, "/api/v1/leads", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// other clients keep their own budget
	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/leads", "10.0.0.2:1234").Code)
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"10.0.0.9"},
		WhitelistPaths:    []string{"/health", "/api/v1/admin/*"},
	}, zap.NewNop())
	h := rl.LimitByIP(okHandler)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/health", "10.0.0.1:1").Code)
		assert.Equal(t, http.StatusOK, hit(h, "/api/v1/admin/reset", "10.0.0.1:1").Code)
		assert.Equal(t, http.StatusOK, hit(h, "/api/v1/leads", "10.0.0.9:1").Code)
	}
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.LimitByIP(okHandler)

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send("203.0.113.1, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1, 10.0.0.2"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestSecurityHeaders(t *testing.T) {
	h := middleware.SecurityHeaders(&config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		ContentSecurityPolicy: "default-src 'none'",
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	})(okHandler)

	w := hit(h, "/", "10.0.0.1:1")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Empty(t, w.Header().Get("Referrer-Policy"))
}

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/leads", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	base := config.CORSConfig{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}

	explicit := base
	explicit.AllowedOrigins = []string{"https://crm.example.com"}
	h := middleware.CORS(&explicit, "production", zap.NewNop())(okHandler)
	assert.Equal(t, "https://crm.example.com", preflight(h, "https://crm.example.com").Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, preflight(h, "https://evil.example.com").Header().Get("Access-Control-Allow-Origin"))

	h = middleware.CORS(&base, "development", zap.NewNop())(okHandler)
	assert.Equal(t, "http://localhost:5173", preflight(h, "http://localhost:5173").Header().Get("Access-Control-Allow-Origin"))

	h = middleware.CORS(&base, "production", zap.NewNop())(okHandler)
	assert.Empty(t, preflight(h, "http://localhost:5173").Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
	h := chimw.RequestID(middleware.Recovery(zap.NewNop())(panicking))

	w := hit(h, "/", "10.0.0.1:1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")

	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	assert.Panics(t, func() {
		hit(middleware.Recovery(zap.NewNop())(aborting), "/", "10.0.0.1:1")
	})
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := chimw.RequestID(middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	assert.Equal(t, http.StatusTeapot, hit(h, "/api/v1/leads", "10.0.0.1:1").Code)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/leads", fields["path"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status_code"])
}
