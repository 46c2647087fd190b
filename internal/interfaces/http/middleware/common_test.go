package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWith(mw gin.HandlerFunc, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.Handle(http.MethodGet, "/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req, _ := http.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	allowed := CORSConfig{
		AllowOrigins:     []string{"https://app.keepup.test"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}

	t.Run("whitelisted origin gets headers", func(t *testing.T) {
		w := serveWith(CORSWithConfig(allowed), http.MethodGet, "/ping",
			map[string]string{"Origin": "https://app.keepup.test"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://app.keepup.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		w := serveWith(CORSWithConfig(allowed), http.MethodGet, "/ping",
			map[string]string{"Origin": "https://evil.test"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight answered with 204", func(t *testing.T) {
		w := serveWith(CORSWithConfig(allowed), http.MethodOptions, "/ping",
			map[string]string{"Origin": "https://app.keepup.test"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.keepup.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("preflight from unknown origin still 204 without headers", func(t *testing.T) {
		w := serveWith(CORSWithConfig(allowed), http.MethodOptions, "/ping",
			map[string]string{"Origin": "https://evil.test"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard never sends credentials", func(t *testing.T) {
		cfg := allowed
		cfg.AllowOrigins = []string{"*"}
		w := serveWith(CORSWithConfig(cfg), http.MethodGet, "/ping",
			map[string]string{"Origin": "https://anywhere.test"})

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("default empty whitelist rejects cross-origin", func(t *testing.T) {
		w := serveWith(CORS(), http.MethodGet, "/ping",
			map[string]string{"Origin": "https://app.keepup.test"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		w := serveWith(RequestID(), http.MethodGet, "/ping", nil)
		assert.Len(t, w.Header().Get("X-Request-ID"), 32)
	})

	t.Run("propagates caller id", func(t *testing.T) {
		w := serveWith(RequestID(), http.MethodGet, "/ping",
			map[string]string{"X-Request-ID": "caller-supplied"})
		assert.Equal(t, "caller-supplied", w.Header().Get("X-Request-ID"))
	})

	t.Run("stores id in gin context", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()
		router.Use(RequestID())
		var got string
		router.GET("/ping", func(c *gin.Context) {
			got = c.GetString("request_id")
			c.Status(http.StatusOK)
		})

		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
		require.NotEmpty(t, got)
	})
}

func TestSecure(t *testing.T) {
	w := serveWith(Secure(), http.MethodGet, "/ping", nil)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS is off by default")
}

func TestSecureWithConfig_HSTS(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	cfg.HSTSPreload = true

	w := serveWith(SecureWithConfig(cfg), http.MethodGet, "/ping", nil)

	hsts := w.Header().Get("Strict-Transport-Security")
	assert.Contains(t, hsts, "max-age=31536000")
	assert.Contains(t, hsts, "includeSubDomains")
	assert.Contains(t, hsts, "preload")
}

func TestSecureWithConfig_Disabled(t *testing.T) {
	w := serveWith(SecureWithConfig(SecurityConfig{}), http.MethodGet, "/ping", nil)

	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Permissions-Policy"))
	// The always-on headers stay regardless of config.
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
