package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	rl := NewRateLimiter(3, 50*time.Millisecond)

	for i := range 3 {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 0, rl.Remaining("10.0.0.1"))

	// a different key has its own bucket
	assert.True(t, rl.Allow("10.0.0.2"))

	// the window rolls over and the bucket refills
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 3, rl.Remaining("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(100, time.Minute)

	var wg sync.WaitGroup
	admitted := make(chan bool, 200)
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- rl.Allow("shared")
		}()
	}
	wg.Wait()
	close(admitted)

	passed := 0
	for ok := range admitted {
		if ok {
			passed++
		}
	}
	assert.Equal(t, 100, passed)
}

func rateLimitedRequest(t *testing.T, handler gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(handler)
	engine.GET("/homes", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRateLimit_Middleware(t *testing.T) {
	mw := RateLimit(NewRateLimiter(2, time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/homes", nil)
	req.RemoteAddr = "192.0.2.7:1234"

	first := rateLimitedRequest(t, mw, req)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := rateLimitedRequest(t, mw, req)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := rateLimitedRequest(t, mw, req)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Contains(t, third.Body.String(), "RATE_LIMITED")
}

func TestRateLimit_CompanyHeaderScopesKey(t *testing.T) {
	mw := RateLimit(NewRateLimiter(1, time.Minute))

	for _, company := range []string{"acme", "globex"} {
		req := httptest.NewRequest(http.MethodGet, "/homes", nil)
		req.RemoteAddr = "192.0.2.7:1234"
		req.Header.Set("X-Company-ID", company)

		w := rateLimitedRequest(t, mw, req)
		assert.Equal(t, http.StatusOK, w.Code, "company %s has its own bucket", company)
	}
}

func TestRateLimitByKey(t *testing.T) {
	mw := RateLimitByKey(NewRateLimiter(1, time.Minute), func(c *gin.Context) string {
		return c.GetHeader("X-API-Key")
	})

	req := httptest.NewRequest(http.MethodGet, "/homes", nil)
	req.Header.Set("X-API-Key", "key-1")

	assert.Equal(t, http.StatusOK, rateLimitedRequest(t, mw, req).Code)
	assert.Equal(t, http.StatusTooManyRequests, rateLimitedRequest(t, mw, req).Code)
}
