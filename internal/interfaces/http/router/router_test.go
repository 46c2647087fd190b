package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubRegistrar struct {
	registered bool
	routes     func(rg *gin.RouterGroup)
}

func (s *stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	s.registered = true
	if s.routes != nil {
		s.routes(rg)
	}
}

func TestRouter_Setup_RegistersAllRegistrars(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	first := &stubRegistrar{}
	second := &stubRegistrar{}

	NewRouter(engine).Register(first).Register(second).Setup()

	assert.True(t, first.registered)
	assert.True(t, second.registered)
}

func TestRouter_Setup_DefaultVersionPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	registrar := &stubRegistrar{
		routes: func(rg *gin.RouterGroup) {
			rg.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})
		},
	}

	NewRouter(engine).Register(registrar).Setup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Use_AppliesGroupMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	registrar := &stubRegistrar{
		routes: func(rg *gin.RouterGroup) {
			rg.GET("/homes", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})
		},
	}

	NewRouter(engine).
		Use(func(c *gin.Context) {
			c.Header("X-Group-Middleware", "hit")
			c.Next()
		}).
		Register(registrar).
		Setup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/homes", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get("X-Group-Middleware"))
}

func TestRouter_WithAPIVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	registrar := &stubRegistrar{
		routes: func(rg *gin.RouterGroup) {
			rg.POST("/homes/:id/publish", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"success": true})
			})
		},
	}

	NewRouter(engine, WithAPIVersion("v2")).Register(registrar).Setup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v2/homes/42/publish", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/homes/42/publish", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
