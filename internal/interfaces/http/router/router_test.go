package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingRegistrar struct {
	path string
}

func (p *pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(p.path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": p.path})
	})
}

func TestRouter_Setup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	New(engine).
		Register(&pingRegistrar{path: "/titles"}, &pingRegistrar{path: "/contracts"}).
		Setup()

	for _, path := range []string{"/api/v1/titles", "/api/v1/contracts"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/titles", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_WithAPIVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	New(engine, WithAPIVersion("v2")).
		Register(&pingRegistrar{path: "/titles"}).
		Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/titles", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
