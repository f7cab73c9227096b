package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func tenantTestRouter(captured *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireTenant())
	r.GET("/titles", func(c *gin.Context) {
		*captured = GetTenantID(c)
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireTenant_ValidHeader(t *testing.T) {
	var captured uuid.UUID
	r := tenantTestRouter(&captured)

	tenantID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/titles", nil)
	req.Header.Set(TenantIDHeader, tenantID.String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, captured)
}

func TestRequireTenant_MissingHeader(t *testing.T) {
	var captured uuid.UUID
	r := tenantTestRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/titles", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_TENANT")
}

func TestRequireTenant_InvalidHeader(t *testing.T) {
	var captured uuid.UUID
	r := tenantTestRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/titles", nil)
	req.Header.Set(TenantIDHeader, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequireTenant_SkipPath(t *testing.T) {
	var captured uuid.UUID
	r := tenantTestRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetTenantID_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetTenantID(c))
}
