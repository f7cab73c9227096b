package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantIDKey is the gin context key carrying the resolved tenant ID
const TenantIDKey = "tenant_id"

// TenantIDHeader is the header every tenant-scoped request must carry
const TenantIDHeader = "X-Tenant-ID"

// TenantConfig holds tenant middleware configuration
type TenantConfig struct {
	// SkipPaths bypass tenant resolution (health checks, admin surfaces)
	SkipPaths []string
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/ready"},
	}
}

// RequireTenant resolves the tenant from the X-Tenant-ID header and rejects
// requests without a valid one. Every repository query downstream is scoped
// by this ID.
func RequireTenant() gin.HandlerFunc {
	return RequireTenantWithConfig(DefaultTenantConfig())
}

// RequireTenantWithConfig returns tenant middleware with a custom configuration
func RequireTenantWithConfig(cfg TenantConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader(TenantIDHeader)
		if header == "" {
			abortTenant(c, "Missing "+TenantIDHeader+" header")
			return
		}

		tenantID, err := uuid.Parse(header)
		if err != nil || tenantID == uuid.Nil {
			abortTenant(c, "Invalid "+TenantIDHeader+" header")
			return
		}

		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by RequireTenant, or uuid.Nil if
// the middleware did not run on this route
func GetTenantID(c *gin.Context) uuid.UUID {
	value, exists := c.Get(TenantIDKey)
	if !exists {
		return uuid.Nil
	}
	tenantID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return tenantID
}

func abortTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "MISSING_TENANT",
			"message": message,
		},
	})
}
