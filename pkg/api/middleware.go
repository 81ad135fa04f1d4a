package api

import (
	"github.com/google/uuid"

	"github.com/gin-gonic/gin"
)

// securityHeaders sets standard defensive response headers on every
// response.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// tenantScope requires X-Tenant-ID and X-Site-ID on management endpoints
// and generates X-Trace-ID if the caller omitted it (spec.md §6).
func tenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		siteID := c.GetHeader("X-Site-ID")
		if tenantID == "" || siteID == "" {
			respondError(c, errMissingTenantScope())
			c.Abort()
			return
		}

		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(ctxKeyTenantID, tenantID)
		c.Set(ctxKeySiteID, siteID)
		c.Set(ctxKeyTraceID, traceID)
		c.Next()
	}
}

const (
	ctxKeyTenantID = "tenant_id"
	ctxKeySiteID   = "site_id"
	ctxKeyTraceID  = "trace_id"
)

func tenantSiteFrom(c *gin.Context) (tenantID, siteID string) {
	return c.GetString(ctxKeyTenantID), c.GetString(ctxKeySiteID)
}

func traceIDFrom(c *gin.Context) string {
	return c.GetString(ctxKeyTraceID)
}

// actorFrom extracts the acting operator for admin audit logging.
// Priority: X-Forwarded-User > X-Forwarded-Email > "api-client", matching
// an oauth2-proxy-fronted deployment.
func actorFrom(c *gin.Context) string {
	if user := c.GetHeader("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.GetHeader("X-Forwarded-Email"); email != "" {
		return email
	}
	return "api-client"
}
