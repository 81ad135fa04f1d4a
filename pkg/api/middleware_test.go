package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(method, target string, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c, rec
}

func TestTenantScope_MissingHeadersRejected(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/v1/chat", nil)
	tenantScope()(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantScope_GeneratesTraceIDWhenAbsent(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/api/v1/chat", map[string]string{
		"X-Tenant-ID": "acme", "X-Site-ID": "site-1",
	})
	tenantScope()(c)

	require.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, rec.Code)
	tenantID, siteID := tenantSiteFrom(c)
	assert.Equal(t, "acme", tenantID)
	assert.Equal(t, "site-1", siteID)
	assert.NotEmpty(t, traceIDFrom(c))
}

func TestTenantScope_PreservesCallerSuppliedTraceID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/api/v1/chat", map[string]string{
		"X-Tenant-ID": "acme", "X-Site-ID": "site-1", "X-Trace-ID": "trace-123",
	})
	tenantScope()(c)

	assert.Equal(t, "trace-123", traceIDFrom(c))
}

func TestActorFrom_PrefersForwardedUserThenEmailThenFallback(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/", map[string]string{
		"X-Forwarded-User": "alice", "X-Forwarded-Email": "alice@example.com",
	})
	assert.Equal(t, "alice", actorFrom(c))

	c2, _ := newTestContext(http.MethodGet, "/", map[string]string{
		"X-Forwarded-Email": "bob@example.com",
	})
	assert.Equal(t, "bob@example.com", actorFrom(c2))

	c3, _ := newTestContext(http.MethodGet, "/", nil)
	assert.Equal(t, "api-client", actorFrom(c3))
}

func TestSecurityHeaders_SetOnResponse(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/", nil)
	securityHeaders()(c)

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
