package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func identityRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.Use(extra...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId": UserIDFromContext(c),
			"role":   UserRoleFromContext(c),
		})
	})
	return r
}

func TestIdentityRejectsMissingHeader(t *testing.T) {
	r := identityRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestIdentityStoresUserAndRole(t *testing.T) {
	r := identityRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "user123")
	req.Header.Set("X-User-Role", "officer")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{"user123", "officer"} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	r := identityRouter(RequireRole(RoleOfficer))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "user123")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status without role = %d, want 403", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "officer-1")
	req.Header.Set("X-User-Role", RoleOfficer)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("status with role = %d, want 200", resp.Code)
	}
}
