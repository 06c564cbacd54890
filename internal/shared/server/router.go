package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/applications"
	"loanflow-backend/internal/products"
	"loanflow-backend/internal/services/health"
	"loanflow-backend/internal/shared/config"
	"loanflow-backend/internal/shared/metrics"
	"loanflow-backend/internal/shared/server/middleware"
	"loanflow-backend/internal/workflows"
)

// RouterDeps collects the handlers wired into the HTTP router.
type RouterDeps struct {
	Config              config.Config
	Health              *health.Service
	ProductsHandler     *products.Handler
	ApplicationsHandler *applications.Handler
	WorkflowsHandler    *workflows.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Health.Status(c.Request.Context()))
	})

	authed := api.Group("")
	authed.Use(
		middleware.Identity(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"UPLOAD": {Rate: 0.5, Burst: 5},
				"MUTATE": {Rate: 2, Burst: 10},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	registerMeRoutes(authed)
	if deps.ProductsHandler != nil {
		deps.ProductsHandler.RegisterRoutes(authed)
	}
	if deps.ApplicationsHandler != nil {
		deps.ApplicationsHandler.RegisterRoutes(authed)
	}

	if deps.WorkflowsHandler != nil {
		staff := authed.Group("")
		staff.Use(middleware.RequireRole(middleware.RoleOfficer))
		deps.WorkflowsHandler.RegisterRoutes(staff)
	}

	return r
}

// rateLimitGroup buckets requests: uploads are throttled harder than other
// mutations, reads are not limited.
func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodGet {
		return "READ"
	}
	if strings.HasSuffix(c.Request.URL.Path, "/documents") {
		return "UPLOAD"
	}
	return "MUTATE"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
