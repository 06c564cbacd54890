package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loanflow-backend/internal/shared/server/middleware"
	"loanflow-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}

	response := gin.H{
		"userId": userID,
	}
	if role := middleware.UserRoleFromContext(c); role != "" {
		response["role"] = role
	}

	respond.JSON(c, http.StatusOK, response)
}
