package assignment

import (
	"tablebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAssignmentRoutes configures the table assignment routes
func SetupAssignmentRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	assignments := rg.Group("/assignments")
	assignments.Use(auth, middleware.RequireRoles(middleware.RoleOperator, middleware.RoleAdmin))
	{
		assignments.POST("", controller.AssignTable) // POST /api/v1/assignments - dry run, or commit with reservation_id
	}
}
