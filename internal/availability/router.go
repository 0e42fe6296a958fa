package availability

import (
	"tablebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAvailabilityRoutes configures the availability routes
func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	locations := rg.Group("/locations/:locationId/availability")
	{
		// Public routes
		locations.GET("", controller.GetAvailability) // GET /api/v1/locations/:locationId/availability

		// Operator routes
		operator := locations.Group("")
		operator.Use(auth, middleware.RequireRoles(middleware.RoleOperator, middleware.RoleAdmin))
		{
			operator.GET("/diagnose", controller.DiagnoseSlot) // GET /api/v1/locations/:locationId/availability/diagnose
		}
	}
}
