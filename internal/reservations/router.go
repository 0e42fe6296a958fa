package reservations

import (
	"tablebook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReservationRoutes configures all reservation-related routes. auth authenticates
// operators; creation stays open to the booking widget.
func SetupReservationRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	// Public routes - the booking widget creates reservations
	public := rg.Group("/reservations")
	{
		public.POST("", controller.CreateReservation) // POST /api/v1/reservations
	}

	// Operator routes
	operator := rg.Group("/reservations")
	operator.Use(auth, middleware.RequireRoles(middleware.RoleOperator, middleware.RoleAdmin))
	{
		operator.GET("/:id", controller.GetReservation)              // GET  /api/v1/reservations/:id
		operator.GET("/:id/audit", controller.GetAuditTrail)         // GET  /api/v1/reservations/:id/audit
		operator.POST("/:id/status", controller.TransitionStatus)    // POST /api/v1/reservations/:id/status
		operator.POST("/:id/option/extend", controller.ExtendOption) // POST /api/v1/reservations/:id/option/extend
		operator.POST("/operator", controller.CreateReservation)     // POST /api/v1/reservations/operator - actor recorded
	}
}
