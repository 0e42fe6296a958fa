package availability

import (
	"net/http"

	"tablebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	GetAvailability(c *gin.Context)
	DiagnoseSlot(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// GetAvailability handles GET /api/v1/locations/:locationId/availability
func (ctrl *controller) GetAvailability(c *gin.Context) {
	locationID, ok := locationIDParam(c)
	if !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.Availability(c.Request.Context(), locationID, req)
	if err != nil {
		response.RespondError(c, "Failed to load availability", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Availability retrieved successfully", result, nil)
}

// DiagnoseSlot handles GET /api/v1/locations/:locationId/availability/diagnose
func (ctrl *controller) DiagnoseSlot(c *gin.Context) {
	locationID, ok := locationIDParam(c)
	if !ok {
		return
	}

	var req DiagnoseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.Diagnose(c.Request.Context(), locationID, req)
	if err != nil {
		response.RespondError(c, "Failed to diagnose slot", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Slot diagnosed successfully", result, nil)
}

func locationIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid location ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}
