package reservations

import (
	"net/http"

	"tablebook/internal/shared/middleware"
	"tablebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateReservation(c *gin.Context)
	GetReservation(c *gin.Context)
	TransitionStatus(c *gin.Context)
	ExtendOption(c *gin.Context)
	GetAuditTrail(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateReservation handles POST /api/v1/reservations
func (ctrl *controller) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	res, err := ctrl.service.Create(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		response.RespondError(c, "Failed to create reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Reservation created successfully", res, nil)
}

// GetReservation handles GET /api/v1/reservations/:id
func (ctrl *controller) GetReservation(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	res, err := ctrl.service.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get reservation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", res, nil)
}

// TransitionStatus handles POST /api/v1/reservations/:id/status
func (ctrl *controller) TransitionStatus(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.Transition(c.Request.Context(), id, req, middleware.ActorID(c))
	if err != nil {
		response.RespondError(c, "Failed to change reservation status", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reservation status changed successfully", result, nil)
}

// ExtendOption handles POST /api/v1/reservations/:id/option/extend
func (ctrl *controller) ExtendOption(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	var req ExtendOptionRequest
	// An empty body extends by the default number of hours.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
	}

	result, err := ctrl.service.ExtendOption(c.Request.Context(), id, req.ExtraHours, middleware.ActorID(c))
	if err != nil {
		response.RespondError(c, "Failed to extend option", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Option extended successfully", result, nil)
}

// GetAuditTrail handles GET /api/v1/reservations/:id/audit
func (ctrl *controller) GetAuditTrail(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}

	entries, err := ctrl.service.AuditTrail(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get audit trail", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Audit trail retrieved successfully", gin.H{
		"entries": entries,
		"count":   len(entries),
	}, nil)
}

func reservationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid reservation ID", nil, err.Error())
		return uuid.Nil, false
	}
	return id, true
}
