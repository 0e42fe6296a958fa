package assignment

import (
	"net/http"

	"tablebook/internal/shared/middleware"
	"tablebook/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	AssignTable(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// AssignTable handles POST /api/v1/assignments
func (ctrl *controller) AssignTable(c *gin.Context) {
	var req AssignTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.Assign(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		response.RespondError(c, "Failed to assign table", err)
		return
	}

	message := "Table assigned successfully"
	switch {
	case result.Kind != KindAssigned:
		message = "No table available"
	case result.Mode == ModeDryRun:
		message = "Table available"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result, nil)
}
