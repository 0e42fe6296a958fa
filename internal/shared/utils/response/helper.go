package response

import (
	"net/http"

	"tablebook/internal/shared/errs"
	"tablebook/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// ErrorBody is the machine-readable part of an error response.
type ErrorBody struct {
	Code    errs.Code              `json:"code"`
	Detail  string                 `json:"detail"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HTTPStatus maps an error code to the status returned to callers.
func HTTPStatus(code errs.Code) int {
	switch code {
	case errs.CodeInvalidRequest, errs.CodeInvalidTime:
		return http.StatusBadRequest
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeIllegalTransition, errs.CodeNotOption, errs.CodeSlotUnavailable, errs.CodeNoTableAvailable:
		return http.StatusConflict
	case errs.CodeOverrideRequiresActor:
		return http.StatusForbidden
	case errs.CodeInvalidConfig:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err with its code and the matching HTTP status.
func RespondError(c *gin.Context, message string, err error) {
	code := errs.CodeOf(err)
	status := HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		logger.GetDefault().LogHTTPError(c, err, status)
	}
	RespondJSON(c, "error", status, message, nil, ErrorBody{
		Code:    code,
		Detail:  err.Error(),
		Details: errs.DetailsOf(err),
	})
}
