package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkcare/care-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response with 201 status
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response mapped from the app error taxonomy
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "internal server error"
	code := int(errors.ErrInternal)

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		statusCode = httpStatus(appErr.Code)
		message = appErr.Message
		code = int(appErr.Code)
	}

	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrNotAuthenticated:
		return http.StatusUnauthorized
	case errors.ErrNotAuthorized, errors.ErrRestricted:
		return http.StatusForbidden
	case errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
