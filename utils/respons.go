package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravbhatt9854/Foody/services"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError maps a tagged engine error to its HTTP status. Every
// rejection carries the error kind alongside the human-readable message.
func RespondAppError(c *gin.Context, err error) {
	kind := services.KindOf(err)

	var code int
	switch kind {
	case services.KindUnauthorized:
		code = http.StatusUnauthorized
	case services.KindForbidden:
		code = http.StatusForbidden
	case services.KindNotFound:
		code = http.StatusNotFound
	case services.KindConflict:
		code = http.StatusConflict
	case services.KindInvalidTransition, services.KindInvalidState,
		services.KindAlreadyReviewed, services.KindValidation:
		code = http.StatusBadRequest
	default:
		code = http.StatusInternalServerError
	}

	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Error:   string(kind),
	})
}
