package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Token   string `json:"conflicting_token,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// WriteError maps a core failure to its HTTP shape. Handlers own the
// wording of internal errors only; everything typed passes through.
func WriteError(c *gin.Context, err error) {
	var be *BusinessError
	if !errors.As(err, &be) {
		Internal(c, "internal_error", "Something went wrong.")
		return
	}

	switch be.Kind {
	case KindValidation, KindRejected:
		Write(c, http.StatusBadRequest, be.Code, be.Message)
	case KindConflict:
		c.JSON(http.StatusConflict, HTTPError{
			Code:    be.Code,
			Message: be.Message,
			Token:   be.Token,
		})
	case KindRetryExhausted:
		Write(c, http.StatusServiceUnavailable, be.Code, be.Message)
	default:
		Internal(c, be.Code, "Something went wrong.")
	}
}
