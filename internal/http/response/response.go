package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cms-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// DataEnvelope is the success shape: {"data": ..., "pagination": ...}.
type DataEnvelope struct {
	Data       any `json:"data"`
	Pagination any `json:"pagination,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders err with the status and code carried by an *apierr.Error.
// Anything else is a 500 with a generic message.
func RespondAPIError(c *gin.Context, err error) {
	status, code := apierr.From(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		if code == "internal_error" {
			RespondError(c, status, code, nil)
			return
		}
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondData(c *gin.Context, status int, data any) {
	c.JSON(status, DataEnvelope{Data: data})
}

func RespondPage(c *gin.Context, data any, pagination any) {
	c.JSON(http.StatusOK, DataEnvelope{Data: data, Pagination: pagination})
}
