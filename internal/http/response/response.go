// Package response defines the uniform JSON error envelope and the
// success helper shared by all handlers.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pyplots/pyplots-backend/internal/platform/apierr"
)

type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope, deriving status and kind
// from the typed API error; anything untyped is INTERNAL.
func RespondError(c *gin.Context, err error) {
	kind := apierr.KindOf(err)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(kind.Status(), ErrorEnvelope{
		Error: APIError{
			Kind:    string(kind),
			Message: msg,
			Path:    c.Request.URL.Path,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
