package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/pace-projection-api/pkg/errors"
	"github.com/noah-isme/pace-projection-api/pkg/middleware/requestid"
)

// Meta carries auxiliary response fields such as the generation strategy.
type Meta map[string]interface{}

// Envelope is the body of every API response. Exactly one of Data and Error is set.
type Envelope struct {
	Data      interface{}      `json:"data,omitempty"`
	Error     *appErrors.Error `json:"error,omitempty"`
	Meta      Meta             `json:"meta,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
}

// Projections and export states change between calls, so nothing is cacheable.
func write(c *gin.Context, status int, envelope Envelope) {
	envelope.RequestID = requestid.Value(c)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, envelope)
}

// OK sends a 200 with data and optional meta.
func OK(c *gin.Context, data interface{}, meta ...Meta) {
	envelope := Envelope{Data: data}
	if len(meta) > 0 {
		envelope.Meta = meta[0]
	}
	write(c, http.StatusOK, envelope)
}

// Created sends a 201 for a stored projection version.
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Envelope{Data: data})
}

// Accepted sends a 202 for a queued export.
func Accepted(c *gin.Context, data interface{}) {
	write(c, http.StatusAccepted, Envelope{Data: data})
}

// Error maps err onto its typed status. Untyped errors become INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	write(c, appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
