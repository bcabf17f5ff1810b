// Package response implements the shared JSON envelope every endpoint emits.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/survey-recon-api/pkg/errors"
)

// Envelope is the wire shape of every JSON response. Exactly one of Data
// and Error is set.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// Validation and merge output is derived data; clients must not cache it.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// JSON writes a success envelope with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	env := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		env.Meta = meta[0]
	}
	c.JSON(status, env)
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error normalises err into the envelope's error shape and uses its
// status as the HTTP code.
func Error(c *gin.Context, err error) {
	typed := appErrors.FromError(err)
	noStore(c)
	c.JSON(typed.Status, Envelope{Error: typed})
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
