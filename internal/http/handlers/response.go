// Package handlers provides the HTTP handler implementations for the public
// API: verification, chat routing, chains, sessions, and health.
//
// This file holds the response envelope helpers. Every error answer uses the
// same shape so clients can branch on a stable code:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "code_mismatch",
//	  "message": "invalid code, try again"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by all endpoints. Code is a
// stable machine-readable string (see errors.go); Message is safe to show to
// users; RequestID echoes X-Request-ID to correlate with server logs.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"resource not found"`
}

// fail aborts the request with an ErrorResponse. Server-side failures (>=500)
// are additionally logged through the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for callers outside the package, such
// as the router's NoRoute and NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
