// Health HTTP handler.
//
// GET /health reports service status plus configuration presence of each
// external dependency (booleans only, never key material). A liveness-only
// probe exists at the server root; this endpoint is the detailed variant
// under the API base path.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthInfo is the static dependency/configuration snapshot injected at
// startup.
type HealthInfo struct {
	Version        string
	Model          string
	AgentCount     int
	GroqConfigured bool
	MailConfigured bool
	Persistent     bool
}

// HealthResponse is the detailed health payload.
type HealthResponse struct {
	Status          string    `json:"status" example:"healthy"`
	Timestamp       time.Time `json:"timestamp"`
	Version         string    `json:"version" example:"3.0.0"`
	Agents          int       `json:"agents" example:"10"`
	Model           string    `json:"model" example:"llama-3.3-70b-versatile"`
	GroqConnected   bool      `json:"groqConnected"`
	ResendConnected bool      `json:"resendConnected"`
	Persistent      bool      `json:"persistent"`
}

// Health godoc
// @ID          health
// @Summary     Detailed health and dependency configuration
// @Description Reports service status and whether each external dependency (completion API, email provider, persistence) is configured.
// @Tags        Health
// @Produce     json
//
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{
		Status:          "healthy",
		Timestamp:       time.Now().UTC(),
		Version:         h.health.Version,
		Agents:          h.health.AgentCount,
		Model:           h.health.Model,
		GroqConnected:   h.health.GroqConfigured,
		ResendConnected: h.health.MailConfigured,
		Persistent:      h.health.Persistent,
	})
}
