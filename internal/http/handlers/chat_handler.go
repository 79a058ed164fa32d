// Agent router HTTP handlers.
//
// This file exposes the routed chat endpoints:
//   - POST /chat    (classify a message and forward it to a specialist agent)
//   - POST /chain   (run an ordered sequence of agent steps, fail-fast)
//
// Upstream completion failures are mapped onto a closed taxonomy of 502
// responses; raw upstream errors never reach clients.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/llm"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/services"
)

// RouterService defines the routing operations consumed by the HTTP layer.
// Implementations must be safe for concurrent use and honor the provided
// context.
type RouterService interface {
	// Route classifies and forwards one message, with optional session
	// memory or explicit context.
	Route(ctx context.Context, message, sessionToken, explicitContext string) (*services.RoutedReply, error)
	// Chain executes steps sequentially with fail-fast semantics.
	Chain(ctx context.Context, steps []services.ChainStep) ([]domain.StepResult, error)
}

//
// DTOs
//

// ChatRequest is the JSON payload for a routed chat message.
type ChatRequest struct {
	// Message is the natural-language task; required.
	Message string `json:"message" binding:"required" example:"Design a pricing page for our SaaS"`
	// SessionToken enables conversation memory when it names a live session.
	SessionToken string `json:"session_token,omitempty"`
	// Context, when present, is prefixed verbatim and suppresses stored history.
	Context string `json:"context,omitempty"`
}

// ChatResponse carries the routed reply and its display envelope.
type ChatResponse struct {
	Success   bool         `json:"success"`
	Agent     string       `json:"agent" example:"product_design"`
	AgentName string       `json:"agent_name" example:"Product Design"`
	Emoji     string       `json:"emoji" example:"🎨"`
	Result    string       `json:"result"`
	Raw       string       `json:"raw_response"`
	Timestamp time.Time    `json:"timestamp"`
	Usage     domain.Usage `json:"usage"`
}

// ChainStepRequest is one step of a chain request.
type ChainStepRequest struct {
	// Task is the step's instruction; required per step.
	Task string `json:"task" binding:"required"`
	// Agent optionally pins a specialist; unknown ids fall back to
	// keyword classification of the task.
	Agent string `json:"agent,omitempty" example:"backend_engineer"`
}

// ChainRequest is the JSON payload for a sequential agent chain.
type ChainRequest struct {
	Steps []ChainStepRequest `json:"steps" binding:"required"`
}

// ChainResponse wraps the ordered step results. A failed step is always the
// last entry; steps after it never executed.
type ChainResponse struct {
	Success bool                `json:"success"`
	Steps   []domain.StepResult `json:"steps"`
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Route a message to a specialist agent
// @Description Classifies the message by keywords, composes context from the session history or the explicit context field, and forwards it to the completion API.
// @Tags        Agents
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty message"
// @Failure     502  {object}  handlers.ErrorResponse  "Completion API failure"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "no message provided")
		return
	}

	reply, err := h.routerSvc.Route(c.Request.Context(), req.Message, req.SessionToken, req.Context)
	if err != nil {
		failUpstream(c, err)
		return
	}

	ok(c, http.StatusOK, ChatResponse{
		Success:   true,
		Agent:     reply.Agent,
		AgentName: reply.AgentName,
		Emoji:     reply.Emoji,
		Result:    reply.Formatted,
		Raw:       reply.Reply,
		Timestamp: reply.Timestamp,
		Usage:     reply.Usage,
	})
}

// Chain godoc
// @ID          chain
// @Summary     Run a sequential agent chain
// @Description Executes steps strictly in order, feeding each step a rolling summary of previous outputs. The chain halts at the first failing step.
// @Tags        Agents
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ChainRequest  true  "Chain payload"
//
// @Success     200  {object}  handlers.ChainResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing steps"
// @Router      /chain [post]
func (h *Handlers) Chain(c *gin.Context) {
	var req ChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	steps := make([]services.ChainStep, 0, len(req.Steps))
	for _, s := range req.Steps {
		steps = append(steps, services.ChainStep{Task: s.Task, Agent: s.Agent})
	}

	results, err := h.routerSvc.Chain(c.Request.Context(), steps)
	if err != nil {
		if errors.Is(err, services.ErrNoSteps) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "chain failed")
		return
	}

	// Per-step failures are part of the payload, not an HTTP error: the
	// caller gets every completed step plus the failed one.
	success := len(results) == 0 || results[len(results)-1].Error == ""
	ok(c, http.StatusOK, ChainResponse{Success: success, Steps: results})
}

// failUpstream translates router errors into HTTP responses: BadRequest for
// empty input, the closed 502 taxonomy for the completion failure family.
func failUpstream(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, llm.ErrRateLimited):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamRateLimited, llm.ErrRateLimited.Error())
	case errors.Is(err, llm.ErrAuthFailed):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamAuth, llm.ErrAuthFailed.Error())
	case errors.Is(err, llm.ErrModelError):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamModel, llm.ErrModelError.Error())
	case errors.Is(err, llm.ErrUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamDown, llm.ErrUnavailable.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "chat failed")
	}
}
