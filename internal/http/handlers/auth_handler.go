// Verification gateway HTTP handlers.
//
// This file exposes the code-based login endpoints:
//   - POST /send-code     (issue a one-time code to an email identity)
//   - POST /verify-code   (exchange identity+code for a session token)
//
// Handlers are transport-thin: they validate input, call the verification
// service, and translate service errors into the stable HTTP error taxonomy.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/services"
)

//
// Service contracts (context-aware)
//

// VerificationService defines the code-lifecycle operations consumed by the
// HTTP layer. Implementations must be safe for concurrent use and honor the
// provided context.
type VerificationService interface {
	// IssueCode generates and delivers a fresh code for identity.
	IssueCode(ctx context.Context, identity string) (*services.IssueResult, error)
	// VerifyCode validates a submitted code and mints a session on success.
	VerifyCode(ctx context.Context, identity, code string) (*domain.Session, error)
}

//
// DTOs
//

// SendCodeRequest is the JSON payload for requesting a verification code.
type SendCodeRequest struct {
	// Email is the identity the code is bound and delivered to.
	Email string `json:"email" binding:"required" example:"founder@openclaw.dev"`
}

// SendCodeResponse reports issuance and delivery outcome. Code is present
// when the deployment reveals codes or delivery fell back.
type SendCodeResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty" example:"482913"`
	ExpiresIn int    `json:"expires_in" example:"600"`
	Delivered bool   `json:"delivered"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// VerifyCodeRequest is the JSON payload for submitting a code.
type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required" example:"founder@openclaw.dev"`
	Code  string `json:"code"  binding:"required" example:"482913"`
}

// VerifyCodeResponse wraps the minted session.
type VerifyCodeResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Session domain.Session `json:"session"`
}

//
// Handlers
//

// SendCode godoc
// @ID          sendCode
// @Summary     Issue a verification code
// @Description Generates a one-time 6-digit code for the given email identity and attempts email delivery. Delivery failure never blocks issuance.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SendCodeRequest  true  "Identity payload"
//
// @Success     200  {object}  handlers.SendCodeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /send-code [post]
func (h *Handlers) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.verSvc.IssueCode(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidIdentity) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue code")
		return
	}

	msg := "Code sent to your email!"
	if res.Fallback {
		msg = "Use this code:"
	}
	ok(c, http.StatusOK, SendCodeResponse{
		Success:   true,
		Message:   msg,
		Code:      res.Code,
		ExpiresIn: res.ExpiresIn,
		Delivered: res.Delivered,
		Fallback:  res.Fallback,
	})
}

// VerifyCode godoc
// @ID          verifyCode
// @Summary     Verify a code and mint a session
// @Description Validates the submitted code within its time window and attempt budget. On success the code is consumed and an opaque session token is returned.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.VerifyCodeRequest  true  "Identity and code"
//
// @Success     200  {object}  handlers.VerifyCodeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Expired, exhausted, or mismatched code"
// @Failure     404  {object}  handlers.ErrorResponse  "No code issued for identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /verify-code [post]
func (h *Handlers) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sess, err := h.verSvc.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidIdentity):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrCodeNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrCodeExpired):
			fail(c, http.StatusBadRequest, ErrCodeExpired, err.Error())
		case errors.Is(err, services.ErrTooManyAttempts):
			fail(c, http.StatusBadRequest, ErrCodeTooManyAttempts, err.Error())
		case errors.Is(err, services.ErrCodeMismatch):
			fail(c, http.StatusBadRequest, ErrCodeMismatch, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "verification failed")
		}
		return
	}

	ok(c, http.StatusOK, VerifyCodeResponse{
		Success: true,
		Message: "Welcome to Open Claw Enterprise!",
		Session: *sess,
	})
}
