// Package mail implements the notification channel of the verification
// gateway: delivering one-time codes over email through the Resend REST API.
//
// Delivery is best-effort: a failed send must never block code issuance.
// The client reports errors to the caller, which decides whether to fall
// back to revealing the code in the response.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendTimeout = 15 * time.Second

// Resend is a minimal client for the Resend transactional email API.
// Safe for concurrent use.
type Resend struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

// NewResend constructs a Resend client. baseURL is overridable for tests;
// pass "https://api.resend.com" in production.
func NewResend(apiKey, from, baseURL string) *Resend {
	return &Resend{
		apiKey:  apiKey,
		from:    from,
		baseURL: baseURL,
		client:  &http.Client{Timeout: sendTimeout},
	}
}

// Configured reports whether an API key is present. Used by the health
// endpoint; an unconfigured client fails every Send.
func (r *Resend) Configured() bool { return r.apiKey != "" }

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers an HTML email to a single recipient and returns the provider
// delivery id.
func (r *Resend) Send(ctx context.Context, to, subject, html string) (string, error) {
	if r.apiKey == "" {
		return "", fmt.Errorf("resend: no API key configured")
	}

	body, err := json.Marshal(sendRequest{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", fmt.Errorf("resend: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Bounded read keeps a misbehaving provider from bloating logs.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("resend: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("resend: decode response: %w", err)
	}
	return out.ID, nil
}

// CodeEmail renders the verification-code email body. The layout follows the
// product's dark theme so the code stands out in a crowded inbox.
func CodeEmail(code string) string {
	return fmt.Sprintf(`<div style="background:#0a0a0a; color:#dc2626; padding:40px; text-align:center; font-family:Arial; border:3px solid #dc2626; border-radius:10px;">
  <div style="font-size:16px; color:#666; margin-bottom:20px;">🦅 OPEN CLAW ENTERPRISE</div>
  <div style="font-size:60px; font-weight:bold; letter-spacing:10px;">%s</div>
  <div style="font-size:14px; color:#666; margin-top:20px;">Your verification code - expires in 10 minutes</div>
</div>`, code)
}
