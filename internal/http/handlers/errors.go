// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes give
// clients a stable, machine-readable error taxonomy alongside human-readable
// messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (bad_request, not_found, …) mirror common HTTP status
//     semantics to aid interoperability.
//   - The verification family (code_expired, too_many_attempts, code_mismatch)
//     is always user-correctable by requesting a new code.
//   - The upstream family (rate_limited, auth_failed, unavailable, model_error)
//     maps completion-API failures onto 502 responses without leaking raw
//     upstream errors or credentials.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Verification family:
	ErrCodeExpired         = "code_expired"
	ErrCodeTooManyAttempts = "too_many_attempts"
	ErrCodeMismatch        = "code_mismatch"

	// Upstream completion family:
	ErrCodeUpstreamRateLimited = "rate_limited"
	ErrCodeUpstreamAuth        = "auth_failed"
	ErrCodeUpstreamDown        = "unavailable"
	ErrCodeUpstreamModel       = "model_error"
)
