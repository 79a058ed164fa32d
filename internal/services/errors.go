// Package services defines the business logic for verification, sessions,
// and agent routing. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer; mapping to
// user-facing messages and HTTP status codes happens at the handler layer.
// The upstream completion failure family (rate limited, auth failed,
// unavailable, model error) lives in internal/llm, next to the code that
// classifies it.
package services

import "errors"

// Verification-related errors. The expired/attempts/mismatch trio is always
// user-correctable by requesting a new code.
var (
	// ErrInvalidIdentity is returned when the identity is empty or not a
	// plausible email address.
	ErrInvalidIdentity = errors.New("identity must be a valid email address")

	// ErrCodeNotFound indicates no live verification entry exists for the
	// identity. Request a new code.
	ErrCodeNotFound = errors.New("no code found, request a new code")

	// ErrCodeExpired indicates the code's validity window has elapsed.
	// The entry is deleted when this is detected.
	ErrCodeExpired = errors.New("code expired, request a new code")

	// ErrTooManyAttempts indicates the attempt budget is exhausted.
	// The entry is deleted.
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")

	// ErrCodeMismatch indicates the submitted code does not match.
	// The entry is retained and its attempt counter incremented.
	ErrCodeMismatch = errors.New("invalid code, try again")
)

// Router- and session-related errors.
var (
	// ErrEmptyMessage is returned when a chat or chain request carries an
	// empty message/task.
	ErrEmptyMessage = errors.New("no message provided")

	// ErrNoSteps is returned when a chain request has no steps.
	ErrNoSteps = errors.New("chain requires at least one step")

	// ErrSessionNotFound indicates the session token is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)
