// Package services – SessionService
//
// This file implements session reads and deletion on top of the injected
// SessionStore, including the lazy TTL policy: sessions never expire by
// default (TTL zero, matching the product's observed behavior), but when a
// TTL is configured, an overdue session is treated as unknown and deleted on
// the read path rather than by a background sweep.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/store"
)

// SessionService exposes session lookup and deletion.
type SessionService struct {
	Store SessionStore
	// TTL of 0 disables expiry.
	TTL time.Duration
}

// Get returns the session and its full stored history, or
// ErrSessionNotFound for unknown or expired tokens.
func (s *SessionService) Get(ctx context.Context, token string) (*domain.Session, []domain.Turn, error) {
	// The raw token is a credential and stays out of span attributes.
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Bool("session.token_present", token != "")),
	)
	defer span.End()

	sess, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, ErrSessionNotFound
	}
	history, err := s.Store.History(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return sess, history, nil
}

// Delete removes a session and its history. Deleting an unknown token
// succeeds, keeping the operation idempotent.
func (s *SessionService) Delete(ctx context.Context, token string) error {
	ctx, span := otel.Tracer("services/SessionService").Start(ctx, "Delete")
	defer span.End()
	return s.Store.Delete(ctx, token)
}

// Resolve looks up a token and applies the TTL policy. It returns (nil, nil)
// for unknown or expired tokens: callers that merely *reference* a session
// (the router) treat absence as "no conversation memory", not an error.
func (s *SessionService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.Store.Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.TTL > 0 && time.Since(sess.CreatedAt) > s.TTL {
		// Lazy one-shot expiry, mirroring the verification-code path.
		if derr := s.Store.Delete(ctx, token); derr != nil {
			return nil, derr
		}
		return nil, nil
	}
	return sess, nil
}
