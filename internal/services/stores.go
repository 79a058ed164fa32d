// Package services – store contracts
//
// This file declares the injectable store interfaces the services depend on.
// Production wiring provides the in-memory implementations from
// internal/store (and the SQLite-backed session store from internal/repo
// when persistence is configured); tests substitute small fakes without
// touching process-wide state.
package services

import (
	"context"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
)

// CodeStore is the keyed verification-entry table. Implementations only need
// to be safe for concurrent map access; the verification service serializes
// its own read-modify-write sequences per operation.
type CodeStore interface {
	// Get returns the live entry for identity, if any.
	Get(identity string) (domain.VerificationEntry, bool)
	// Put stores an entry, replacing any previous entry for the identity.
	Put(e domain.VerificationEntry)
	// Delete removes the entry for identity; missing entries are a no-op.
	Delete(identity string)
}

// SessionStore owns sessions and their conversation histories, keyed by the
// opaque session token. Implementations signal unknown tokens with
// store.ErrNotFound and must keep append-and-trim atomic per token.
type SessionStore interface {
	// Create registers a new session with an empty history.
	Create(ctx context.Context, sess domain.Session) error
	// Get returns the session for token.
	Get(ctx context.Context, token string) (*domain.Session, error)
	// Delete removes the session and its history. Idempotent.
	Delete(ctx context.Context, token string) error
	// History returns the full stored history, oldest first.
	History(ctx context.Context, token string) ([]domain.Turn, error)
	// Recent returns the most recent n turns, oldest first.
	Recent(ctx context.Context, token string, n int) ([]domain.Turn, error)
	// AppendExchange appends turns and trims to the most recent maxTurns.
	AppendExchange(ctx context.Context, token string, turns []domain.Turn, maxTurns int) error
}

// Mailer is the outbound notification channel used to deliver codes.
type Mailer interface {
	// Send delivers an HTML email and returns the provider delivery id.
	Send(ctx context.Context, to, subject, html string) (string, error)
	// Configured reports whether the channel has credentials.
	Configured() bool
}

// CompletionClient is the remote completion API consumed by the router.
type CompletionClient interface {
	// Complete sends the two-message exchange and returns reply text with
	// token usage. Errors wrap the llm package's failure family.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, domain.Usage, error)
	// Model reports the configured model id.
	Model() string
}
