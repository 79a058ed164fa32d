// Package store provides the process-memory implementations of the keyed
// tables the gateway needs: the verification-code table and the
// session/history table. Both satisfy the store interfaces declared in the
// services package, so tests and alternative backends (see internal/repo for
// the SQLite-backed session store) can be swapped in without touching
// process-wide state.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
)

// ErrNotFound is returned when a requested session token is unknown.
// Implementations backed by other stores translate their own miss errors
// to this sentinel so the service layer has one thing to check.
var ErrNotFound = errors.New("session not found")

// Codes is a mutex-guarded in-memory verification-entry table keyed by
// identity. It holds plain data; the attempt/expiry read-modify-write
// sequences are serialized one level up, in the verification service.
type Codes struct {
	mu      sync.RWMutex
	entries map[string]domain.VerificationEntry
}

// NewCodes returns an empty code table.
func NewCodes() *Codes {
	return &Codes{entries: make(map[string]domain.VerificationEntry)}
}

// Get returns the live entry for identity, if any.
func (c *Codes) Get(identity string) (domain.VerificationEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[identity]
	return e, ok
}

// Put stores an entry, replacing any previous entry for the same identity.
func (c *Codes) Put(e domain.VerificationEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[e.Identity] = e
}

// Delete removes the entry for identity. Deleting a missing entry is a no-op.
func (c *Codes) Delete(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, identity)
}

// sessionRecord pairs a session with its conversation history.
type sessionRecord struct {
	session domain.Session
	turns   []domain.Turn
}

// Sessions is a mutex-guarded in-memory session/history table keyed by
// session token. It is the default backend; when DB_PATH is configured the
// SQLite-backed store in internal/repo is used instead.
type Sessions struct {
	mu      sync.RWMutex
	records map[string]*sessionRecord
}

// NewSessions returns an empty session table.
func NewSessions() *Sessions {
	return &Sessions{records: make(map[string]*sessionRecord)}
}

// Create registers a new session with an empty history. The caller is
// responsible for generating a unique token.
func (s *Sessions) Create(ctx context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[sess.Token] = &sessionRecord{session: sess}
	return nil
}

// Get returns the session for token, or ErrNotFound.
func (s *Sessions) Get(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[token]
	if !ok {
		return nil, ErrNotFound
	}
	sess := rec.session
	return &sess, nil
}

// Delete removes the session and its history. Idempotent.
func (s *Sessions) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, token)
	return nil
}

// History returns a copy of the full stored history, oldest first.
func (s *Sessions) History(ctx context.Context, token string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[token]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]domain.Turn, len(rec.turns))
	copy(out, rec.turns)
	return out, nil
}

// Recent returns a copy of the most recent n turns, oldest first.
func (s *Sessions) Recent(ctx context.Context, token string, n int) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[token]
	if !ok {
		return nil, ErrNotFound
	}
	turns := rec.turns
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// AppendExchange appends the given turns and trims the history to the most
// recent maxTurns entries, dropping only the oldest. The append-and-trim is
// one critical section, so concurrent exchanges on the same token serialize.
func (s *Sessions) AppendExchange(ctx context.Context, token string, turns []domain.Turn, maxTurns int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		return ErrNotFound
	}
	rec.turns = append(rec.turns, turns...)
	if maxTurns > 0 && len(rec.turns) > maxTurns {
		trimmed := make([]domain.Turn, maxTurns)
		copy(trimmed, rec.turns[len(rec.turns)-maxTurns:])
		rec.turns = trimmed
	}
	return nil
}
