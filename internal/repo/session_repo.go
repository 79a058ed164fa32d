// Package repo implements the optional SQLite persistence layer for sessions
// and conversation turns. This file provides repository functions for the
// Session and Turn models and the Store adapter consumed by services.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a session is not found, functions return gorm.ErrRecordNotFound
//     (also exported as ErrNotFound in db.go).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/store"
)

// CreateSession inserts a new Session row. The row ID is a generated UUID;
// the opaque token comes from the caller (the verification service).
func CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetSessionByToken fetches a session by its opaque token, or ErrNotFound.
func GetSessionByToken(ctx context.Context, db *gorm.DB, token string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).Where("token = ?", token).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSessionByToken soft-deletes a session and its turns. Deleting an
// unknown token is a no-op, keeping the operation idempotent.
func DeleteSessionByToken(ctx context.Context, db *gorm.DB, token string) error {
	s, err := GetSessionByToken(ctx, db, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", s.ID).Delete(&domain.Turn{}).Error; err != nil {
			return err
		}
		return tx.Delete(s).Error
	})
}

// ListTurns returns all live turns of a session ordered oldest first.
func ListTurns(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.Turn, error) {
	var turns []domain.Turn
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&turns).Error
	return turns, err
}

// RecentTurns returns the most recent n turns of a session, oldest first.
func RecentTurns(ctx context.Context, db *gorm.DB, sessionID string, n int) ([]domain.Turn, error) {
	var turns []domain.Turn
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&turns).Error
	if err != nil {
		return nil, err
	}
	// Flip newest-first query order back to chronological.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendTurns inserts the given turns and trims the session's history to the
// most recent maxTurns rows, all within one transaction so a concurrent
// exchange cannot interleave between append and trim.
//
// The store owns turn ordering: caller-supplied timestamps are ignored and
// every row is re-stamped with a strictly increasing created_at, never behind
// the session's newest existing row. ListTurns and RecentTurns sort on
// created_at, so turns always read back in the order they were written.
func AppendTurns(ctx context.Context, db *gorm.DB, sessionID string, turns []domain.Turn, maxTurns int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := time.Now().UTC()
		var last domain.Turn
		err := tx.Where("session_id = ?", sessionID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		switch {
		case err == nil:
			if !last.CreatedAt.Before(base) {
				base = last.CreatedAt.Add(time.Microsecond)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		for i := range turns {
			if turns[i].ID == "" {
				turns[i].ID = uuid.NewString()
			}
			turns[i].SessionID = sessionID
			turns[i].CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
			if err := tx.Create(&turns[i]).Error; err != nil {
				return err
			}
		}
		if maxTurns <= 0 {
			return nil
		}
		var count int64
		if err := tx.Model(&domain.Turn{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
			return err
		}
		if count <= int64(maxTurns) {
			return nil
		}
		var overflow []domain.Turn
		if err := tx.Where("session_id = ?", sessionID).
			Order("created_at ASC, id ASC").
			Limit(int(count) - maxTurns).
			Find(&overflow).Error; err != nil {
			return err
		}
		for i := range overflow {
			if err := tx.Delete(&overflow[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SessionStats returns the turn count and most recent activity timestamp for
// a session; used to build weak ETags on session reads.
func SessionStats(ctx context.Context, db *gorm.DB, sessionID string) (int64, *time.Time, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Turn{}).
		Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	var last domain.Turn
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&last).Error; err != nil {
		return count, nil, err
	}
	ts := last.CreatedAt
	return count, &ts, nil
}

// Store adapts the repository free functions to the services.SessionStore
// interface. It translates gorm's record-not-found into the shared
// store.ErrNotFound sentinel so services stay backend-agnostic.
type Store struct {
	DB *gorm.DB
}

// Create persists a new session row.
func (s *Store) Create(ctx context.Context, sess domain.Session) error {
	return CreateSession(ctx, s.DB, &sess)
}

// Get fetches a session by token.
func (s *Store) Get(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := GetSessionByToken(ctx, s.DB, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	return sess, err
}

// Delete removes a session and its history. Idempotent.
func (s *Store) Delete(ctx context.Context, token string) error {
	return DeleteSessionByToken(ctx, s.DB, token)
}

// History returns the full stored history of a session, oldest first.
func (s *Store) History(ctx context.Context, token string) ([]domain.Turn, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return ListTurns(ctx, s.DB, sess.ID)
}

// Recent returns the most recent n turns of a session, oldest first.
func (s *Store) Recent(ctx context.Context, token string, n int) ([]domain.Turn, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	return RecentTurns(ctx, s.DB, sess.ID, n)
}

// AppendExchange appends turns and trims history to maxTurns.
func (s *Store) AppendExchange(ctx context.Context, token string, turns []domain.Turn, maxTurns int) error {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	return AppendTurns(ctx, s.DB, sess.ID, turns, maxTurns)
}
