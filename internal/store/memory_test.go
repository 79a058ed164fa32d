package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
)

func TestCodes_PutGetDelete(t *testing.T) {
	c := NewCodes()

	if _, ok := c.Get("a@b.c"); ok {
		t.Fatalf("empty table should miss")
	}

	e := domain.VerificationEntry{Identity: "a@b.c", Code: "123456", IssuedAt: time.Now()}
	c.Put(e)
	got, ok := c.Get("a@b.c")
	if !ok || got.Code != "123456" {
		t.Fatalf("Get after Put = (%+v, %v)", got, ok)
	}

	// Put replaces the previous entry for the same identity.
	c.Put(domain.VerificationEntry{Identity: "a@b.c", Code: "654321", Attempts: 2})
	got, _ = c.Get("a@b.c")
	if got.Code != "654321" || got.Attempts != 2 {
		t.Fatalf("Put should replace, got %+v", got)
	}

	c.Delete("a@b.c")
	if _, ok := c.Get("a@b.c"); ok {
		t.Fatalf("Get after Delete should miss")
	}
	c.Delete("a@b.c") // deleting a missing entry is a no-op
}

func TestSessions_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()

	if _, err := s.Get(ctx, "tok_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	sess := domain.Session{ID: "id-1", Token: "tok_x", Identity: "a@b.c", CreatedAt: time.Now().UTC()}
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(ctx, "tok_x")
	if err != nil || got.Identity != "a@b.c" {
		t.Fatalf("Get = (%+v, %v)", got, err)
	}

	if err := s.Delete(ctx, "tok_x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "tok_x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "tok_x"); err != nil {
		t.Fatalf("Delete must be idempotent, got %v", err)
	}
}

func TestSessions_HistoryAndRecent(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()
	_ = s.Create(ctx, domain.Session{Token: "tok_h"})

	for i := 0; i < 5; i++ {
		err := s.AppendExchange(ctx, "tok_h", []domain.Turn{
			{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		}, 0)
		if err != nil {
			t.Fatalf("AppendExchange: %v", err)
		}
	}

	hist, err := s.History(ctx, "tok_h")
	if err != nil || len(hist) != 10 {
		t.Fatalf("History = (%d turns, %v)", len(hist), err)
	}
	if hist[0].Content != "q0" || hist[9].Content != "a4" {
		t.Fatalf("history order wrong: first=%q last=%q", hist[0].Content, hist[9].Content)
	}

	recent, err := s.Recent(ctx, "tok_h", 3)
	if err != nil || len(recent) != 3 {
		t.Fatalf("Recent = (%d turns, %v)", len(recent), err)
	}
	// Most recent window, still oldest-first.
	if recent[0].Content != "a3" || recent[2].Content != "a4" {
		t.Fatalf("recent window wrong: %q .. %q", recent[0].Content, recent[2].Content)
	}

	// Asking for more than stored returns everything.
	all, _ := s.Recent(ctx, "tok_h", 100)
	if len(all) != 10 {
		t.Fatalf("Recent(100) = %d turns", len(all))
	}

	if _, err := s.History(ctx, "tok_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("History on unknown token: %v", err)
	}
	if _, err := s.Recent(ctx, "tok_missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Recent on unknown token: %v", err)
	}
}

func TestSessions_AppendExchange_TrimsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()
	_ = s.Create(ctx, domain.Session{Token: "tok_t"})

	// Cap at 6 turns; write 5 exchanges (10 turns) and verify only the
	// newest 6 survive, oldest dropped first.
	for i := 0; i < 5; i++ {
		err := s.AppendExchange(ctx, "tok_t", []domain.Turn{
			{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		}, 6)
		if err != nil {
			t.Fatalf("AppendExchange: %v", err)
		}
	}

	hist, _ := s.History(ctx, "tok_t")
	if len(hist) != 6 {
		t.Fatalf("expected 6 turns after trim, got %d", len(hist))
	}
	want := []string{"q2", "a2", "q3", "a3", "q4", "a4"}
	for i, w := range want {
		if hist[i].Content != w {
			t.Fatalf("turn %d = %q, want %q", i, hist[i].Content, w)
		}
	}

	if err := s.AppendExchange(ctx, "tok_missing", []domain.Turn{{Role: domain.RoleUser, Content: "x"}}, 6); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AppendExchange on unknown token: %v", err)
	}
}

func TestSessions_CopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewSessions()
	_ = s.Create(ctx, domain.Session{Token: "tok_c"})
	_ = s.AppendExchange(ctx, "tok_c", []domain.Turn{{Role: domain.RoleUser, Content: "orig"}}, 0)

	hist, _ := s.History(ctx, "tok_c")
	hist[0].Content = "mutated"

	again, _ := s.History(ctx, "tok_c")
	if again[0].Content != "orig" {
		t.Fatalf("History must return a copy, stored turn was mutated")
	}
}
