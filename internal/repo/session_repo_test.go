package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/store"
)

// newTestDB opens a unique in-memory database per test so cases never share
// state, and applies the schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, token string) *domain.Session {
	t.Helper()
	s := &domain.Session{Token: token, Identity: "founder@openclaw.dev"}
	if err := CreateSession(context.Background(), db, s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := seedSession(t, db, "tok_abc")
	if s.ID == "" {
		t.Fatalf("CreateSession should assign an id")
	}
	if s.CreatedAt.IsZero() {
		t.Fatalf("CreateSession should stamp CreatedAt")
	}

	got, err := GetSessionByToken(ctx, db, "tok_abc")
	if err != nil {
		t.Fatalf("GetSessionByToken: %v", err)
	}
	if got.ID != s.ID || got.Identity != "founder@openclaw.dev" {
		t.Fatalf("unexpected session %+v", got)
	}

	if _, err := GetSessionByToken(ctx, db, "tok_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSessionByToken_RemovesTurns_AndIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := seedSession(t, db, "tok_del")
	err := AppendTurns(ctx, db, s.ID, []domain.Turn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello", Agent: "orchestrator"},
	}, 0)
	if err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}

	if err := DeleteSessionByToken(ctx, db, "tok_del"); err != nil {
		t.Fatalf("DeleteSessionByToken: %v", err)
	}
	if _, err := GetSessionByToken(ctx, db, "tok_del"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
	turns, err := ListTurns(ctx, db, s.ID)
	if err != nil || len(turns) != 0 {
		t.Fatalf("turns should be gone, got (%d, %v)", len(turns), err)
	}

	// Unknown token deletes succeed.
	if err := DeleteSessionByToken(ctx, db, "tok_del"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestAppendTurns_OrderAndTrim(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := seedSession(t, db, "tok_trim")

	for i := 0; i < 4; i++ {
		err := AppendTurns(ctx, db, s.ID, []domain.Turn{
			{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		}, 4)
		if err != nil {
			t.Fatalf("AppendTurns: %v", err)
		}
	}

	turns, err := ListTurns(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns after trim, got %d", len(turns))
	}
	want := []string{"q2", "a2", "q3", "a3"}
	for i, w := range want {
		if turns[i].Content != w {
			t.Fatalf("turn %d = %q, want %q", i, turns[i].Content, w)
		}
	}
}

// The router service stamps both turns of an exchange with one time.Now().
// The store must still read them back user-first, exchange after exchange,
// regardless of what timestamps the caller supplied.
func TestAppendTurns_IdenticalCallerTimestamps_KeepInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := seedSession(t, db, "tok_order")

	const exchanges = 12
	for i := 0; i < exchanges; i++ {
		now := time.Now().UTC()
		err := AppendTurns(ctx, db, s.ID, []domain.Turn{
			{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i), CreatedAt: now},
			{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i), Agent: "orchestrator", CreatedAt: now},
		}, 0)
		if err != nil {
			t.Fatalf("AppendTurns: %v", err)
		}
	}

	turns, err := ListTurns(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("ListTurns: %v", err)
	}
	if len(turns) != 2*exchanges {
		t.Fatalf("expected %d turns, got %d", 2*exchanges, len(turns))
	}
	for i := 0; i < exchanges; i++ {
		u, a := turns[2*i], turns[2*i+1]
		if u.Content != fmt.Sprintf("q%d", i) || a.Content != fmt.Sprintf("a%d", i) {
			t.Fatalf("exchange %d read back as (%q, %q)", i, u.Content, a.Content)
		}
		if u.Role != domain.RoleUser || a.Role != domain.RoleAssistant {
			t.Fatalf("exchange %d roles = (%q, %q)", i, u.Role, a.Role)
		}
	}
	for i := 1; i < len(turns); i++ {
		if !turns[i].CreatedAt.After(turns[i-1].CreatedAt) {
			t.Fatalf("stamps not strictly increasing at %d: %v then %v",
				i, turns[i-1].CreatedAt, turns[i].CreatedAt)
		}
	}
}

func TestRecentTurns_WindowChronological(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := seedSession(t, db, "tok_recent")

	for i := 0; i < 3; i++ {
		err := AppendTurns(ctx, db, s.ID, []domain.Turn{
			{Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			{Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		}, 0)
		if err != nil {
			t.Fatalf("AppendTurns: %v", err)
		}
	}

	recent, err := RecentTurns(ctx, db, s.ID, 3)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(recent))
	}
	want := []string{"a1", "q2", "a2"}
	for i, w := range want {
		if recent[i].Content != w {
			t.Fatalf("recent %d = %q, want %q", i, recent[i].Content, w)
		}
	}
}

func TestSessionStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := seedSession(t, db, "tok_stats")

	count, last, err := SessionStats(ctx, db, s.ID)
	if err != nil || count != 0 || last != nil {
		t.Fatalf("empty stats = (%d, %v, %v)", count, last, err)
	}

	if err := AppendTurns(ctx, db, s.ID, []domain.Turn{
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "a"},
	}, 0); err != nil {
		t.Fatalf("AppendTurns: %v", err)
	}

	count, last, err = SessionStats(ctx, db, s.ID)
	if err != nil || count != 2 || last == nil {
		t.Fatalf("stats = (%d, %v, %v)", count, last, err)
	}
}

func TestStore_ImplementsSessionStoreSemantics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := &Store{DB: db}

	if _, err := st.Get(ctx, "tok_x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get miss should map to store.ErrNotFound, got %v", err)
	}

	sess := domain.Session{Token: "tok_x", Identity: "a@b.c"}
	if err := st.Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := st.Get(ctx, "tok_x")
	if err != nil || got.Token != "tok_x" {
		t.Fatalf("Get = (%+v, %v)", got, err)
	}

	if err := st.AppendExchange(ctx, "tok_x", []domain.Turn{
		{Role: domain.RoleUser, Content: "q0"},
		{Role: domain.RoleAssistant, Content: "a0"},
	}, 50); err != nil {
		t.Fatalf("AppendExchange: %v", err)
	}

	hist, err := st.History(ctx, "tok_x")
	if err != nil || len(hist) != 2 {
		t.Fatalf("History = (%d, %v)", len(hist), err)
	}
	recent, err := st.Recent(ctx, "tok_x", 1)
	if err != nil || len(recent) != 1 || recent[0].Content != "a0" {
		t.Fatalf("Recent = (%+v, %v)", recent, err)
	}

	if err := st.AppendExchange(ctx, "tok_missing", nil, 0); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("AppendExchange on unknown token should map to store.ErrNotFound, got %v", err)
	}

	if err := st.Delete(ctx, "tok_x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := st.Get(ctx, "tok_x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get after delete should miss, got %v", err)
	}
}
