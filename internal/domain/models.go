// Package domain defines the core entities of the verification gateway and
// agent router: verification entries, sessions, and conversation turns.
// Sessions and turns are optionally persisted with GORM; verification
// entries are always process-memory only (codes are short-lived secrets).
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// VerificationEntry is a live one-time code bound to an identity. At most one
// entry exists per identity; reissuing replaces the previous entry.
//
// Never persisted: entries live only in process memory and die with the
// process, which also bounds the blast radius of a leaked store.
type VerificationEntry struct {
	Identity string    `json:"identity"`
	Code     string    `json:"-"`
	IssuedAt time.Time `json:"issued_at"`
	Attempts int       `json:"attempts"`
}

// Session represents a verified client session. It is created only after a
// successful code verification and owns a conversation history keyed by its
// token.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Token: opaque credential presented by clients ("tok_" + random hex).
//   - Identity: the verified email/account identity.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Session struct {
	ID        string         `json:"-"          gorm:"type:char(36);primaryKey"`
	Token     string         `json:"token"      gorm:"type:varchar(64);not null;uniqueIndex:ux_session_token"`
	Identity  string         `json:"identity"   gorm:"type:varchar(254);not null;index:idx_session_identity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Turn is a single utterance within a session's conversation history,
// authored either by the "user" or the "assistant". Assistant turns record
// which agent produced them.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - SessionID: foreign key to the owning session (indexed).
//   - Role: "user" or "assistant" (enforced by DB constraint).
//   - Content: full text content of the turn.
//   - Agent: id of the specialist agent that answered (assistant turns only).
//   - CreatedAt: timestamp, second index component for ordered reads.
type Turn struct {
	ID        string         `json:"-"          gorm:"type:char(36);primaryKey"`
	SessionID string         `json:"-"          gorm:"type:char(36);not null;index:idx_session_turns,priority:1"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	Agent     string         `json:"agent,omitempty" gorm:"type:varchar(32)"`
	CreatedAt time.Time      `json:"timestamp"  gorm:"index:idx_session_turns,priority:2"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Session is the parent session. Turns are cascade-deleted when their
	// session is removed.
	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Turn.
func (Turn) TableName() string { return "turns" }

// Usage reports token consumption for one completion exchange.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StepResult records the outcome of one step in a sequential agent chain.
// Error is set (and Output empty) when the step failed; a failed step is
// always the last element of a chain result.
type StepResult struct {
	Step   int    `json:"step"`
	Agent  string `json:"agent"`
	Task   string `json:"task"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}
