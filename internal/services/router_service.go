// Package services – RouterService
//
// This file implements the agent router: classifying a message onto a
// specialist agent, folding in conversation memory or an explicit project
// context, forwarding the composed prompt to the completion API, and
// persisting the exchange. It also implements sequential agent chains with a
// rolling shared context and fail-fast semantics.
//
// Context composition priority (highest first): explicit context verbatim,
// then stored history (most recent window), then the bare task. History is
// appended only after a successful reply, so upstream failures never corrupt
// stored conversations.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/agents"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
)

const (
	// historyTurnRunes caps each history line forwarded upstream.
	historyTurnRunes = 200
	// chainContextRunes caps the rolling shared context between chain steps.
	chainContextRunes = 1000

	// trailer is appended to every composed user prompt.
	trailer = "\n\nProvide a comprehensive, detailed response with specific examples and actionable next steps."
)

// roleCaser renders turn roles as display labels ("user" -> "User").
var roleCaser = cases.Title(language.English)

// RouterService routes messages to specialist agents and manages the
// conversation memory of valid sessions.
type RouterService struct {
	Sessions *SessionService
	Client   CompletionClient

	// ContextTurns is the number of recent turns forwarded upstream.
	ContextTurns int
	// MaxTurns caps the stored history per session.
	MaxTurns int
}

// RoutedReply is the outcome of one routed exchange.
type RoutedReply struct {
	// Agent is the matched category id; AgentName/Emoji are display metadata.
	Agent     string
	AgentName string
	Emoji     string
	// Reply is the upstream text verbatim; Formatted wraps it in the
	// display envelope with the agent label and usage footer.
	Reply     string
	Formatted string
	Usage     domain.Usage
	Timestamp time.Time
}

// ChainStep is one step of a sequential agent chain. Agent is optional; when
// empty (or unknown) the step's task is classified like a chat message.
type ChainStep struct {
	Task  string
	Agent string
}

// Route classifies message, composes the upstream prompt from explicitContext
// or the session's recent history, invokes the completion API, and appends
// the exchange to the session's history on success.
//
// A missing or unknown sessionToken is not an error: the message is still
// routed, just without conversation memory.
func (s *RouterService) Route(ctx context.Context, message, sessionToken, explicitContext string) (*RoutedReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	cat := agents.Classify(message)

	ctx, span := otel.Tracer("services/RouterService").Start(ctx, "Route",
		trace.WithAttributes(attribute.String("agent.id", cat.ID)),
	)
	defer span.End()

	sess, err := s.Sessions.Resolve(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	prompt, err := s.composePrompt(ctx, message, explicitContext, sess)
	if err != nil {
		return nil, err
	}

	reply, usage, err := s.Client.Complete(ctx, cat.SystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if sess != nil {
		exchange := []domain.Turn{
			{Role: domain.RoleUser, Content: message, CreatedAt: now},
			{Role: domain.RoleAssistant, Content: reply, Agent: cat.ID, CreatedAt: now},
		}
		if err := s.Sessions.Store.AppendExchange(ctx, sess.Token, exchange, s.MaxTurns); err != nil {
			// The reply is already produced; losing the memory write is
			// worth a warning, not a failed request.
			span.RecordError(err)
		}
	}

	agentRequests.WithLabelValues(cat.ID).Inc()
	completionTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	completionTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))

	return &RoutedReply{
		Agent:     cat.ID,
		AgentName: cat.Name,
		Emoji:     cat.Emoji,
		Reply:     reply,
		Formatted: formatReply(cat, reply, s.Client.Model(), usage, now),
		Usage:     usage,
		Timestamp: now,
	}, nil
}

// Chain executes steps strictly in order. Each step's prompt carries a
// rolling shared context built from all previous outputs (capped at
// chainContextRunes). The first failing step is recorded with its error and
// halts the chain; completed steps are always returned.
func (s *RouterService) Chain(ctx context.Context, steps []ChainStep) ([]domain.StepResult, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}

	ctx, span := otel.Tracer("services/RouterService").Start(ctx, "Chain",
		trace.WithAttributes(attribute.Int("chain.steps", len(steps))),
	)
	defer span.End()

	results := make([]domain.StepResult, 0, len(steps))
	var shared strings.Builder

	for i, step := range steps {
		task := strings.TrimSpace(step.Task)
		cat := resolveAgent(step.Agent, task)

		res := domain.StepResult{Step: i + 1, Agent: cat.ID, Task: task}
		if task == "" {
			res.Error = ErrEmptyMessage.Error()
			results = append(results, res)
			return results, nil
		}

		prompt := composeTask(clipRunes(shared.String(), chainContextRunes), task)
		reply, usage, err := s.Client.Complete(ctx, cat.SystemPrompt, prompt)
		if err != nil {
			res.Error = err.Error()
			results = append(results, res)
			return results, nil
		}

		agentRequests.WithLabelValues(cat.ID).Inc()
		completionTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
		completionTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))

		res.Output = reply
		results = append(results, res)

		if shared.Len() > 0 {
			shared.WriteString("\n\n")
		}
		shared.WriteString(reply)
	}
	return results, nil
}

// composePrompt builds the upstream user prompt. Explicit context wins and
// suppresses stored history entirely; otherwise the most recent ContextTurns
// turns are rendered as truncated "Role: content" lines.
func (s *RouterService) composePrompt(ctx context.Context, message, explicitContext string, sess *domain.Session) (string, error) {
	if explicitContext != "" {
		return composeTask(explicitContext, message), nil
	}
	if sess == nil || s.ContextTurns <= 0 {
		return "TASK: " + message + trailer, nil
	}

	turns, err := s.Sessions.Store.Recent(ctx, sess.Token, s.ContextTurns)
	if err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "TASK: " + message + trailer, nil
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, roleCaser.String(t.Role)+": "+clipRunes(t.Content, historyTurnRunes))
	}
	return "CONVERSATION HISTORY:\n" + strings.Join(lines, "\n") +
		"\n\nCURRENT TASK: " + message + trailer, nil
}

// composeTask renders the explicit-context prompt shape shared by chat and
// chain steps.
func composeTask(projectContext, task string) string {
	if projectContext == "" {
		return "TASK: " + task + trailer
	}
	return "PROJECT CONTEXT: " + projectContext + "\n\nTASK: " + task + trailer
}

// resolveAgent picks the category for a chain step: the pinned agent when the
// id is known, keyword classification of the task otherwise.
func resolveAgent(id, task string) agents.Category {
	if id != "" {
		if cat, ok := agents.Lookup(id); ok {
			return cat
		}
	}
	return agents.Classify(task)
}

// formatReply wraps the raw reply in the display envelope clients render.
func formatReply(cat agents.Category, reply, model string, usage domain.Usage, ts time.Time) string {
	return fmt.Sprintf("%s **%s Agent** [%s]\n\n%s\n\n---\n*Agent: %s | Model: %s | Tokens: %d*",
		cat.Emoji, cat.Name, ts.Format("15:04:05"), reply, cat.ID, model, usage.TotalTokens)
}

// clipRunes truncates s to at most max runes.
func clipRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
