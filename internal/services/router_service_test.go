package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/agents"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/llm"
	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/store"
)

func newRouter(client *fakeClient, sessions *store.Sessions) *RouterService {
	if sessions == nil {
		sessions = store.NewSessions()
	}
	return &RouterService{
		Sessions:     &SessionService{Store: sessions},
		Client:       client,
		ContextTurns: 6,
		MaxTurns:     50,
	}
}

func TestRoute_EmptyMessage(t *testing.T) {
	svc := newRouter(&fakeClient{}, nil)
	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.Route(context.Background(), msg, "", ""); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("Route(%q) = %v, want ErrEmptyMessage", msg, err)
		}
	}
}

func TestRoute_BarePrompt(t *testing.T) {
	client := &fakeClient{replies: []string{"answer"}, usage: domain.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}}
	svc := newRouter(client, nil)

	reply, err := svc.Route(context.Background(), "hello there", "", "")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Agent != agents.Orchestrator {
		t.Fatalf("unmatched message should route to orchestrator, got %s", reply.Agent)
	}
	if reply.Reply != "answer" || reply.Usage.TotalTokens != 3 {
		t.Fatalf("unexpected reply %+v", reply)
	}

	wantPrompt := "TASK: hello there" + trailer
	if client.prompts[0] != wantPrompt {
		t.Fatalf("prompt = %q, want %q", client.prompts[0], wantPrompt)
	}
	if client.systems[0] != agents.Default.SystemPrompt {
		t.Fatalf("system prompt should be the orchestrator persona")
	}
}

func TestRoute_ClassifiesAndFormats(t *testing.T) {
	client := &fakeClient{replies: []string{"the schema"}, usage: domain.Usage{TotalTokens: 42}}
	svc := newRouter(client, nil)

	reply, err := svc.Route(context.Background(), "set up the database tables", "", "")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Agent != agents.BackendEngineer || reply.AgentName != "Backend Engineer" {
		t.Fatalf("unexpected routing %+v", reply)
	}

	// Display envelope: emoji + name header, body, metadata footer.
	if !strings.HasPrefix(reply.Formatted, reply.Emoji+" **Backend Engineer Agent** [") {
		t.Fatalf("formatted header wrong: %q", reply.Formatted)
	}
	if !strings.Contains(reply.Formatted, "\n\nthe schema\n\n---\n") {
		t.Fatalf("formatted body wrong: %q", reply.Formatted)
	}
	want := "*Agent: backend_engineer | Model: llama-3.3-70b-versatile | Tokens: 42*"
	if !strings.HasSuffix(reply.Formatted, want) {
		t.Fatalf("formatted footer wrong: %q", reply.Formatted)
	}
	if !strings.Contains(reply.Formatted, reply.Timestamp.Format("15:04:05")) {
		t.Fatalf("formatted header should carry the reply timestamp")
	}
}

func TestRoute_ExplicitContextWinsOverHistory(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewSessions()
	_ = sessions.Create(ctx, domain.Session{Token: "tok_1", CreatedAt: time.Now().UTC()})
	_ = sessions.AppendExchange(ctx, "tok_1", []domain.Turn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}, 50)

	client := &fakeClient{}
	svc := newRouter(client, sessions)

	if _, err := svc.Route(ctx, "build it", "tok_1", "a fintech startup"); err != nil {
		t.Fatalf("Route: %v", err)
	}

	want := "PROJECT CONTEXT: a fintech startup\n\nTASK: build it" + trailer
	if client.prompts[0] != want {
		t.Fatalf("prompt = %q, want %q", client.prompts[0], want)
	}
	if strings.Contains(client.prompts[0], "CONVERSATION HISTORY") {
		t.Fatalf("explicit context must suppress stored history")
	}
}

func TestRoute_HistoryWindowRenderedAndClipped(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewSessions()
	_ = sessions.Create(ctx, domain.Session{Token: "tok_2", CreatedAt: time.Now().UTC()})

	long := strings.Repeat("x", 250)
	// 8 turns stored; only the most recent 6 go upstream.
	for i := 0; i < 3; i++ {
		_ = sessions.AppendExchange(ctx, "tok_2", []domain.Turn{
			{Role: domain.RoleUser, Content: "ask"},
			{Role: domain.RoleAssistant, Content: "reply"},
		}, 50)
	}
	_ = sessions.AppendExchange(ctx, "tok_2", []domain.Turn{
		{Role: domain.RoleUser, Content: long},
		{Role: domain.RoleAssistant, Content: "final"},
	}, 50)

	client := &fakeClient{}
	svc := newRouter(client, sessions)

	if _, err := svc.Route(ctx, "continue", "tok_2", ""); err != nil {
		t.Fatalf("Route: %v", err)
	}

	prompt := client.prompts[0]
	if !strings.HasPrefix(prompt, "CONVERSATION HISTORY:\n") {
		t.Fatalf("prompt should open with the history block: %q", prompt)
	}
	if !strings.Contains(prompt, "\n\nCURRENT TASK: continue"+trailer) {
		t.Fatalf("prompt should close with the current task: %q", prompt)
	}

	// Roles rendered as display labels.
	if !strings.Contains(prompt, "User: ") || !strings.Contains(prompt, "Assistant: ") {
		t.Fatalf("history lines should carry display roles: %q", prompt)
	}
	// 6-turn window: 8 stored, the 2 oldest dropped.
	if got := strings.Count(prompt, "\nUser: ") + strings.Count(prompt, "\nAssistant: "); got != 6 {
		t.Fatalf("expected 6 history lines, got %d in %q", got, prompt)
	}
	// Each forwarded line is clipped to 200 runes of content.
	if strings.Contains(prompt, long) {
		t.Fatalf("long turn should be clipped")
	}
	if !strings.Contains(prompt, "User: "+strings.Repeat("x", 200)+"\n") {
		t.Fatalf("clipped turn should keep the first 200 runes")
	}
}

func TestRoute_AppendsExchangeOnSuccess(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewSessions()
	_ = sessions.Create(ctx, domain.Session{Token: "tok_3", CreatedAt: time.Now().UTC()})

	client := &fakeClient{replies: []string{"stored reply"}}
	svc := newRouter(client, sessions)

	if _, err := svc.Route(ctx, "remember me", "tok_3", ""); err != nil {
		t.Fatalf("Route: %v", err)
	}

	hist, _ := sessions.History(ctx, "tok_3")
	if len(hist) != 2 {
		t.Fatalf("expected 2 stored turns, got %d", len(hist))
	}
	if hist[0].Role != domain.RoleUser || hist[0].Content != "remember me" {
		t.Fatalf("user turn wrong: %+v", hist[0])
	}
	if hist[1].Role != domain.RoleAssistant || hist[1].Content != "stored reply" || hist[1].Agent == "" {
		t.Fatalf("assistant turn wrong: %+v", hist[1])
	}
}

func TestRoute_UpstreamFailureLeavesHistoryUntouched(t *testing.T) {
	ctx := context.Background()
	sessions := store.NewSessions()
	_ = sessions.Create(ctx, domain.Session{Token: "tok_4", CreatedAt: time.Now().UTC()})

	client := &fakeClient{errs: []error{llm.ErrRateLimited}}
	svc := newRouter(client, sessions)

	if _, err := svc.Route(ctx, "will fail", "tok_4", ""); !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("Route should surface the upstream error, got %v", err)
	}
	hist, _ := sessions.History(ctx, "tok_4")
	if len(hist) != 0 {
		t.Fatalf("failed exchange must not be persisted, got %d turns", len(hist))
	}
}

func TestRoute_UnknownSessionStillRoutes(t *testing.T) {
	client := &fakeClient{replies: []string{"fine"}}
	svc := newRouter(client, nil)

	reply, err := svc.Route(context.Background(), "no session here", "tok_ghost", "")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Reply != "fine" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if !strings.HasPrefix(client.prompts[0], "TASK: ") {
		t.Fatalf("ghost session should yield a bare prompt: %q", client.prompts[0])
	}
}

func TestChain_RequiresSteps(t *testing.T) {
	svc := newRouter(&fakeClient{}, nil)
	if _, err := svc.Chain(context.Background(), nil); !errors.Is(err, ErrNoSteps) {
		t.Fatalf("expected ErrNoSteps, got %v", err)
	}
}

func TestChain_SequentialWithRollingContext(t *testing.T) {
	client := &fakeClient{replies: []string{"out one", "out two", "out three"}}
	svc := newRouter(client, nil)

	results, err := svc.Chain(context.Background(), []ChainStep{
		{Task: "research the market"},
		{Task: "design the landing page"},
		{Task: "write the emails", Agent: agents.Communications},
	})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Step agents: classified, classified, pinned.
	if results[0].Agent != agents.MarketResearch ||
		results[1].Agent != agents.ProductDesign ||
		results[2].Agent != agents.Communications {
		t.Fatalf("unexpected step agents: %+v", results)
	}
	for i, r := range results {
		if r.Step != i+1 || r.Error != "" || r.Output == "" {
			t.Fatalf("step %d malformed: %+v", i, r)
		}
	}

	// Step 1 has no accumulated context.
	if client.prompts[0] != "TASK: research the market"+trailer {
		t.Fatalf("step 1 prompt = %q", client.prompts[0])
	}
	// Step 2 sees step 1's output as project context.
	if client.prompts[1] != "PROJECT CONTEXT: out one\n\nTASK: design the landing page"+trailer {
		t.Fatalf("step 2 prompt = %q", client.prompts[1])
	}
	// Step 3 sees both prior outputs joined.
	if client.prompts[2] != "PROJECT CONTEXT: out one\n\nout two\n\nTASK: write the emails"+trailer {
		t.Fatalf("step 3 prompt = %q", client.prompts[2])
	}
}

func TestChain_FailFast(t *testing.T) {
	client := &fakeClient{
		replies: []string{"ok", "", "never"},
		errs:    []error{nil, llm.ErrUnavailable, nil},
	}
	svc := newRouter(client, nil)

	results, err := svc.Chain(context.Background(), []ChainStep{
		{Task: "step one task"},
		{Task: "step two task"},
		{Task: "step three task"},
	})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("chain should halt at the failing step, got %d results", len(results))
	}
	if results[0].Error != "" || results[1].Error == "" {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[1].Error != llm.ErrUnavailable.Error() {
		t.Fatalf("failed step should record the error text, got %q", results[1].Error)
	}
	if client.calls != 2 {
		t.Fatalf("step three must never run, got %d upstream calls", client.calls)
	}
}

func TestChain_EmptyTaskHalts(t *testing.T) {
	client := &fakeClient{replies: []string{"ok"}}
	svc := newRouter(client, nil)

	results, err := svc.Chain(context.Background(), []ChainStep{
		{Task: "first"},
		{Task: "   "},
		{Task: "third"},
	})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected halt on empty task, got %d results", len(results))
	}
	if results[1].Error != ErrEmptyMessage.Error() {
		t.Fatalf("empty step should record %q, got %q", ErrEmptyMessage.Error(), results[1].Error)
	}
	if client.calls != 1 {
		t.Fatalf("empty task must not reach upstream, calls = %d", client.calls)
	}
}

func TestChain_SharedContextClipped(t *testing.T) {
	big := strings.Repeat("y", 1500)
	client := &fakeClient{replies: []string{big, "done"}}
	svc := newRouter(client, nil)

	_, err := svc.Chain(context.Background(), []ChainStep{
		{Task: "produce a lot"},
		{Task: "summarize"},
	})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}

	want := "PROJECT CONTEXT: " + strings.Repeat("y", 1000) + "\n\nTASK: summarize" + trailer
	if client.prompts[1] != want {
		t.Fatalf("step 2 context should be clipped to 1000 runes, got %d chars", len(client.prompts[1]))
	}
}

func TestChain_UnknownAgentFallsBackToClassification(t *testing.T) {
	client := &fakeClient{replies: []string{"ok"}}
	svc := newRouter(client, nil)

	results, err := svc.Chain(context.Background(), []ChainStep{
		{Task: "deploy with docker", Agent: "no_such_agent"},
	})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if results[0].Agent != agents.DevopsSecurity {
		t.Fatalf("unknown pinned agent should fall back to classification, got %s", results[0].Agent)
	}
}
