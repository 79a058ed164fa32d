package services

import (
	"context"
	"errors"

	"github.com/jiggy769/OPENCLAW-ENTERPRISE/internal/domain"
)

// fakeMailer records sends and can be told to fail.
type fakeMailer struct {
	fail     bool
	sends    int
	lastTo   string
	lastSubj string
	lastHTML string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	m.sends++
	m.lastTo, m.lastSubj, m.lastHTML = to, subject, html
	if m.fail {
		return "", errors.New("provider rejected message")
	}
	return "email_1", nil
}

func (m *fakeMailer) Configured() bool { return !m.fail }

// fakeClient replays canned replies/errors in order and captures prompts.
type fakeClient struct {
	replies []string
	errs    []error
	usage   domain.Usage

	calls   int
	systems []string
	prompts []string
}

func (c *fakeClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, domain.Usage, error) {
	i := c.calls
	c.calls++
	c.systems = append(c.systems, systemPrompt)
	c.prompts = append(c.prompts, userPrompt)
	if i < len(c.errs) && c.errs[i] != nil {
		return "", domain.Usage{}, c.errs[i]
	}
	reply := "ok"
	if i < len(c.replies) {
		reply = c.replies[i]
	}
	return reply, c.usage, nil
}

func (c *fakeClient) Model() string { return "llama-3.3-70b-versatile" }
