// Package oracletest provides a scripted oracle for tests.
package oracletest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
)

// Call records one completion request.
type Call struct {
	Prompt string
	Opts   ports.Options
}

type rule struct {
	contains string
	replies  []string
	err      error
	served   int
}

// Scripted answers prompts by substring rules, checked in registration order.
// Each rule replays its replies in order and then repeats the last one.
type Scripted struct {
	mu       sync.Mutex
	rules    []*rule
	fallback string
	calls    []Call
}

// New returns a Scripted oracle that answers unmatched prompts with "No".
func New() *Scripted {
	return &Scripted{fallback: "No"}
}

// On registers replies for prompts containing substr.
func (s *Scripted) On(substr string, replies ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &rule{contains: substr, replies: replies})
	return s
}

// Fail makes prompts containing substr return err.
func (s *Scripted) Fail(substr string, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &rule{contains: substr, err: err})
	return s
}

// Fallback sets the reply for prompts no rule matches.
func (s *Scripted) Fallback(reply string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = reply
	return s
}

// Complete implements oracle.Completer.
func (s *Scripted) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prompt := Render(in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Prompt: prompt, Opts: opts})

	for _, r := range s.rules {
		if !strings.Contains(prompt, r.contains) {
			continue
		}
		if r.err != nil {
			return "", r.err
		}
		if len(r.replies) == 0 {
			return "", fmt.Errorf("oracletest: rule %q has no replies", r.contains)
		}
		i := min(r.served, len(r.replies)-1)
		r.served++
		return r.replies[i], nil
	}
	return s.fallback, nil
}

// Calls returns a copy of every recorded request.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how many recorded prompts contain substr.
func (s *Scripted) Count(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.Contains(c.Prompt, substr) {
			n++
		}
	}
	return n
}

// Render flattens a prompt into the text rules match against.
func Render(in ports.PromptInput) string {
	var b strings.Builder
	b.WriteString(in.System)
	for _, m := range in.Messages {
		b.WriteString("\n")
		b.WriteString(m.Content)
	}
	return b.String()
}

// StubProvider implements ports.Provider with an injectable function.
type StubProvider struct {
	NameValue    string
	CompleteFunc func(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error)
}

func (p *StubProvider) Name() string {
	if p.NameValue == "" {
		return "stub"
	}
	return p.NameValue
}

func (p *StubProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	if p.CompleteFunc != nil {
		return p.CompleteFunc(ctx, in, opts)
	}
	return ports.Completion{Text: "stub completion"}, nil
}

var _ ports.Provider = (*StubProvider)(nil)
