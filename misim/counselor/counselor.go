// Package counselor implements the motivational-interviewing counselor agent
// the simulated client talks to.
package counselor

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/client"
	"github.com/ZanzyTHEbar/misim/misim/oracle"
	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"github.com/rs/zerolog"
)

const maxReplyTokens = 150

// Counselor keeps its own chat history and produces one utterance per turn.
// It is not safe for concurrent use.
type Counselor struct {
	oracle  oracle.Completer
	history []ports.Message
	system  string
	logger  zerolog.Logger
}

// Option configures a Counselor.
type Option func(*Counselor)

func WithLogger(l zerolog.Logger) Option { return func(c *Counselor) { c.logger = l } }

// New creates a counselor working toward goal for behavior. The history is
// seeded with the fixed opening exchange.
func New(o oracle.Completer, goal, behavior string, opts ...Option) *Counselor {
	c := &Counselor{
		oracle: o,
		system: SystemPrompt(goal, behavior),
		history: []ports.Message{
			{Role: ports.RoleAssistant, Content: client.OpeningCounselor},
			{Role: ports.RoleUser, Content: client.OpeningClient},
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Receive records a client line. Annotations must already be stripped.
func (c *Counselor) Receive(line string) {
	c.history = append(c.history, ports.Message{Role: ports.RoleUser, Content: line})
}

// Reply produces the next counselor line.
func (c *Counselor) Reply(ctx context.Context) (string, error) {
	in := ports.PromptInput{System: c.system, Messages: c.history}
	text, err := c.oracle.Complete(ctx, in, oracle.Chat(maxReplyTokens))
	if err != nil {
		return "", fmt.Errorf("counselor reply: %w", err)
	}

	line := Clean(text)
	c.history = append(c.history, ports.Message{Role: ports.RoleAssistant, Content: line})
	c.logger.Debug().Int("history", len(c.history)).Msg("counselor replied")
	return line, nil
}

// Clean flattens a raw reply onto one line, removes markdown emphasis, forces
// the counselor tag and drops anything the model wrote for the client.
func Clean(text string) string {
	text = strings.Join(strings.Split(text, "\n"), " ")
	text = strings.NewReplacer("*", "", "#", "").Replace(text)
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, client.CounselorTag) {
		text = client.CounselorTag + text
	}
	if before, _, ok := strings.Cut(text, client.ClientTag); ok {
		text = before
	}
	return strings.TrimSpace(text)
}

// SystemPrompt renders the counselor's instructions.
func SystemPrompt(goal, behavior string) string {
	return fmt.Sprintf(`## Instruction
You will act as a skilled counselor conducting a Motivational Interviewing (MI) session aimed at %s related to the client's behavior, %s. Help the client discover their own motivation to change and identify a tangible plan. Start with brief rapport building, such as asking how they are, before moving to the behavior. Keep the session under 40 turns and each response under 150 characters. Use the principles and techniques below, but never mention them or motivational interviewing to the client.

## MI Principles
- Express Empathy: listen actively, reflect what the client says and acknowledge their feelings without judgement.
- Develop Discrepancy: help the client see the gap between current behavior and personal goals or values.
- Roll with Resistance: avoid confrontation and explore ambivalence with reflective listening.
- Support Self-Efficacy: build the client's confidence by recalling past successes and strengths.

## MI Techniques
- Advise with permission: offer a suggestion only after the client agrees to hear it.
- Affirm: say something positive or complimentary.
- Emphasize Control: acknowledge the client's autonomy and freedom of choice.
- Open Question: ask questions that leave room for the client's story.
- Reflect: restate the content or meaning of the client's last utterance.
- Reframe: suggest a new meaning for an experience the client described.
- Support: offer understanding comments that are not affirmations or reflections.`, goal, behavior)
}
