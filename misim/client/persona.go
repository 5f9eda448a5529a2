package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
	"github.com/rs/zerolog"
)

const supportWindow = 3

// PersonaSelector finds the persona or belief statement that backs an action.
type PersonaSelector struct {
	oracle oracle.Completer
	logger zerolog.Logger
}

func NewPersonaSelector(o oracle.Completer, logger zerolog.Logger) *PersonaSelector {
	return &PersonaSelector{oracle: o, logger: logger}
}

// Select returns supporting text for action, or ok=false when the counselor
// did not ask a question or nothing usable was found or synthesized.
// A synthesized statement is appended to the profile list it belongs to.
func (s *PersonaSelector) Select(ctx context.Context, action Action, p *Profile, st *State) (string, bool, error) {
	if !action.needsSupport() || !strings.Contains(st.Last(), "?") {
		return "", false, nil
	}

	lines := st.Tail(supportWindow)
	list := p.statements(action)
	for _, candidate := range *list {
		text, err := s.oracle.Complete(ctx, oracle.User("", supportPrompt(action, lines, candidate)), oracle.Precise())
		if err != nil {
			return "", false, fmt.Errorf("check statement: %w", err)
		}
		if oracle.ParseVerdict(text, "Answer").Yes {
			s.remember(action, st, candidate)
			return candidate, true, nil
		}
	}

	text, err := s.oracle.Complete(ctx, oracle.User("", synthesisPrompt(action, lines, *list)), oracle.Chat(100))
	if err != nil {
		return "", false, fmt.Errorf("synthesize statement: %w", err)
	}
	statement := strings.Join(strings.Fields(text), " ")
	if statement == "" {
		return "", false, nil
	}

	*list = append(*list, statement)
	s.remember(action, st, statement)
	s.logger.Debug().Str("action", string(action)).Str("statement", statement).Msg("statement synthesized")
	return statement, true, nil
}

func (s *PersonaSelector) remember(action Action, st *State, statement string) {
	if action == Hesitate {
		st.LastConcern = statement
	}
}
