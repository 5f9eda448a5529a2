package client

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
)

const motivationWindow = 5

// MotivationVerifier checks whether the counselor addressed the client's
// core motivation.
type MotivationVerifier struct {
	oracle oracle.Completer
}

func NewMotivationVerifier(o oracle.Completer) *MotivationVerifier {
	return &MotivationVerifier{oracle: o}
}

// Verify classifies the last lines of st against the profile's motivation.
// A yes sets the one-shot motivation flag; once reached it is never re-run.
func (v *MotivationVerifier) Verify(ctx context.Context, p *Profile, st *State) (oracle.Verdict, error) {
	if st.MotivationReached {
		return oracle.Verdict{}, nil
	}

	prompt := motivationPrompt(p.Goal, st.Tail(motivationWindow), p.Motivation)
	text, err := v.oracle.Complete(ctx, oracle.User("", prompt), oracle.Precise())
	if err != nil {
		return oracle.Verdict{}, fmt.Errorf("verify motivation: %w", err)
	}

	verdict := oracle.ParseVerdict(text, "Answer")
	if verdict.Yes {
		st.MotivationPending = true
		st.MotivationReached = true
	}
	return verdict, nil
}
