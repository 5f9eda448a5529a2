package client

import (
	"context"
	"sync"
)

func testProfile() *Profile {
	return &Profile{
		Goal:       "reducing alcohol consumption",
		Behavior:   "drinking alcohol",
		Reference:  "Client: I only drink on weekends.\nCounselor: What does a weekend look like for you?",
		Topics:     [3]string{"Depression", "Mental Health", "Health"},
		Motivation: "You are motivated because alcohol could worsen your depression.",
		Personas:   []string{"You work night shifts at a hospital.", "You live alone."},
		Beliefs:    []string{"You think a few drinks help you sleep.", "You believe everyone at work drinks."},
		Plans:      []string{"Limit drinking to two nights a week.", "Join a support group."},

		Receptivity:  1.5,
		InitialStage: Precontemplation,
		FinalStage:   Contemplation,
	}
}

// fixedSampler replays actions in order and then repeats the last one.
type fixedSampler struct {
	mu      sync.Mutex
	actions []Action
	calls   int
}

func (f *fixedSampler) Sample(ctx context.Context, p *Profile, st *State) (Action, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.actions[min(f.calls, len(f.actions)-1)]
	f.calls++
	return a, nil
}
