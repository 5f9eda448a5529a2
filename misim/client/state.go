package client

import "strings"

// Level is the engagement tier reached by the counselor, 1 (off topic) to 4
// (narrowest topic).
type Level int

const (
	LevelOffTopic Level = iota + 1
	LevelBroad
	LevelMid
	LevelNarrow
)

const (
	OpeningCounselor = "Counselor: Hello. How are you?"
	OpeningClient    = "Client: I am good. What about you?"

	ClientTag    = "Client: "
	CounselorTag = "Counselor: "
)

// State is the client's view of one conversation.
type State struct {
	Lines []string // append-only transcript, speaker tagged
	Stage Stage

	// MotivationPending is set by the verifier and consumed by the next reply.
	MotivationPending bool
	// MotivationReached latches once the verifier has said yes.
	MotivationReached bool

	Engagement  Level
	OffTopic    int // consecutive off-topic turns
	LastConcern string
}

// NewState seeds a conversation with the fixed opening exchange.
func NewState(stage Stage) *State {
	return &State{
		Lines:      []string{OpeningCounselor, OpeningClient},
		Stage:      stage,
		Engagement: LevelOffTopic,
	}
}

// Tail returns up to the last n lines.
func (s *State) Tail(n int) []string {
	return tail(s.Lines, n)
}

// Last returns the latest line or "".
func (s *State) Last() string {
	if len(s.Lines) == 0 {
		return ""
	}
	return s.Lines[len(s.Lines)-1]
}

// Snapshot returns a copy safe to hand to other goroutines.
func (s *State) Snapshot() State {
	c := *s
	c.Lines = append([]string(nil), s.Lines...)
	return c
}

func tail(lines []string, n int) []string {
	if n >= len(lines) {
		return lines
	}
	return lines[len(lines)-n:]
}

// bulletLines renders lines as a markdown list.
func bulletLines(lines []string) string {
	return "- " + strings.Join(lines, "\n- ")
}
