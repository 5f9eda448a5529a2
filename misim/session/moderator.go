package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
)

const (
	DefaultOverlapThreshold  = 0.9
	DefaultSemanticAfterTurn = 20

	semanticWindow = 5
)

var annotationPattern = regexp.MustCompile(`\[.*?\]`)

// StripAnnotations removes bracketed debug annotations from a transcript line.
func StripAnnotations(line string) string {
	return strings.TrimSpace(annotationPattern.ReplaceAllString(line, ""))
}

// HeuristicModerator ends a conversation on a farewell or when the dialogue
// starts repeating itself.
type HeuristicModerator struct {
	// Threshold is the token-set overlap above which two lines count as a loop.
	Threshold float64
}

// Ended reports whether lines should stop the conversation.
func (h HeuristicModerator) Ended(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	last := strings.ToLower(lines[len(lines)-1])
	if strings.Contains(last, "goodbye") || strings.Contains(last, "good bye") {
		return true
	}
	if len(lines) < 3 {
		return false
	}
	return Overlap(lines[len(lines)-1], lines[len(lines)-3]) > h.threshold()
}

func (h HeuristicModerator) threshold() float64 {
	if h.Threshold <= 0 {
		return DefaultOverlapThreshold
	}
	return h.Threshold
}

// Overlap is the share of the smaller whitespace token set found in the
// other, case-insensitive. Empty lines never overlap.
func Overlap(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(tb) < len(ta) {
		ta, tb = tb, ta
	}
	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// SemanticModerator asks the oracle whether the session has reached a
// natural end.
type SemanticModerator struct {
	oracle oracle.Completer
}

func NewSemanticModerator(o oracle.Completer) *SemanticModerator {
	return &SemanticModerator{oracle: o}
}

// Ended classifies the last lines of the conversation. Ambiguous answers
// keep the conversation going.
func (s *SemanticModerator) Ended(ctx context.Context, lines []string) (bool, error) {
	if len(lines) > semanticWindow {
		lines = lines[len(lines)-semanticWindow:]
	}
	text, err := s.oracle.Complete(ctx, oracle.User("", conclusionPrompt(lines)), oracle.Precise())
	if err != nil {
		return false, fmt.Errorf("semantic moderation: %w", err)
	}
	return oracle.ParseVerdict(text, "End or Not").Yes, nil
}

func conclusionPrompt(lines []string) string {
	return fmt.Sprintf(`Assess the most recent utterances of a counseling session and decide whether the session has concluded.
The session has concluded if either condition holds:
- The Client and Counselor have worked out an actionable plan together.
- The Counselor decides not to pursue change in the Client's behavior and offers support in the future.

Conversation snippet:
%s

Question: Should the conversation be concluded?

## Response Format
Conversation State: <one sentence>
End or Not: <Yes or No>`, strings.Join(lines, "\n"))
}
