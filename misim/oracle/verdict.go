package oracle

import (
	"strings"
	"unicode"
)

// Verdict is a parsed binary classification.
type Verdict struct {
	Yes      bool
	Analysis string
}

// ParseVerdict reads a yes/no answer from classifier output.
//
// A line starting with one of labels (case-insensitive, e.g. "Answer:") is
// authoritative. Without one, every line except the analysis is used. Either way the answer is
// yes only when "yes" appears and "no" does not; anything else is no.
func ParseVerdict(text string, labels ...string) Verdict {
	var (
		v      Verdict
		answer string
		rest   []string
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if body, ok := cutLabel(trimmed, lower, "analysis:"); ok {
			if v.Analysis == "" {
				v.Analysis = body
			}
			continue
		}
		for _, label := range labels {
			if body, ok := cutLabel(trimmed, lower, strings.ToLower(label)); ok && answer == "" {
				answer = body
			}
		}
		rest = append(rest, trimmed)
	}
	if answer == "" {
		answer = strings.Join(rest, " ")
	}

	yes, no := false, false
	for _, tok := range strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		switch tok {
		case "yes":
			yes = true
		case "no":
			no = true
		}
	}
	v.Yes = yes && !no
	return v
}

func cutLabel(line, lower, label string) (string, bool) {
	label = strings.TrimSuffix(label, ":") + ":"
	if !strings.HasPrefix(lower, label) {
		return "", false
	}
	return strings.TrimSpace(line[len(label):]), true
}
