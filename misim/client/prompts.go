package client

import (
	"fmt"
	"strings"
)

// Prompt rendering is pure: every function reads a snapshot and returns text.

func topicProbePrompt(lines []string, topic, description string) string {
	return fmt.Sprintf(`## Instruction
You are given the latest lines of a counseling session and a target topic. Decide whether the counselor's statements explicitly mention or explore the target topic.
- If they do, answer "Yes".
- If they do not, answer "No".

## Dialogue Context
%s

## Topic
Target topic: %s
%s

## Response Format
Analysis: <one sentence>
Answer: <Yes or No>`, bulletLines(lines), topic, description)
}

func motivationPrompt(goal string, lines []string, motivation string) string {
	return fmt.Sprintf(`## Instruction
Evaluate whether the counselor's recent statements align with the client's motivation: the same topic, the same target (self or others), and the same aspect (risk or benefit). Decide whether they would effectively motivate the client.

## Conversation toward %s
%s

## Motivation
Client motivation: %s

Question: Can the counselor's statements motivate the client?

## Response Format
Analysis: <one sentence>
Answer: <Yes or No>`, goal, bulletLines(lines), motivation)
}

func weightsPrompt(lines []string) string {
	tagged := strings.NewReplacer("Client:", "**Client**:", "Counselor:", "**Counselor**:").
		Replace(strings.Join(lines, "\n"))
	return fmt.Sprintf(`Assume you are a Client in a counseling conversation. The latest turns are:
%s

Allocate weights to each of the following dialogue actions so that the next client turn stays coherent:
- Deny: directly refuse to admit the behavior is problematic or needs change.
- Downplay: downplay the importance or impact of the behavior or situation.
- Blame: blame external factors or others to justify the behavior.
- Inform: share details about background, experiences, or emotions.
- Engage: interact politely with the counselor, such as greeting or thanking.

Reply with a JSON object of integers that sum to 100, for example {"Deny": 35, "Downplay": 25, "Blame": 25, "Inform": 5, "Engage": 10}.`, tagged)
}

var supportQuestions = map[Action]string{
	Inform:   "Can this statement answer the counselor's question?",
	Downplay: "Can this statement reply to the counselor's question while downplaying the importance or impact of the behavior?",
	Blame:    "Can this statement reply to the counselor's question by blaming external factors or others?",
	Hesitate: "Can this statement reply to the counselor's question while showing uncertainty or ambivalence about change?",
}

func supportPrompt(action Action, lines []string, statement string) string {
	return fmt.Sprintf(`Here is a conversation between a Client and a Counselor. The counselor's last utterance contains a question.
%s

%s Answer Yes or No.
Candidate statement: %s`, strings.Join(lines, "\n"), supportQuestions[action], statement)
}

func synthesisPrompt(action Action, lines []string, existing []string) string {
	kind := "persona detail"
	if action != Inform {
		kind = "belief"
	}
	known := "(none)"
	if len(existing) > 0 {
		known = bulletLines(existing)
	}
	return fmt.Sprintf(`Here is a conversation between a Client and a Counselor. The counselor's last utterance contains a question.
%s

Known client statements:
%s

Write one new %s for the client that answers the question and neither conflicts with nor duplicates the known statements. Reply with one simple sentence using "you" as the subject.`, strings.Join(lines, "\n"), known, kind)
}

func normalizePrompt(statement string) string {
	return fmt.Sprintf(`## Task
Rewrite the statement below as sentences with "You" as the subject.

## Statement
%s

## Response Format
Reply with the rewritten sentences only.`, statement)
}

func systemPrompt(p *Profile) string {
	statements := append(append([]string(nil), p.Personas...), p.Beliefs...)
	return fmt.Sprintf(`In this role-play scenario you are a Client talking about your %s, while the Counselor's goal is %s.

Here are your personas, which you must follow consistently throughout the conversation:
%s

Here is a conversation from a parallel world between you (Client) and a Counselor. Follow its style and information:
%s

Follow these guidelines in every response:
- **Start your response with "Client: "**
- **Adhere strictly to the state, action and persona given within square brackets.**
- **Keep responses coherent and concise, similar to the reference conversation and no more than 3 sentences.**
- **Be natural without being overly polite.**
- **Stick to the persona provided and avoid introducing contradicting details.**`,
		p.Behavior, p.Goal, bulletLines(statements), strings.TrimSpace(p.Reference))
}

// engagementInstruction renders the directive for an engagement level.
func engagementInstruction(level Level, p *Profile) string {
	narrow, mid, broad := p.Topics[0], p.Topics[1], p.Topics[2]
	switch level {
	case LevelNarrow:
		return fmt.Sprintf("Offer specific responses that affirm the counselor is on the right track, showing that you're motivated by %s. %s", narrow, p.Motivation)
	case LevelMid:
		return fmt.Sprintf("Engage more directly with %s, and offer responses that subtly indicate there's a deeper, more specific issue worth exploring within it, i.e. %s.", mid, narrow)
	case LevelBroad:
		return fmt.Sprintf("Acknowledge the importance of %s, but hint that your focus is on a more specific topic within it, i.e. %s.", broad, mid)
	default:
		return "Give vague and broad answers that avoid focusing on the current topic. Shift the conversation subtly toward unrelated areas without engaging deeply."
	}
}

const formatConstraints = "Don't show overknowledge and keep your response concise (no more than 50 words). Don't state your stage explicitly."

// directive is one client turn's instruction before rendering.
type directive struct {
	engagement string
	stage      string
	action     Action
	support    string // persona, belief or plan text
	motivation string // set only on the acknowledgement path
	analysis   string
}

// instruction is the bracketed text sent to the model with the counselor line.
func (d directive) instruction() string {
	parts := make([]string, 0, 6)
	if d.motivation != "" {
		parts = append(parts, d.motivation, d.action.Instruction())
	} else {
		parts = append(parts, d.engagement, d.stage, d.action.Instruction())
		switch {
		case d.action == Plan && d.support != "":
			parts = append(parts, "The plan: "+d.support)
		case d.support != "":
			parts = append(parts, "You should follow the persona: "+d.support)
		}
		parts = append(parts, formatConstraints)
	}
	return "[" + SanitizeAnnotation(strings.Join(nonEmpty(parts), " ")) + "]"
}

// annotation is the debug prefix written to the transcript.
func (d directive) annotation() string {
	parts := []string{"Engage Analysis: " + d.analysis}
	if d.motivation != "" {
		parts = append(parts, d.motivation, "Action Instruction: "+d.action.Instruction())
	} else {
		parts = append(parts,
			"Engage Instruction: "+d.engagement,
			"State Instruction: "+d.stage,
		)
		if d.support != "" {
			parts = append(parts, "Information: "+d.support)
		}
		parts = append(parts, "Action Instruction: "+d.action.Instruction())
	}
	return "[" + SanitizeAnnotation(strings.Join(parts, " ")) + "]"
}

// SanitizeAnnotation is applied to annotation text so the bracketed prefix
// stays strippable by a non-greedy match and on a single line.
func SanitizeAnnotation(s string) string {
	s = strings.NewReplacer("[", "(", "]", ")", "\r", " ", "\n", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
