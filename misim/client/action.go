package client

// Action is a discrete client dialogue behavior.
type Action string

const (
	Deny        Action = "Deny"
	Downplay    Action = "Downplay"
	Blame       Action = "Blame"
	Inform      Action = "Inform"
	Engage      Action = "Engage"
	Hesitate    Action = "Hesitate"
	Doubt       Action = "Doubt"
	Acknowledge Action = "Acknowledge"
	Accept      Action = "Accept"
	Reject      Action = "Reject"
	Plan        Action = "Plan"
	Terminate   Action = "Terminate"
)

// SampledActions is the fixed order of the actions the policy samples from.
var SampledActions = [5]Action{Deny, Downplay, Blame, Engage, Inform}

var actionInstructions = map[Action]string{
	Deny:        "You should directly refuse to admit your behavior is problematic or needs change.",
	Downplay:    "You should downplay the importance or impact of your behavior.",
	Blame:       "You should blame external factors or others to justify your behavior.",
	Inform:      "You should share details about your background, experiences, or emotions revealing the current state.",
	Engage:      "You should interact with the counselor consistently with your state and mimic the style of the reference conversation.",
	Hesitate:    "You should show uncertainty, indicating ambivalence about change.",
	Doubt:       "You should express skepticism about the practicality or success of proposed changes without revealing further information.",
	Acknowledge: "You should acknowledge the need for change.",
	Accept:      "You should agree to adopt the suggested action plan.",
	Reject:      "You should decline the proposed plan, deeming it unsuitable.",
	Plan:        "You should propose or detail steps for a change plan.",
	Terminate:   "You should highlight current state and engagement, express a desire to end the current session, and suggest further discussion be deferred to a later time.",
}

// TerminateMarker appears in the annotation of every terminating reply.
var TerminateMarker = actionInstructions[Terminate]

// Instruction returns the role-play directive for a.
func (a Action) Instruction() string {
	return actionInstructions[a]
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := actionInstructions[a]
	return ok
}

// needsSupport reports whether a must be grounded in a persona or belief statement.
func (a Action) needsSupport() bool {
	switch a {
	case Inform, Downplay, Blame, Hesitate:
		return true
	}
	return false
}
