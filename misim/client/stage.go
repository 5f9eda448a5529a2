package client

import (
	"fmt"
	"strings"
)

// Stage is the client's readiness to change.
type Stage string

const (
	Precontemplation Stage = "Precontemplation"
	Contemplation    Stage = "Contemplation"
	Preparation      Stage = "Preparation"
	Terminated       Stage = "Terminated"
)

// ParseStage accepts stage labels case-insensitively.
func ParseStage(s string) (Stage, error) {
	for _, st := range []Stage{Precontemplation, Contemplation, Preparation, Terminated} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Instruction renders the stage directive for a behavior and goal.
func (s Stage) Instruction(behavior, goal string) string {
	switch s {
	case Precontemplation:
		return fmt.Sprintf("You don't think your %s is problematic and want to sustain it.", behavior)
	case Contemplation:
		return fmt.Sprintf("You feel that your %s is problematic, but still hesitate about %s.", behavior, goal)
	case Preparation:
		return fmt.Sprintf("You are getting ready to take action and begin discussing steps toward %s.", goal)
	default:
		return ""
	}
}

// afterMotivation is the stage reached once the core motivation is addressed.
// Preparation and Terminated are left unchanged.
func (s Stage) afterMotivation() Stage {
	switch s {
	case Precontemplation, Contemplation:
		return Contemplation
	default:
		return s
	}
}
