package client

import (
	"errors"
	"fmt"
	"strings"
)

// Profile describes one simulated client. Personas and beliefs only grow,
// plans shrink by one per consumed plan; only the owning Machine mutates them.
type Profile struct {
	Goal      string
	Behavior  string
	Reference string // reference transcript excerpt

	// Topics are the engagement topics ordered narrow → broad.
	Topics     [3]string
	Motivation string

	Personas []string
	Beliefs  []string
	Plans    []string

	Receptivity  float64 // 0–5
	InitialStage Stage
	FinalStage   Stage
}

// Validate reports profiles the engine cannot run.
func (p *Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Goal) == "" {
		errs = append(errs, errors.New("goal is empty"))
	}
	if strings.TrimSpace(p.Behavior) == "" {
		errs = append(errs, errors.New("behavior is empty"))
	}
	for i, t := range p.Topics {
		if strings.TrimSpace(t) == "" {
			errs = append(errs, fmt.Errorf("topic %d is empty", i))
		}
	}
	if strings.TrimSpace(p.Motivation) == "" {
		errs = append(errs, errors.New("motivation is empty"))
	}
	if p.Receptivity < 0 || p.Receptivity > 5 {
		errs = append(errs, fmt.Errorf("receptivity %v out of range [0, 5]", p.Receptivity))
	}
	switch p.InitialStage {
	case Precontemplation, Contemplation, Preparation:
	default:
		errs = append(errs, fmt.Errorf("invalid initial stage %q", p.InitialStage))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy so conversations never share list backing arrays.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Personas = append([]string(nil), p.Personas...)
	c.Beliefs = append([]string(nil), p.Beliefs...)
	c.Plans = append([]string(nil), p.Plans...)
	return &c
}

// statements returns the list backing an action's supporting text.
func (p *Profile) statements(a Action) *[]string {
	if a == Inform {
		return &p.Personas
	}
	return &p.Beliefs
}

// popPlan removes and returns the first acceptable plan.
func (p *Profile) popPlan() (string, bool) {
	if len(p.Plans) == 0 {
		return "", false
	}
	plan := p.Plans[0]
	p.Plans = p.Plans[1:]
	return plan, true
}
