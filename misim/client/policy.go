package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
	"github.com/rs/zerolog"
)

const (
	weightsWindow        = 3
	defaultParseAttempts = 5
)

// weightsSchema accepts any object of non-negative numbers; key matching is
// done after validation so the model's casing does not matter.
var weightsSchema = oracle.MustJSONValidator([]byte(`{
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {"type": "number", "minimum": 0}
}`))

// Sampler picks the next client action.
type Sampler interface {
	Sample(ctx context.Context, p *Profile, st *State) (Action, error)
}

// ActionPolicy blends context weights from the oracle with the profile's
// receptivity prior and samples from the result.
type ActionPolicy struct {
	oracle   oracle.Completer
	src      rand.Source
	attempts int
	logger   zerolog.Logger
}

// NewActionPolicy creates a policy. src must not be shared across goroutines.
func NewActionPolicy(o oracle.Completer, src rand.Source, attempts int, logger zerolog.Logger) *ActionPolicy {
	if attempts <= 0 {
		attempts = defaultParseAttempts
	}
	return &ActionPolicy{oracle: o, src: src, attempts: attempts, logger: logger}
}

// ContextDistribution asks the oracle for weights over the sampled actions.
// After the configured number of malformed replies it falls back to uniform.
func (a *ActionPolicy) ContextDistribution(ctx context.Context, st *State) (Distribution, error) {
	prompt := weightsPrompt(st.Tail(weightsWindow))
	for attempt := 1; attempt <= a.attempts; attempt++ {
		text, err := a.oracle.Complete(ctx, oracle.User("", prompt), oracle.JSON())
		if err != nil {
			return Distribution{}, fmt.Errorf("context weights: %w", err)
		}
		d, err := parseWeights(text)
		if err == nil {
			return d, nil
		}
		a.logger.Debug().Err(err).Int("attempt", attempt).Msg("malformed action weights")
	}
	a.logger.Warn().Int("attempts", a.attempts).Msg("action weights unparseable, using uniform")
	return UniformDistribution(), nil
}

// Blend combines context and trait weights and removes actions the profile
// cannot support.
func Blend(ctxDist Distribution, p *Profile) Distribution {
	d := ctxDist.Add(TraitDistribution(p.Receptivity))
	if len(p.Personas) == 0 {
		d = d.Set(Inform, 0)
	}
	if len(p.Beliefs) == 0 {
		d = d.Set(Blame, 0)
	}
	return d
}

// Sample implements Sampler.
func (a *ActionPolicy) Sample(ctx context.Context, p *Profile, st *State) (Action, error) {
	ctxDist, err := a.ContextDistribution(ctx, st)
	if err != nil {
		return "", err
	}
	d := Blend(ctxDist, p)
	action, err := d.Sample(a.src)
	if err != nil {
		return "", fmt.Errorf("sample action: %w", err)
	}
	a.logger.Debug().
		Str("action", string(action)).
		Floats64("weights", d[:]).
		Msg("action sampled")
	return action, nil
}

func parseWeights(text string) (Distribution, error) {
	raw, err := oracle.ExtractJSON(text)
	if err != nil {
		return Distribution{}, err
	}
	if err := weightsSchema.Validate(raw); err != nil {
		return Distribution{}, err
	}

	var m map[string]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return Distribution{}, fmt.Errorf("decode weights: %w", err)
	}

	var d Distribution
	for k, v := range m {
		for i, action := range SampledActions {
			if strings.EqualFold(strings.TrimSpace(k), string(action)) {
				d[i] = v
			}
		}
	}
	sum := d.Sum()
	if math.IsInf(sum, 0) {
		return Distribution{}, fmt.Errorf("action weights overflow in %s", raw)
	}
	if sum <= 0 {
		return Distribution{}, fmt.Errorf("no recognised action weights in %s", raw)
	}
	return d, nil
}

var _ Sampler = (*ActionPolicy)(nil)
