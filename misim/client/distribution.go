package client

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution holds non-negative weights over SampledActions, in that order.
type Distribution [len(SampledActions)]float64

var errZeroDistribution = errors.New("distribution has no positive weight")

func indexOf(a Action) int {
	for i, s := range SampledActions {
		if s == a {
			return i
		}
	}
	return -1
}

// Weight returns the weight of a, or 0 for actions outside SampledActions.
func (d Distribution) Weight(a Action) float64 {
	if i := indexOf(a); i >= 0 {
		return d[i]
	}
	return 0
}

// Set returns a copy of d with a's weight replaced.
func (d Distribution) Set(a Action, w float64) Distribution {
	if i := indexOf(a); i >= 0 {
		d[i] = w
	}
	return d
}

// Add sums two distributions element-wise.
func (d Distribution) Add(o Distribution) Distribution {
	floats.Add(d[:], o[:])
	return d
}

func (d Distribution) Sum() float64 {
	return floats.Sum(d[:])
}

// Normalize scales d to sum to 1.
func (d Distribution) Normalize() (Distribution, error) {
	for _, w := range d {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return d, fmt.Errorf("invalid weight %v", w)
		}
	}
	sum := d.Sum()
	if sum <= 0 {
		return d, errZeroDistribution
	}
	scale := 1 / sum
	if math.IsInf(sum, 0) || math.IsInf(scale, 0) {
		return d, fmt.Errorf("weights sum %v cannot be normalized", sum)
	}
	floats.Scale(scale, d[:])
	return d, nil
}

// Sample draws one action. Zero-weight actions are never drawn.
func (d Distribution) Sample(src rand.Source) (Action, error) {
	n, err := d.Normalize()
	if err != nil {
		return "", err
	}
	idx := int(distuv.NewCategorical(n[:], src).Rand())
	return SampledActions[idx], nil
}

// UniformDistribution is the fallback when the oracle's weights cannot be parsed.
func UniformDistribution() Distribution {
	return Distribution{20, 20, 20, 20, 20}
}

// TraitDistribution maps receptivity to a fixed prior.
func TraitDistribution(receptivity float64) Distribution {
	switch {
	case receptivity < 2:
		return Distribution{23, 28, 15, 11, 22}
	case receptivity < 3:
		return Distribution{20, 25, 10, 15, 30}
	case receptivity < 4:
		return Distribution{19, 21, 11, 13, 36}
	case receptivity < 5:
		return Distribution{9, 20, 13, 14, 44}
	default:
		return Distribution{7, 13, 4, 16, 60}
	}
}
