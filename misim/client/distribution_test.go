package client

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraitDistribution_Buckets(t *testing.T) {
	tests := []struct {
		receptivity float64
		want        Distribution
		sum         float64
	}{
		// The lowest bucket sums to 99.
		{0, Distribution{23, 28, 15, 11, 22}, 99},
		{1.99, Distribution{23, 28, 15, 11, 22}, 99},
		{2, Distribution{20, 25, 10, 15, 30}, 100},
		{3.5, Distribution{19, 21, 11, 13, 36}, 100},
		{4, Distribution{9, 20, 13, 14, 44}, 100},
		{5, Distribution{7, 13, 4, 16, 60}, 100},
	}
	for _, tt := range tests {
		got := TraitDistribution(tt.receptivity)
		assert.Equal(t, tt.want, got, "receptivity %v", tt.receptivity)
		assert.Equal(t, tt.sum, got.Sum(), "receptivity %v", tt.receptivity)
	}
}

func TestDistribution_Normalize(t *testing.T) {
	d, err := Distribution{10, 30, 0, 40, 20}.Normalize()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d.Sum(), 1e-9)
	assert.InDelta(t, 0.3, d.Weight(Downplay), 1e-9)
	assert.Zero(t, d.Weight(Blame))

	d2, err := d.Normalize()
	require.NoError(t, err)
	assert.InDeltaSlice(t, d[:], d2[:], 1e-12, "normalizing twice changes nothing")

	_, err = Distribution{}.Normalize()
	assert.Error(t, err)

	_, err = Distribution{1, -1, 0, 0, 0}.Normalize()
	assert.Error(t, err)
}

func TestDistribution_NormalizeRejectsOverflow(t *testing.T) {
	d := Distribution{math.MaxFloat64, math.MaxFloat64, 1, 1, 1}
	require.True(t, math.IsInf(d.Sum(), 1))

	_, err := d.Normalize()
	assert.Error(t, err)

	_, err = d.Sample(rand.NewPCG(1, 1))
	assert.Error(t, err)

	_, err = Distribution{math.SmallestNonzeroFloat64, 0, 0, 0, 0}.Normalize()
	assert.Error(t, err, "a sum whose reciprocal overflows is rejected")
}

func TestDistribution_SetAndAdd(t *testing.T) {
	d := UniformDistribution().Set(Inform, 0)
	assert.Zero(t, d.Weight(Inform))
	assert.Equal(t, 20.0, d.Weight(Deny))
	assert.Zero(t, d.Weight(Plan), "actions outside the sampled set have no weight")

	sum := d.Add(Distribution{1, 1, 1, 1, 1})
	assert.Equal(t, Distribution{21, 21, 21, 21, 1}, sum)
	assert.Equal(t, 0.0, d.Weight(Inform), "Add does not mutate the receiver")
}

func TestDistribution_SampleNeverDrawsZeroWeight(t *testing.T) {
	d := Distribution{5, 0, 0, 5, 0}
	src := rand.NewPCG(7, 11)
	seen := map[Action]int{}
	for range 500 {
		a, err := d.Sample(src)
		require.NoError(t, err)
		seen[a]++
	}
	assert.Zero(t, seen[Downplay])
	assert.Zero(t, seen[Blame])
	assert.Zero(t, seen[Inform])
	assert.Positive(t, seen[Deny])
	assert.Positive(t, seen[Engage])
}

func TestDistribution_SampleIsReproducible(t *testing.T) {
	d := TraitDistribution(3)
	draw := func() []Action {
		src := rand.NewPCG(42, 42)
		out := make([]Action, 20)
		for i := range out {
			a, err := d.Sample(src)
			require.NoError(t, err)
			out[i] = a
		}
		return out
	}
	assert.Equal(t, draw(), draw())
}

func TestDistribution_SampleRejectsEmpty(t *testing.T) {
	_, err := Distribution{}.Sample(rand.NewPCG(1, 1))
	assert.Error(t, err)
}
