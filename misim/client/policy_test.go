package client

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/ZanzyTHEbar/misim/misim/oracle/oracletest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Distribution
		wantErr bool
	}{
		{
			name: "plain object",
			text: `{"Deny": 35, "Downplay": 25, "Blame": 25, "Inform": 5, "Engage": 10}`,
			want: Distribution{35, 25, 25, 10, 5},
		},
		{
			name: "fenced with prose",
			text: "Here you go:\n```json\n{\"deny\": 60, \"ENGAGE\": 40}\n```",
			want: Distribution{60, 0, 0, 40, 0},
		},
		{
			name: "single quotes",
			text: `{'Deny': 40, 'Inform': 60}`,
			want: Distribution{40, 0, 0, 0, 60},
		},
		{name: "all zero", text: `{"Deny": 0, "Engage": 0}`, wantErr: true},
		{name: "negative", text: `{"Deny": -5, "Engage": 50}`, wantErr: true},
		{name: "not a number", text: `{"Deny": "high"}`, wantErr: true},
		{name: "array", text: `[20, 20, 20, 20, 20]`, wantErr: true},
		{name: "unknown keys only", text: `{"Plan": 100}`, wantErr: true},
		{name: "no json", text: "I can't do that.", wantErr: true},
		{
			name:    "sum overflows",
			text:    `{"Deny": 1e308, "Downplay": 1e308, "Blame": 1, "Engage": 1, "Inform": 1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeights(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionPolicy_ContextDistributionFallsBackToUniform(t *testing.T) {
	o := oracletest.New().On("Allocate weights", "weights are hard")
	p := NewActionPolicy(o, rand.NewPCG(1, 2), 5, zerolog.Nop())

	d, err := p.ContextDistribution(context.Background(), NewState(Precontemplation))
	require.NoError(t, err)
	assert.Equal(t, UniformDistribution(), d)
	assert.Equal(t, 5, o.Count("Allocate weights"))
}

func TestActionPolicy_OverflowingWeightsFallBackToUniform(t *testing.T) {
	o := oracletest.New().On("Allocate weights", `{"Deny": 1e308, "Downplay": 1e308, "Blame": 1, "Engage": 1, "Inform": 1}`)
	p := NewActionPolicy(o, rand.NewPCG(1, 2), 5, zerolog.Nop())

	d, err := p.ContextDistribution(context.Background(), NewState(Precontemplation))
	require.NoError(t, err)
	assert.Equal(t, UniformDistribution(), d)
	assert.Equal(t, 5, o.Count("Allocate weights"))

	var action Action
	require.NotPanics(t, func() {
		action, err = p.Sample(context.Background(), testProfile(), NewState(Precontemplation))
	})
	require.NoError(t, err)
	assert.Contains(t, SampledActions, action)
}

func TestActionPolicy_ContextDistributionRetriesUntilParsed(t *testing.T) {
	o := oracletest.New().On("Allocate weights", "nope", `{"Deny": 50, "Engage": 50}`)
	p := NewActionPolicy(o, rand.NewPCG(1, 2), 5, zerolog.Nop())

	d, err := p.ContextDistribution(context.Background(), NewState(Precontemplation))
	require.NoError(t, err)
	assert.Equal(t, Distribution{50, 0, 0, 50, 0}, d)
	assert.Equal(t, 2, o.Count("Allocate weights"))
}

func TestActionPolicy_PromptUsesLastThreeLines(t *testing.T) {
	o := oracletest.New().On("Allocate weights", `{"Engage": 100}`)
	p := NewActionPolicy(o, rand.NewPCG(1, 2), 5, zerolog.Nop())
	st := NewState(Precontemplation)
	st.Lines = append(st.Lines, "Counselor: Nice to hear.", "Client: Thanks.", "Counselor: How often do you drink?")

	_, err := p.ContextDistribution(context.Background(), st)
	require.NoError(t, err)

	prompt := o.Calls()[0].Prompt
	assert.NotContains(t, prompt, "What about you?")
	assert.Contains(t, prompt, "**Client**: Thanks.")
	assert.Contains(t, prompt, "**Counselor**: How often do you drink?")
}

func TestBlend(t *testing.T) {
	p := testProfile()
	d := Blend(UniformDistribution(), p)
	assert.Equal(t, Distribution{43, 48, 35, 31, 42}, d)

	p.Personas = nil
	assert.Zero(t, Blend(UniformDistribution(), p).Weight(Inform))

	p.Beliefs = nil
	d = Blend(UniformDistribution(), p)
	assert.Zero(t, d.Weight(Blame))
	assert.Zero(t, d.Weight(Inform))
}

func TestActionPolicy_SampleRespectsEmptyLists(t *testing.T) {
	o := oracletest.New().On("Allocate weights", `{"Inform": 80, "Blame": 20}`)
	p := NewActionPolicy(o, rand.NewPCG(3, 4), 5, zerolog.Nop())
	prof := testProfile()
	prof.Personas = nil
	prof.Beliefs = nil

	for range 200 {
		a, err := p.Sample(context.Background(), prof, NewState(Precontemplation))
		require.NoError(t, err)
		assert.NotEqual(t, Inform, a)
		assert.NotEqual(t, Blame, a)
	}
}
