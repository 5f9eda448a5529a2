package client

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/misim/misim/oracle/oracletest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func questionState(question string) *State {
	st := NewState(Precontemplation)
	st.Lines = append(st.Lines, question)
	return st
}

func TestPersonaSelector_RequiresQuestion(t *testing.T) {
	o := oracletest.New().Fallback("Answer: Yes")
	st := questionState("Counselor: Tell me about your week.")

	text, ok, err := NewPersonaSelector(o, zerolog.Nop()).Select(context.Background(), Inform, testProfile(), st)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Empty(t, o.Calls())
}

func TestPersonaSelector_FirstMatchWins(t *testing.T) {
	o := oracletest.New().
		On("Candidate statement: You live alone.", "Analysis: fits\nAnswer: Yes").
		On("Candidate statement: ", "Answer: No")
	p := testProfile()
	p.Personas = append(p.Personas, "You have a dog.")

	text, ok, err := NewPersonaSelector(o, zerolog.Nop()).
		Select(context.Background(), Inform, p, questionState("Counselor: Who do you live with?"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "You live alone.", text)
	assert.Equal(t, 2, o.Count("Candidate statement: "), "scan stops at the first hit")
	assert.Len(t, p.Personas, 3)
}

func TestPersonaSelector_ScansBeliefsForResistance(t *testing.T) {
	for _, action := range []Action{Downplay, Blame, Hesitate} {
		t.Run(string(action), func(t *testing.T) {
			o := oracletest.New().On("Candidate statement: You believe everyone at work drinks.", "Answer: Yes")
			p := testProfile()
			st := questionState("Counselor: Why do you drink after work?")

			text, ok, err := NewPersonaSelector(o, zerolog.Nop()).Select(context.Background(), action, p, st)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "You believe everyone at work drinks.", text)
			assert.Zero(t, o.Count("Candidate statement: You live alone."))

			if action == Hesitate {
				assert.Equal(t, text, st.LastConcern)
			} else {
				assert.Empty(t, st.LastConcern)
			}
		})
	}
}

func TestPersonaSelector_SynthesizesOnMiss(t *testing.T) {
	o := oracletest.New().On("Write one new", "You worry that quitting\nwould cost you friends.")
	p := testProfile()
	st := questionState("Counselor: What would you lose if you stopped?")

	text, ok, err := NewPersonaSelector(o, zerolog.Nop()).Select(context.Background(), Hesitate, p, st)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "You worry that quitting would cost you friends.", text)
	assert.Equal(t, text, p.Beliefs[len(p.Beliefs)-1])
	assert.Len(t, p.Beliefs, 3)
	assert.Len(t, p.Personas, 2)
	assert.Equal(t, text, st.LastConcern)

	prompt := o.Calls()[len(o.Calls())-1].Prompt
	assert.Contains(t, prompt, "- You think a few drinks help you sleep.")
}

func TestPersonaSelector_SynthesisGoesToOwningList(t *testing.T) {
	o := oracletest.New().On("Write one new", "You started drinking in college.")
	p := testProfile()

	_, ok, err := NewPersonaSelector(o, zerolog.Nop()).
		Select(context.Background(), Inform, p, questionState("Counselor: When did it start?"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"You work night shifts at a hospital.", "You live alone.", "You started drinking in college."}, p.Personas)
	assert.Len(t, p.Beliefs, 2)
}

func TestPersonaSelector_EmptySynthesisIsMiss(t *testing.T) {
	o := oracletest.New().On("Write one new", "  \n ")
	p := testProfile()

	_, ok, err := NewPersonaSelector(o, zerolog.Nop()).
		Select(context.Background(), Blame, p, questionState("Counselor: Why?"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, p.Beliefs, 2)
}

func TestPersonaSelector_IgnoresUnsupportedActions(t *testing.T) {
	o := oracletest.New()
	_, ok, err := NewPersonaSelector(o, zerolog.Nop()).
		Select(context.Background(), Engage, testProfile(), questionState("Counselor: How are you?"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, o.Calls())
}
