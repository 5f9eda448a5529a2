package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ZanzyTHEbar/misim/misim/oracle/oracletest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(o *oracletest.Scripted) *EngagementTracker {
	return NewEngagementTracker(o, nil, nil, 0, zerolog.Nop())
}

func TestEngagementTracker_NarrowHitVerifiesMotivation(t *testing.T) {
	o := oracletest.New().
		On("Target topic: Depression", "Analysis: mentions low mood\nAnswer: Yes").
		On("Client motivation: ", "Analysis: targets the depression risk\nAnswer: Yes")
	st := NewState(Precontemplation)
	st.OffTopic = 3

	res, err := newTracker(o).Track(context.Background(), testProfile(), st)
	require.NoError(t, err)

	assert.Equal(t, LevelNarrow, res.Level)
	assert.Equal(t, 1, res.Probes)
	assert.Equal(t, LevelNarrow, st.Engagement)
	assert.Zero(t, st.OffTopic)
	assert.True(t, st.MotivationPending)
	assert.True(t, st.MotivationReached)
	assert.Equal(t, "mentions low mood targets the depression risk", res.Analysis)
	assert.Zero(t, o.Count("Target topic: Mental Health"), "probing stops at the first hit")
}

func TestEngagementTracker_MotivationCheckedOnce(t *testing.T) {
	o := oracletest.New().On("Target topic: Depression", "Answer: Yes")
	st := NewState(Contemplation)
	st.MotivationReached = true

	_, err := newTracker(o).Track(context.Background(), testProfile(), st)
	require.NoError(t, err)
	assert.Zero(t, o.Count("Client motivation: "))
	assert.False(t, st.MotivationPending)
}

func TestEngagementTracker_Levels(t *testing.T) {
	tests := []struct {
		name         string
		hit          string
		wantLevel    Level
		wantProbes   int
		wantOffTopic int
	}{
		{"mid resets off topic", "Target topic: Mental Health", LevelMid, 2, 0},
		{"broad keeps off topic", "Target topic: Health", LevelBroad, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := oracletest.New().On(tt.hit, "Answer: Yes")
			st := NewState(Precontemplation)
			st.OffTopic = 3

			res, err := newTracker(o).Track(context.Background(), testProfile(), st)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, res.Level)
			assert.Equal(t, tt.wantProbes, res.Probes)
			assert.Equal(t, tt.wantOffTopic, st.OffTopic)
			assert.Zero(t, o.Count("Client motivation: "))
		})
	}
}

func TestEngagementTracker_MissCountsOnlyAfterWarmup(t *testing.T) {
	o := oracletest.New()
	tracker := newTracker(o)

	st := NewState(Precontemplation)
	for i := len(st.Lines); i < 12; i++ {
		st.Lines = append(st.Lines, fmt.Sprintf("Counselor: line %d", i))
	}
	res, err := tracker.Track(context.Background(), testProfile(), st)
	require.NoError(t, err)
	assert.Equal(t, LevelOffTopic, res.Level)
	assert.Equal(t, 3, res.Probes)
	assert.Zero(t, st.OffTopic, "12 lines is not past the warm-up")

	st.Lines = append(st.Lines, "Counselor: line 12")
	_, err = tracker.Track(context.Background(), testProfile(), st)
	require.NoError(t, err)
	assert.Equal(t, 1, st.OffTopic)
}

func TestEngagementTracker_AmbiguousAnswerIsMiss(t *testing.T) {
	o := oracletest.New().On("Target topic: ", "Answer: Yes and no")
	st := NewState(Precontemplation)

	res, err := newTracker(o).Track(context.Background(), testProfile(), st)
	require.NoError(t, err)
	assert.Equal(t, LevelOffTopic, res.Level)
}

func TestEngagementTracker_UsesLastTwoLines(t *testing.T) {
	o := oracletest.New()
	st := NewState(Precontemplation)
	st.Lines = append(st.Lines, "Counselor: Do you ever feel down after drinking?")

	_, err := newTracker(o).Track(context.Background(), testProfile(), st)
	require.NoError(t, err)
	prompt := o.Calls()[0].Prompt
	assert.Contains(t, prompt, "- Client: I am good. What about you?\n- Counselor: Do you ever feel down after drinking?")
	assert.NotContains(t, prompt, "Hello. How are you?")
}

func TestEngagementTracker_PropagatesOracleError(t *testing.T) {
	boom := errors.New("boom")
	o := oracletest.New().Fail("Target topic: ", boom)

	_, err := newTracker(o).Track(context.Background(), testProfile(), NewState(Precontemplation))
	assert.ErrorIs(t, err, boom)
}
