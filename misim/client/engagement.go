package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
	"github.com/rs/zerolog"
)

const (
	engagementWindow        = 2
	defaultOffTopicMinLines = 12
)

// EngagementResult reports one tracking pass.
type EngagementResult struct {
	Level    Level
	Analysis string
	// Probes is the number of topic classifications issued.
	Probes int
}

// EngagementTracker probes the three engagement topics narrow → broad and
// stops at the first hit.
type EngagementTracker struct {
	oracle   oracle.Completer
	catalog  *TopicCatalog
	verifier *MotivationVerifier
	minLines int
	logger   zerolog.Logger
}

// NewEngagementTracker creates a tracker. minLines is the transcript length
// that must be exceeded before a total miss counts as off topic.
func NewEngagementTracker(o oracle.Completer, catalog *TopicCatalog, verifier *MotivationVerifier, minLines int, logger zerolog.Logger) *EngagementTracker {
	if catalog == nil {
		catalog = DefaultTopicCatalog()
	}
	if verifier == nil {
		verifier = NewMotivationVerifier(o)
	}
	if minLines <= 0 {
		minLines = defaultOffTopicMinLines
	}
	return &EngagementTracker{
		oracle:   o,
		catalog:  catalog,
		verifier: verifier,
		minLines: minLines,
		logger:   logger,
	}
}

// Track updates st.Engagement and st.OffTopic from the latest exchange.
func (t *EngagementTracker) Track(ctx context.Context, p *Profile, st *State) (EngagementResult, error) {
	lines := st.Tail(engagementWindow)
	levels := [3]Level{LevelNarrow, LevelMid, LevelBroad}

	var res EngagementResult
	for i, topic := range p.Topics {
		desc := t.catalog.Describe(topic, p.Behavior, p.Goal)
		text, err := t.oracle.Complete(ctx, oracle.User("", topicProbePrompt(lines, topic, desc)), oracle.Precise())
		if err != nil {
			return res, fmt.Errorf("probe topic %q: %w", topic, err)
		}
		res.Probes++

		verdict := oracle.ParseVerdict(text, "Answer")
		res.Analysis = verdict.Analysis
		if !verdict.Yes {
			continue
		}

		res.Level = levels[i]
		st.Engagement = res.Level
		switch res.Level {
		case LevelNarrow:
			st.OffTopic = 0
			mv, err := t.verifier.Verify(ctx, p, st)
			if err != nil {
				return res, err
			}
			res.Analysis = strings.TrimSpace(res.Analysis + " " + mv.Analysis)
		case LevelMid:
			st.OffTopic = 0
		}

		t.logger.Debug().
			Int("level", int(res.Level)).
			Str("topic", topic).
			Bool("motivation_pending", st.MotivationPending).
			Msg("topic engaged")
		return res, nil
	}

	res.Level = LevelOffTopic
	st.Engagement = LevelOffTopic
	if len(st.Lines) > t.minLines {
		st.OffTopic++
	}
	t.logger.Debug().Int("off_topic", st.OffTopic).Msg("no topic engaged")
	return res, nil
}
