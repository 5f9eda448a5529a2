package client

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/oracle"
	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"github.com/rs/zerolog"
)

// Limits bounds the retries and patience of a Machine.
type Limits struct {
	OffTopic         int // consecutive off-topic turns before terminating
	OffTopicMinLines int
	ParseAttempts    int
	ReplyAttempts    int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{OffTopic: 5, OffTopicMinLines: defaultOffTopicMinLines, ParseAttempts: defaultParseAttempts, ReplyAttempts: 5}
}

// Reply is one client turn.
type Reply struct {
	Action     Action
	Annotation string // bracketed debug instructions
	Utterance  string // starts with ClientTag
}

// Line is the transcript form of r.
func (r Reply) Line() string {
	if r.Annotation == "" {
		return r.Utterance
	}
	return r.Annotation + " " + r.Utterance
}

// Machine is the client's per-conversation decision engine. It owns its
// Profile and State; it is not safe for concurrent use.
type Machine struct {
	profile *Profile
	state   *State
	oracle  oracle.Completer
	limits  Limits
	logger  zerolog.Logger

	catalog    *TopicCatalog
	cache      ports.Cache
	src        rand.Source
	sampler    Sampler
	tracker    *EngagementTracker
	selector   *PersonaSelector
	normalizer *SubjectNormalizer

	system string
	memory []ports.Message
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithSampler replaces the default ActionPolicy.
func WithSampler(s Sampler) MachineOption { return func(m *Machine) { m.sampler = s } }

// WithRandSource seeds action sampling.
func WithRandSource(src rand.Source) MachineOption { return func(m *Machine) { m.src = src } }

func WithTopicCatalog(c *TopicCatalog) MachineOption { return func(m *Machine) { m.catalog = c } }
func WithCache(c ports.Cache) MachineOption          { return func(m *Machine) { m.cache = c } }
func WithLimits(l Limits) MachineOption              { return func(m *Machine) { m.limits = l } }
func WithLogger(l zerolog.Logger) MachineOption      { return func(m *Machine) { m.logger = l } }

// NewMachine creates a client for p, starting at p.InitialStage.
func NewMachine(p *Profile, o oracle.Completer, opts ...MachineOption) *Machine {
	m := &Machine{
		profile: p,
		state:   NewState(p.InitialStage),
		oracle:  o,
		limits:  DefaultLimits(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	def := DefaultLimits()
	if m.limits.OffTopic <= 0 {
		m.limits.OffTopic = def.OffTopic
	}
	if m.limits.ReplyAttempts <= 0 {
		m.limits.ReplyAttempts = def.ReplyAttempts
	}
	if m.src == nil {
		m.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if m.sampler == nil {
		m.sampler = NewActionPolicy(o, m.src, m.limits.ParseAttempts, m.logger)
	}
	m.tracker = NewEngagementTracker(o, m.catalog, NewMotivationVerifier(o), m.limits.OffTopicMinLines, m.logger)
	m.selector = NewPersonaSelector(o, m.logger)
	m.normalizer = NewSubjectNormalizer(o, m.cache)

	m.system = systemPrompt(p)
	m.memory = []ports.Message{
		{Role: ports.RoleUser, Content: OpeningCounselor},
		{Role: ports.RoleAssistant, Content: OpeningClient},
	}
	return m
}

// State exposes the conversation state for inspection.
func (m *Machine) State() *State { return m.state }

// Receive records a counselor line. Annotations must already be stripped.
func (m *Machine) Receive(line string) {
	m.state.Lines = append(m.state.Lines, line)
}

// Reply produces the next client turn.
func (m *Machine) Reply(ctx context.Context) (Reply, error) {
	if m.state.Stage == Terminated {
		return Reply{}, fmt.Errorf("client already terminated")
	}

	eng, err := m.tracker.Track(ctx, m.profile, m.state)
	if err != nil {
		return Reply{}, err
	}

	d := directive{analysis: eng.Analysis}
	if m.state.MotivationPending {
		m.state.MotivationPending = false
		m.state.Stage = m.state.Stage.afterMotivation()
		d.action = Acknowledge
		d.motivation = m.profile.Motivation
	} else {
		d.engagement = engagementInstruction(m.state.Engagement, m.profile)
		d.stage = m.state.Stage.Instruction(m.profile.Behavior, m.profile.Goal)

		action := Terminate
		if m.state.OffTopic < m.limits.OffTopic {
			if action, err = m.sampler.Sample(ctx, m.profile, m.state); err != nil {
				return Reply{}, err
			}
		}
		if d.action, d.support, err = m.resolve(ctx, action); err != nil {
			return Reply{}, err
		}
	}

	utterance, err := m.generate(ctx, d.instruction())
	if err != nil {
		return Reply{}, err
	}

	m.memory = append(m.memory,
		ports.Message{Role: ports.RoleUser, Content: m.state.Last()},
		ports.Message{Role: ports.RoleAssistant, Content: utterance},
	)
	m.state.Lines = append(m.state.Lines, utterance)
	if d.action == Terminate {
		m.state.Stage = Terminated
	}

	m.logger.Debug().
		Str("action", string(d.action)).
		Str("stage", string(m.state.Stage)).
		Int("level", int(m.state.Engagement)).
		Int("off_topic", m.state.OffTopic).
		Msg("client replied")

	return Reply{Action: d.action, Annotation: d.annotation(), Utterance: utterance}, nil
}

// resolve fetches the text an action needs, demoting it when none exists.
func (m *Machine) resolve(ctx context.Context, action Action) (Action, string, error) {
	if action == Plan {
		if plan, ok := m.profile.popPlan(); ok {
			return Plan, plan, nil
		}
		m.logger.Debug().Msg("no acceptable plans left, informing instead")
		action = Inform
	}
	if !action.needsSupport() {
		return action, "", nil
	}

	statement, ok, err := m.selector.Select(ctx, action, m.profile, m.state)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return Hesitate, "", nil
	}
	statement, err = m.normalizer.Normalize(ctx, statement)
	if err != nil {
		return "", "", err
	}
	return action, statement, nil
}

// generate asks for an utterance until it carries the client tag. After the
// last attempt the reply is accepted and tagged.
func (m *Machine) generate(ctx context.Context, instruction string) (string, error) {
	in := ports.PromptInput{
		System: m.system,
		Messages: append(m.memory[:len(m.memory):len(m.memory)], ports.Message{
			Role:    ports.RoleUser,
			Content: m.state.Last() + " " + instruction,
		}),
	}

	var text string
	for attempt := 1; attempt <= m.limits.ReplyAttempts; attempt++ {
		out, err := m.oracle.Complete(ctx, in, oracle.Chat(100))
		if err != nil {
			return "", fmt.Errorf("client reply: %w", err)
		}
		text = strings.Join(strings.Fields(out), " ")
		if strings.HasPrefix(text, ClientTag) {
			return text, nil
		}
		m.logger.Debug().Int("attempt", attempt).Msg("client reply missing speaker tag")
	}
	return ClientTag + strings.TrimPrefix(text, strings.TrimSpace(ClientTag)), nil
}
