// Package session runs one counselor/client conversation and decides when it
// is over.
package session

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/misim/misim/client"
	"github.com/rs/zerolog"
)

// DefaultMaxTurns bounds a conversation when no limit is configured.
const DefaultMaxTurns = 50

// Counselor is the agent that opens every turn.
type Counselor interface {
	Reply(ctx context.Context) (string, error)
	Receive(line string)
}

// Client is the simulated client.
type Client interface {
	Reply(ctx context.Context) (client.Reply, error)
	Receive(line string)
}

// StopReason says why a conversation ended.
type StopReason string

const (
	StopMaxTurns   StopReason = "max_turns"
	StopHeuristic  StopReason = "heuristic"
	StopSemantic   StopReason = "semantic"
	StopTerminated StopReason = "client_terminated"
)

// Result summarizes a finished conversation.
type Result struct {
	Turns  int
	Reason StopReason
	// Lines is the conversation without annotations, opening included.
	Lines []string
}

// Orchestrator alternates counselor and client turns and writes every
// utterance to the transcript.
type Orchestrator struct {
	counselor  Counselor
	client     Client
	transcript *Transcript

	heuristic     HeuristicModerator
	semantic      *SemanticModerator
	maxTurns      int
	semanticAfter int
	logger        zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithMaxTurns(n int) Option { return func(o *Orchestrator) { o.maxTurns = n } }

// WithSemanticModerator enables the oracle-backed end check, which only runs
// once the turn index exceeds afterTurn.
func WithSemanticModerator(m *SemanticModerator, afterTurn int) Option {
	return func(o *Orchestrator) {
		o.semantic = m
		o.semanticAfter = afterTurn
	}
}

func WithOverlapThreshold(t float64) Option {
	return func(o *Orchestrator) { o.heuristic.Threshold = t }
}

func WithLogger(l zerolog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// NewOrchestrator wires the two agents to a transcript.
func NewOrchestrator(counselor Counselor, cl Client, transcript *Transcript, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		counselor:     counselor,
		client:        cl,
		transcript:    transcript,
		heuristic:     HeuristicModerator{Threshold: DefaultOverlapThreshold},
		maxTurns:      DefaultMaxTurns,
		semanticAfter: DefaultSemanticAfterTurn,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxTurns <= 0 {
		o.maxTurns = DefaultMaxTurns
	}
	return o
}

// Run plays the conversation to completion. Transcript lines written before
// an error are kept; the caller decides what an incomplete run means.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	res := Result{Lines: []string{client.OpeningCounselor, client.OpeningClient}}
	for _, line := range res.Lines {
		if err := o.transcript.Append(line); err != nil {
			return res, err
		}
	}

	for turn := 0; turn < o.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Turns = turn + 1
		log := o.logger.With().Int("turn", turn).Logger()

		line, err := o.counselor.Reply(ctx)
		if err != nil {
			return res, fmt.Errorf("turn %d: %w", turn, err)
		}
		if err := o.transcript.Append(line); err != nil {
			return res, err
		}
		line = StripAnnotations(line)
		o.client.Receive(line)
		res.Lines = append(res.Lines, line)

		if reason, err := o.ended(ctx, turn, res.Lines); err != nil || reason != "" {
			res.Reason = reason
			return res, err
		}

		reply, err := o.client.Reply(ctx)
		if err != nil {
			return res, fmt.Errorf("turn %d: %w", turn, err)
		}
		if err := o.transcript.Append(reply.Line()); err != nil {
			return res, err
		}
		log.Debug().Str("action", string(reply.Action)).Msg("turn complete")
		if reply.Action == client.Terminate {
			res.Reason = StopTerminated
			return res, nil
		}

		line = StripAnnotations(reply.Line())
		o.counselor.Receive(line)
		res.Lines = append(res.Lines, line)

		if reason, err := o.ended(ctx, turn, res.Lines); err != nil || reason != "" {
			res.Reason = reason
			return res, err
		}
	}

	res.Reason = StopMaxTurns
	return res, nil
}

func (o *Orchestrator) ended(ctx context.Context, turn int, lines []string) (StopReason, error) {
	if o.heuristic.Ended(lines) {
		return StopHeuristic, nil
	}
	if o.semantic == nil || turn <= o.semanticAfter {
		return "", nil
	}
	done, err := o.semantic.Ended(ctx, lines)
	if err != nil {
		return "", fmt.Errorf("turn %d: %w", turn, err)
	}
	if done {
		return StopSemantic, nil
	}
	return "", nil
}
