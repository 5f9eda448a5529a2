package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/misim/misim/client"
	"github.com/ZanzyTHEbar/misim/misim/config"
	"github.com/ZanzyTHEbar/misim/misim/counselor"
	"github.com/ZanzyTHEbar/misim/misim/oracle"
	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"github.com/ZanzyTHEbar/misim/misim/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Job identifies one conversation in a batch.
type Job struct {
	Index   int // profile index
	Round   int
	Profile *client.Profile
}

// Outcome is the result of one job.
type Outcome struct {
	Job
	ID      string
	Path    string
	Skipped bool
	Result  session.Result
	Err     error
}

// Summary counts outcomes by kind.
type Summary struct {
	Completed int
	Skipped   int
	Failed    int
}

func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			s.Failed++
		case o.Skipped:
			s.Skipped++
		default:
			s.Completed++
		}
	}
	return s
}

// Runner runs every (profile, round) pair as an independent conversation.
// Conversations share only the oracle, which is safe for concurrent use.
type Runner struct {
	oracle   oracle.Completer
	cfg      config.Config
	seed     uint64
	newCache func() ports.Cache
	catalog  *client.TopicCatalog
	logger   zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCacheFactory gives every conversation its own normalizer cache.
func WithCacheFactory(f func() ports.Cache) RunnerOption {
	return func(r *Runner) { r.newCache = f }
}

func WithTopicCatalog(c *client.TopicCatalog) RunnerOption {
	return func(r *Runner) { r.catalog = c }
}

func WithLogger(l zerolog.Logger) RunnerOption { return func(r *Runner) { r.logger = l } }

// NewRunner creates a runner. A zero cfg.Run.Seed picks a random seed.
func NewRunner(o oracle.Completer, cfg config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		oracle: o,
		cfg:    cfg,
		seed:   cfg.Run.Seed,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.seed == 0 {
		r.seed = rand.Uint64()
	}
	if r.cfg.Run.Workers <= 0 {
		r.cfg.Run.Workers = 1
	}
	if r.cfg.Run.Rounds <= 0 {
		r.cfg.Run.Rounds = 1
	}
	if r.cfg.Session.CompleteMinLines <= 0 {
		r.cfg.Session.CompleteMinLines = DefaultCompleteMinLines
	}
	return r
}

// TranscriptPath returns where job's transcript is written.
func (r *Runner) TranscriptPath(job Job) string {
	return filepath.Join(r.cfg.Run.OutputDir, fmt.Sprintf("Sample-%d-Round-%d.txt", job.Index, job.Round))
}

// Run executes all jobs, at most cfg.Run.Workers at a time. A failed
// conversation is recorded in its Outcome and does not stop the others.
// Outcomes are ordered by round, then profile index.
func (r *Runner) Run(ctx context.Context, profiles []*client.Profile) ([]Outcome, error) {
	p := pool.NewWithResults[Outcome]().WithMaxGoroutines(r.cfg.Run.Workers)
	for round := 0; round < r.cfg.Run.Rounds; round++ {
		for i, prof := range profiles {
			job := Job{Index: i, Round: round, Profile: prof}
			p.Go(func() Outcome { return r.runOne(ctx, job) })
		}
	}
	outcomes := p.Wait()

	sort.Slice(outcomes, func(a, b int) bool {
		if outcomes[a].Round != outcomes[b].Round {
			return outcomes[a].Round < outcomes[b].Round
		}
		return outcomes[a].Index < outcomes[b].Index
	})
	return outcomes, ctx.Err()
}

func (r *Runner) runOne(ctx context.Context, job Job) Outcome {
	out := Outcome{Job: job, ID: uuid.NewString(), Path: r.TranscriptPath(job)}
	log := r.logger.With().
		Str("conversation_id", out.ID).
		Int("profile", job.Index).
		Int("round", job.Round).
		Logger()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	done, err := IsComplete(out.Path, job.Profile.Motivation, r.cfg.Session.CompleteMinLines)
	if err != nil {
		out.Err = err
		return out
	}
	if done {
		out.Skipped = true
		log.Info().Str("path", out.Path).Msg("transcript already complete, skipping")
		return out
	}

	out.Result, out.Err = r.converse(ctx, job, out.Path, log)
	if out.Err != nil {
		log.Error().Err(out.Err).Int("turns", out.Result.Turns).Msg("conversation incomplete")
		return out
	}
	log.Info().
		Str("reason", string(out.Result.Reason)).
		Int("turns", out.Result.Turns).
		Msg("conversation finished")
	return out
}

func (r *Runner) converse(ctx context.Context, job Job, path string, log zerolog.Logger) (res session.Result, err error) {
	prof := job.Profile.Clone()

	clientOpts := []client.MachineOption{
		client.WithRandSource(rand.NewPCG(r.seed, uint64(job.Round)<<32|uint64(job.Index))),
		client.WithLimits(client.Limits{
			OffTopic:         r.cfg.Client.OffTopicLimit,
			OffTopicMinLines: r.cfg.Client.OffTopicMinLines,
			ParseAttempts:    r.cfg.Client.ParseAttempts,
			ReplyAttempts:    r.cfg.Client.ReplyAttempts,
		}),
		client.WithLogger(log.With().Str("component", "client").Logger()),
	}
	if r.catalog != nil {
		clientOpts = append(clientOpts, client.WithTopicCatalog(r.catalog))
	}
	if r.newCache != nil {
		clientOpts = append(clientOpts, client.WithCache(r.newCache()))
	}

	tr, err := session.CreateTranscript(path)
	if err != nil {
		return res, err
	}
	defer func() {
		err = errors.Join(err, tr.Close())
	}()

	orch := session.NewOrchestrator(
		counselor.New(r.oracle, prof.Goal, prof.Behavior, counselor.WithLogger(log.With().Str("component", "counselor").Logger())),
		client.NewMachine(prof, r.oracle, clientOpts...),
		tr,
		session.WithMaxTurns(r.cfg.Run.MaxTurns),
		session.WithOverlapThreshold(r.cfg.Session.LoopOverlapThreshold),
		session.WithSemanticModerator(session.NewSemanticModerator(r.oracle), r.cfg.Session.SemanticAfterTurn),
		session.WithLogger(log),
	)
	return orch.Run(ctx)
}
