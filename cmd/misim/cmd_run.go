package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/misim/misim/batch"
	"github.com/ZanzyTHEbar/misim/misim/oracle"
	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate conversations for every profile",
	Long: `Runs one conversation per (profile, round). Transcripts that are already
complete are skipped, so an interrupted batch can be resumed by running the
same command again.

Example:
  misim run --profiles profiles.jsonl --output out --rounds 3 --workers 8`,
	RunE: runBatch,
}

func init() {
	f := runCmd.Flags()
	f.String("profiles", "", "JSONL profile file (run.profile_path)")
	f.String("output", "", "output directory (run.output_dir)")
	f.Int("rounds", 0, "rounds per profile (run.rounds)")
	f.Int("max-turns", 0, "maximum turns per conversation (run.max_turns)")
	f.Int("workers", 0, "concurrent conversations (run.workers)")
	f.Uint64("seed", 0, "sampling seed, 0 for random (run.seed)")
	f.String("provider", "", "oracle provider: openai or gemini (oracle.provider)")
	f.String("model", "", "model name (oracle.model)")
}

// applyRunFlags overrides config values with flags the user set.
func applyRunFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	var err error
	if f.Changed("profiles") {
		cfg.Run.ProfilePath, err = f.GetString("profiles")
	}
	if err == nil && f.Changed("output") {
		cfg.Run.OutputDir, err = f.GetString("output")
	}
	if err == nil && f.Changed("rounds") {
		cfg.Run.Rounds, err = f.GetInt("rounds")
	}
	if err == nil && f.Changed("max-turns") {
		cfg.Run.MaxTurns, err = f.GetInt("max-turns")
	}
	if err == nil && f.Changed("workers") {
		cfg.Run.Workers, err = f.GetInt("workers")
	}
	if err == nil && f.Changed("seed") {
		cfg.Run.Seed, err = f.GetUint64("seed")
	}
	if err == nil && f.Changed("provider") {
		cfg.Oracle.Provider, err = f.GetString("provider")
	}
	if err == nil && f.Changed("model") {
		cfg.Oracle.Model, err = f.GetString("model")
	}
	if err != nil {
		return err
	}
	if cfg.Run.ProfilePath == "" {
		return fmt.Errorf("no profile file: set --profiles or run.profile_path")
	}
	return cfg.Validate()
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()

	profiles, err := batch.LoadProfiles(cfg.Run.ProfilePath)
	if err != nil {
		return err
	}

	factory := oracle.NewFactory(&cfg.Oracle, logger)
	o, err := factory.CreateOracle(ctx)
	if err != nil {
		return fmt.Errorf("create oracle: %w", err)
	}

	runner := batch.NewRunner(o, *cfg,
		batch.WithCacheFactory(func() ports.Cache { return factory.CreateCache() }),
		batch.WithLogger(logger),
	)

	logger.Info().
		Int("profiles", len(profiles)).
		Int("rounds", cfg.Run.Rounds).
		Int("workers", cfg.Run.Workers).
		Str("output", cfg.Run.OutputDir).
		Msg("starting batch")

	outcomes, err := runner.Run(ctx, profiles)
	sum := batch.Summarize(outcomes)
	fmt.Fprintf(cmd.OutOrStdout(), "completed: %d, skipped: %d, incomplete: %d\n", sum.Completed, sum.Skipped, sum.Failed)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d conversations incomplete", sum.Failed)
	}
	return nil
}
