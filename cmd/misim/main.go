package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	internal "github.com/ZanzyTHEbar/misim/misim"
	"github.com/ZanzyTHEbar/misim/misim/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   internal.DefaultAppName,
	Short: "Motivational-interviewing dialogue simulator",
	Long: `misim synthesizes counseling conversations between a counselor agent and a
simulated client whose engagement, stage of change and resistance are driven
by a persona profile.

Profiles are read from a JSONL file; every (profile, round) pair produces one
transcript named Sample-{profile}-Round-{round}.txt in the output directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err = newLogger(cmd.ErrOrStderr(), cfg.Logging, verbose)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(runCmd, checkProfilesCmd)
}

func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid logging.level: %w", err)
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	if lc.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
