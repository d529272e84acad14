// main.go
//
// Entry point for the epiwordle server.
//   - epiwordle [serve]            → run the HTTP API (default)
//   - epiwordle words import FILE  → load a word list into the dictionary
//   - epiwordle words stats        → count dictionary words
//
// Every command accepts --config; environment variables (WORDLE_*) and a .env
// file are read as well, see internal/config.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/epiwordle/internal/config"
	"github.com/robalobadob/epiwordle/internal/logging"
)

const releaseVersion = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("epiwordle exited")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "epiwordle",
		Short:         "Word-guessing game server with accounts, leaderboard and chat.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(newServeCmd(&cfgPath), newWordsCmd(&cfgPath))
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("epiwordle v{{.Version}}\n")
	return cmd
}

// loadConfig reads and validates the configuration, then sets up logging.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty, nil)
	return cfg, nil
}
