package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")

	run := NewRunCmd(&configPath)

	cmd := &cobra.Command{
		Use:          "quizbot",
		Short:        "Telegram vocabulary quiz bot with Elo ratings",
		SilenceUsage: true,
		RunE:         run.RunE,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config (default ./config/config.yaml)")
	cmd.AddCommand(run)
	cmd.AddCommand(NewGroupsCmd(&configPath))
	cmd.AddCommand(NewLeaderboardCmd(&configPath))
	return cmd
}
