package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/config"
	"github.com/aliskhannn/gre-quiz-bot/internal/repository"
)

// NewLeaderboardCmd builds the CLI subcommand that prints the top ratings
// from the rating file.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the highest ratings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			store, err := repository.NewRatingStore(cfg.Ratings.Path, zap.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ratings := store.Top(top)
			if len(ratings) == 0 {
				fmt.Fprintln(out, "no ratings yet")
				return nil
			}
			for i, pr := range ratings {
				fmt.Fprintf(out, "%d.\t%d\t%.2f\n", i+1, pr.User.ID, pr.Rating)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of entries to print")
	return cmd
}
