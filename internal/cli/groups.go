package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/config"
)

// NewGroupsCmd builds the CLI subcommand that lists corpus groups without
// starting the bot.
func NewGroupsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the word groups of the configured corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			corpus, err := loadCorpus(cmd.Context(), cfg, zap.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range corpus.GroupNames() {
				g, _ := corpus.LookupGroup(name)
				fmt.Fprintf(out, "%s\t%d\n", name, len(g.Entries))
			}
			return nil
		},
	}
}
