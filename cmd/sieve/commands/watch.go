package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sieve/internal/core/domain"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze the project and re-analyze it whenever files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := c.options()
			opts.WriteIndex, _ = cmd.Flags().GetBool("index")
			opts.Debounce, _ = cmd.Flags().GetDuration("debounce")
			timings, _ := cmd.Flags().GetBool("timings")

			return c.app.Watch(cmd.Context(), opts, func(r *domain.Report) error {
				return c.render(cmd.OutOrStdout(), r, timings)
			})
		},
	}
	cmd.Flags().BoolP("index", "i", false, "Keep the feature index up to date")
	cmd.Flags().Duration("debounce", 0, "Quiet period before changes are processed (default from sieve.yaml)")
	cmd.Flags().BoolP("timings", "t", false, "Print per-phase timings")
	return cmd
}
