package commands

import (
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/ui/output"
	"go.trai.ch/sieve/internal/ui/report"
)

func (c *CLI) newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze the project entrypoints, or the given files",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options()
			opts.Paths = args
			opts.WriteIndex, _ = cmd.Flags().GetBool("index")
			strict, _ := cmd.Flags().GetBool("strict")
			timings, _ := cmd.Flags().GetBool("timings")

			r, err := c.app.Analyze(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := c.render(cmd.OutOrStdout(), r, timings); err != nil {
				return err
			}
			if strict && hasErrors(r) {
				return domain.ErrReportHasErrors
			}
			return nil
		},
	}
	cmd.Flags().BoolP("index", "i", false, "Write the results to the feature index")
	cmd.Flags().Bool("strict", false, "Exit with an error when any document has error severity warnings")
	cmd.Flags().BoolP("timings", "t", false, "Print per-phase timings")
	return cmd
}

func (c *CLI) render(w io.Writer, r *domain.Report, timings bool) error {
	if c.jsonOutput() {
		return report.JSON(w, r)
	}
	return report.NewText(w, output.ResolveProfile(w, c.settings.GetString(keyColor)), timings).Render(r)
}

func hasErrors(r *domain.Report) bool {
	for _, w := range r.Warnings() {
		if w.Severity == domain.SeverityError {
			return true
		}
	}
	return false
}
