package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.trai.ch/sieve/internal/core/domain"
)

func (c *CLI) newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dependants <file>",
		Aliases: []string{"deps"},
		Short:   "List the documents that import a file, directly or not",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, err := c.app.Dependants(cmd.Context(), c.options(), args[0])
			if err != nil {
				return err
			}
			domain.SortURLs(urls)

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				if urls == nil {
					urls = []domain.ResolvedURL{}
				}
				return json.NewEncoder(out).Encode(urls)
			}
			for _, u := range urls {
				fprintln(out, u)
			}
			return nil
		},
	}
}
