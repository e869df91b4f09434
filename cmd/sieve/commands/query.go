package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/sieve/internal/core/domain"
)

type queryRow struct {
	URL    domain.ResolvedURL `json:"url"`
	Kind   string             `json:"kind"`
	ID     string             `json:"id"`
	Line   int                `json:"line"`
	Column int                `json:"column"`
}

func (c *CLI) newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [kind]",
		Short: "List indexed features, optionally of one kind",
		Long: `List the features stored in the feature index by "sieve analyze --index".

Kinds are import, element, element-reference, inline-document and any kind
emitted by scanner scripts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind string
			if len(args) == 1 {
				kind = args[0]
			}
			features, err := c.app.Query(cmd.Context(), c.options(), kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				rows := make([]queryRow, len(features))
				for i, f := range features {
					rows[i] = queryRow{URL: f.URL, Kind: f.Kind, ID: f.ID, Line: f.Line + 1, Column: f.Column + 1}
				}
				return json.NewEncoder(out).Encode(rows)
			}
			for _, f := range features {
				_, _ = fmt.Fprintf(out, "%s:%d:%d\t%s\t%s\n", f.URL, f.Line+1, f.Column+1, f.Kind, f.ID)
			}
			return nil
		},
	}
}
