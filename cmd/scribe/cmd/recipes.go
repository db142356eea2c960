package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/smoothie-scribe/internal/recipe"
)

func newRecipesCmd(opts *options) *cobra.Command {
	var detail bool
	c := &cobra.Command{
		Use:   "recipes",
		Short: "List recipes with their total cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			summaries := s.recipes.List(ctx)
			if !detail {
				if opts.format == "json" {
					return writeJSON(cmd.OutOrStdout(), summaries)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RECIPE\tINGREDIENTS\tTOTAL")
				for _, r := range summaries {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Name, r.IngredientCount, r.TotalLabel)
				}
				return tw.Flush()
			}

			details := make([]recipe.Detail, 0, len(summaries))
			for _, r := range summaries {
				d, err := s.recipes.Detail(ctx, r.ID)
				if err != nil {
					return err
				}
				details = append(details, d)
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), details)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, d := range details {
				fmt.Fprintf(tw, "%s\t\t%s\n", d.Name, d.TotalLabel)
				for _, l := range d.Lines {
					if l.Warning != "" {
						fmt.Fprintf(tw, "  %s\t\t\n", l.Warning)
						continue
					}
					fmt.Fprintf(tw, "  %s\t%s %s\t%s\n", l.Name, l.Amount, l.Unit, l.LineLabel)
				}
			}
			return tw.Flush()
		},
	}
	c.Flags().BoolVarP(&detail, "detail", "d", false, "show priced lines for each recipe")
	return c
}
