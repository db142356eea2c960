package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/smoothie-scribe/internal/inventory"
)

func newCostsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "costs",
		Short: "List ingredients with their cost per unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			costs := s.inventory.CostMap(ctx)
			items := s.inventory.List(ctx)
			views := make([]inventory.IngredientView, 0, len(items))
			for _, item := range items {
				views = append(views, inventory.View(item, costs.Lookup(item.ID)))
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), views)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INGREDIENT\tCOST\tPACK\tPER UNIT")
			for _, v := range views {
				fmt.Fprintf(tw, "%s\t$%s\t%s %s\t%s\n", v.Name, v.PurchaseCost, v.PurchaseUnit, v.Unit, v.CostPerUnitLabel)
			}
			return tw.Flush()
		},
	}
}
