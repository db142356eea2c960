// Package cmd provides the scribe CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
	"github.com/noah-isme/smoothie-scribe/internal/seed"
)

type options struct {
	seedFile string
	format   string
	verbose  bool
}

// NewRootCmd builds the scribe command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "scribe",
		Short: "Price smoothie recipes from an ingredient catalog",
		Long: `scribe loads an ingredient and recipe catalog and reports costs.

Examples:
  scribe costs
  scribe recipes --format json
  scribe validate --seed ./catalog.json`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.seedFile, "seed", "", "catalog file (default is the embedded starter catalog)")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "table", "output format (table, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newCostsCmd(opts), newRecipesCmd(opts), newValidateCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

type stores struct {
	catalog   seed.Catalog
	inventory *inventory.Service
	recipes   *recipe.Service
}

func (o *options) logger(cmd *cobra.Command) zerolog.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return obs.NewLoggerTo(cmd.ErrOrStderr(), "console", level)
}

func (o *options) load(cmd *cobra.Command) (stores, error) {
	if o.format != "table" && o.format != "json" {
		return stores{}, fmt.Errorf("unsupported format %q", o.format)
	}
	catalog, err := seed.Load(o.seedFile)
	if err != nil {
		return stores{}, err
	}
	logger := o.logger(cmd)
	inv := inventory.NewService(inventory.ServiceConfig{Logger: &logger})
	recipes, err := recipe.NewService(recipe.ServiceConfig{Catalog: inv, Logger: &logger})
	if err != nil {
		return stores{}, err
	}
	if err := seed.Apply(context.Background(), catalog, inv, recipes); err != nil {
		return stores{}, err
	}
	logger.Debug().Int("ingredients", len(catalog.Ingredients)).Int("recipes", len(catalog.Recipes)).Msg("catalog loaded")
	return stores{catalog: catalog, inventory: inv, recipes: recipes}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
