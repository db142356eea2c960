package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errInvalidCatalog is returned when validation reports problems.
var errInvalidCatalog = errors.New("catalog has problems")

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a catalog for dangling references and invalid recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			problems := s.catalog.Validate()
			if opts.format == "json" {
				if problems == nil {
					problems = []string{}
				}
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{"valid": len(problems) == 0, "problems": problems}); err != nil {
					return err
				}
			} else {
				for _, p := range problems {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				if len(problems) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "catalog ok: %d ingredients, %d recipes\n", len(s.catalog.Ingredients), len(s.catalog.Recipes))
				}
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d found", errInvalidCatalog, len(problems))
			}
			return nil
		},
	}
}
