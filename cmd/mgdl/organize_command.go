package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mgdl/internal/config"
	"mgdl/internal/mirror"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize NAME",
		Short: "File raw pages in a manga directory into chapter directories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMirror(func(_ *config.Config, m *mirror.Mirror) error {
				plan, result, err := m.Organize(ctx.operationContext(cmd, "organize"), args[0], dryRun)
				if err != nil && len(plan.Moves) == 0 {
					return err
				}
				out := cmd.OutOrStdout()
				if dryRun {
					if plan.Empty() && len(plan.Rejected) == 0 {
						fmt.Fprintln(out, "Nothing to organize")
						return nil
					}
					spec := tableSpec{headers: []string{"Raw file", "Destination"}}
					for _, move := range plan.Moves {
						rel, relErr := filepath.Rel(plan.Dir, move.Dest)
						if relErr != nil {
							rel = move.Dest
						}
						spec.add(filepath.Base(move.Source), filepath.ToSlash(rel))
					}
					if len(spec.rows) > 0 {
						fmt.Fprintln(out, spec.render())
					}
				} else {
					fmt.Fprintf(out, "Moved %s into %s\n",
						pluralize(result.Moved, "page", "pages"),
						pluralize(result.CreatedDirs, "new chapter", "new chapters"))
				}
				for _, rejected := range plan.Rejected {
					fmt.Fprintf(out, "  left in place: %s (%s)\n", filepath.Base(rejected.Path), rejected.Reason)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the planned moves without touching files")
	return cmd
}
