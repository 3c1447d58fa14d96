package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mgdl/internal/catalog"
	"mgdl/internal/config"
	"mgdl/internal/deps"
	"mgdl/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, external tools, and catalog health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx := ctx.operationContext(cmd, "doctor")
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			failures := 0
			fmt.Fprintln(out, renderSectionHeader("Paths", colorize))
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configLabel(ctx.configPath, ctx.configSeen), colorize))
			for _, result := range preflight.RunAll(opCtx, cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Tools", colorize))
			for _, status := range preflight.CheckSystemDeps(opCtx, cfg) {
				kind, message := dependencyLine(status)
				if kind == statusError {
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Catalog", colorize))
			err = ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				return writeCatalogHealth(opCtx, out, ctx, cfg, store, colorize, &failures)
			})
			if err != nil {
				failures++
				fmt.Fprintln(out, renderStatusLine("Catalog", statusError, err.Error(), colorize))
			}

			if failures > 0 {
				return fmt.Errorf("doctor: %s", pluralize(failures, "check failed", "checks failed"))
			}
			return nil
		},
	}
}

func writeCatalogHealth(opCtx context.Context, out io.Writer, ctx *commandContext, cfg *config.Config, store *catalog.Store, colorize bool, failures *int) error {
	mangas, chapters, err := store.Counts(opCtx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderStatusLine("Catalog", statusOK,
		fmt.Sprintf("%s (%s, %s)", store.Path(),
			pluralize(mangas, "manga", "manga"),
			pluralize(chapters, "chapter", "chapters")),
		colorize))

	m, err := ctx.newMirror(cfg, store)
	if err != nil {
		return err
	}
	trash, err := m.LeftoverTrash()
	if err != nil {
		return err
	}
	if len(trash) == 0 {
		fmt.Fprintln(out, renderStatusLine("Interrupted removes", statusOK, "none", colorize))
		return nil
	}
	*failures++
	for _, path := range trash {
		fmt.Fprintln(out, renderStatusLine("Interrupted removes", statusWarn, path, colorize))
	}
	return nil
}

func dependencyLine(status deps.Status) (statusKind, string) {
	if status.Available {
		message := status.Path
		if status.Version != "" {
			message = fmt.Sprintf("%s (%s)", status.Path, status.Version)
		}
		return statusOK, message
	}
	if status.Optional {
		return statusWarn, status.Detail
	}
	return statusError, status.Detail
}

func configLabel(path string, exists bool) string {
	if !exists {
		return fmt.Sprintf("%s (not found, defaults used)", path)
	}
	return path
}
