package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"mgdl/internal/config"
	"mgdl/internal/mirror"
	"mgdl/internal/preflight"
	"mgdl/internal/services/gallerydl"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add URL",
		Short: "Record a manga and its chapter list without downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMirror(func(_ *config.Config, m *mirror.Mirror) error {
				manga, chapters, err := m.Add(ctx.operationContext(cmd, "add"), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) with %s\n",
					manga.Name, manga.NormalizedName, pluralize(len(chapters), "chapter", "chapters"))
				return nil
			})
		},
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOut bool
		sel     mirror.Selection
	)
	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Add a manga and download its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := gallerydl.ValidateChapterRange(sel.Chapters); err != nil {
				return err
			}
			return ctx.withMirror(func(cfg *config.Config, m *mirror.Mirror) error {
				opCtx := ctx.operationContext(cmd, "download")
				if err := preflight.RequireFetcher(opCtx, cfg); err != nil {
					return err
				}
				outcome, err := m.DownloadSelection(opCtx, args[0], sel)
				return reportOutcome(cmd, outcome, err, jsonOut)
			})
		},
	}
	cmd.Flags().StringVar(&sel.Chapters, "chapters", "", "Chapter range to download, e.g. 1-5,8")
	cmd.Flags().BoolVar(&sel.Force, "force", false, "Re-download pages that already exist")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "update [NAME]",
		Short: "Download chapters newer than the local resume point",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass a manga name or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("requires a manga name or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return runSweep(ctx, cmd, jsonOut)
			}
			return ctx.withMirror(func(cfg *config.Config, m *mirror.Mirror) error {
				opCtx := ctx.operationContext(cmd, "update")
				if err := preflight.RequireFetcher(opCtx, cfg); err != nil {
					return err
				}
				outcome, err := m.Update(opCtx, args[0])
				return reportOutcome(cmd, outcome, err, jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Update every ongoing manga")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Update every ongoing manga (same as update --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(ctx, cmd, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func runSweep(ctx *commandContext, cmd *cobra.Command, jsonOut bool) error {
	return ctx.withMirror(func(cfg *config.Config, m *mirror.Mirror) error {
		opCtx := ctx.operationContext(cmd, "sweep")
		if err := preflight.RequireFetcher(opCtx, cfg); err != nil {
			return err
		}
		report, err := m.Sweep(opCtx)
		if err != nil {
			return err
		}
		if jsonOut {
			views := make([]outcomeView, 0, len(report.Items))
			for _, item := range report.Items {
				view := newOutcomeView(item.Outcome, item.Err)
				view.Manga = item.Manga.NormalizedName
				views = append(views, view)
			}
			if err := writeJSON(cmd, views); err != nil {
				return err
			}
		} else {
			renderSweepReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("sweep: %s failed", pluralize(len(failed), "manga", "manga"))
		}
		return nil
	})
}

func renderSweepReport(out io.Writer, report mirror.SweepReport, colorize bool) {
	if len(report.Items) == 0 {
		fmt.Fprintln(out, "No ongoing manga to update")
		return
	}
	spec := tableSpec{
		headers: []string{"Manga", "Result", "Resume", "Downloaded", "Moved", "New chapters"},
		aligns:  []align{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	}
	var downloaded, moved int
	for _, item := range report.Items {
		kind, label := sweepStatus(item)
		o := item.Outcome
		downloaded += o.Fetch.Downloaded
		moved += o.Organize.Moved
		spec.add(
			item.Manga.NormalizedName,
			paint(label, kind, colorize),
			strconv.FormatUint(uint64(o.ResumePoint), 10),
			strconv.Itoa(o.Fetch.Downloaded),
			strconv.Itoa(o.Organize.Moved),
			strconv.Itoa(o.Organize.CreatedDirs),
		)
	}
	spec.footer = []string{"Total", "", "", strconv.Itoa(downloaded), strconv.Itoa(moved), ""}
	fmt.Fprintln(out, spec.render())
	for _, item := range report.Failed() {
		kind, _ := sweepStatus(item)
		fmt.Fprintln(out, renderStatusLine(item.Manga.NormalizedName, kind, item.Err.Error(), colorize))
	}
}

func reportOutcome(cmd *cobra.Command, outcome mirror.Outcome, err error, jsonOut bool) error {
	if jsonOut && outcome.Manga.ID != "" {
		if encErr := writeJSON(cmd, newOutcomeView(outcome, err)); encErr != nil {
			return encErr
		}
		return err
	}
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: downloaded %s, organized %s into %s\n",
		outcome.Manga.NormalizedName,
		pluralize(outcome.Fetch.Downloaded, "page", "pages"),
		pluralize(outcome.Organize.Moved, "page", "pages"),
		pluralize(outcome.Organize.CreatedDirs, "new chapter", "new chapters"),
	)
	for _, rejected := range outcome.Organize.Rejected {
		fmt.Fprintf(out, "  left in place: %s (%s)\n", rejected.Path, rejected.Reason)
	}
	return nil
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a manga from the catalog and the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMirror(func(_ *config.Config, m *mirror.Mirror) error {
				result, err := m.Remove(ctx.operationContext(cmd, "remove"), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n",
					result.Manga.NormalizedName, pluralize(int(result.ChaptersDeleted), "chapter", "chapters"))
				if !result.DirRemoved {
					fmt.Fprintln(cmd.OutOrStdout(), "  no library directory existed")
				}
				return nil
			})
		},
	}
}
