package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mgdl/internal/catalog"
	"mgdl/internal/config"
	"mgdl/internal/mirror"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var contains string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued manga",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				mangas, err := store.QueryManga(ctx.operationContext(cmd, "list"), catalog.Filter{
					Status:       strings.TrimSpace(status),
					NameContains: strings.TrimSpace(contains),
				})
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]mangaView, 0, len(mangas))
					for _, m := range mangas {
						views = append(views, newMangaView(m))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(mangas) == 0 {
					fmt.Fprintln(out, "No manga found")
					return nil
				}
				spec := tableSpec{headers: []string{"Name", "Directory", "Authors", "Status"}}
				for _, m := range mangas {
					spec.add(m.Name, m.NormalizedName, m.Authors, m.Status)
				}
				fmt.Fprintln(out, spec.render())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only list manga with this status (e.g. Ongoing)")
	cmd.Flags().StringVar(&contains, "name", "", "Only list manga whose name contains this text")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a manga with its chapters and resume point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMirror(func(_ *config.Config, m *mirror.Mirror) error {
				opCtx := ctx.operationContext(cmd, "show")
				manga, err := m.Resolve(opCtx, args[0])
				if err != nil {
					return err
				}
				chapters, err := m.Chapters(opCtx, manga)
				if err != nil {
					return err
				}
				resume, err := m.ResumePoint(manga)
				if err != nil {
					return err
				}
				local, unrecognized, err := m.LocalChapters(manga)
				if err != nil {
					return err
				}
				detail := mangaDetailView{
					mangaView:        newMangaView(manga),
					Dir:              m.MangaDir(manga),
					ResumePoint:      resume,
					Chapters:         newChapterViews(chapters, local),
					UnrecognizedDirs: unrecognized,
				}
				if jsonOut {
					return writeJSON(cmd, detail)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\n", manga.Name)
				fmt.Fprintf(out, "  Directory:    %s\n", detail.Dir)
				fmt.Fprintf(out, "  Authors:      %s\n", manga.Authors)
				fmt.Fprintf(out, "  Status:       %s\n", manga.Status)
				fmt.Fprintf(out, "  Hash:         %s\n", manga.Hash)
				fmt.Fprintf(out, "  Resume point: %d\n", resume)
				fmt.Fprintf(out, "  On disk:      %s\n", pluralize(len(local), "chapter", "chapters"))
				for _, dir := range unrecognized {
					fmt.Fprintf(out, "  Unrecognized: %s\n", dir)
				}
				if len(chapters) == 0 {
					fmt.Fprintln(out, "  No chapters catalogued")
					return nil
				}
				spec := tableSpec{
					headers: []string{"#", "Chapter", "Hash", "Local"},
					aligns:  []align{alignRight},
				}
				for i, ch := range detail.Chapters {
					present := ""
					if ch.Local {
						present = "yes"
					}
					spec.add(strconv.Itoa(i+1), ch.Number, ch.Hash, present)
				}
				fmt.Fprintln(out, spec.render())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Catalog maintenance",
	}
	catalogCmd.AddCommand(newCatalogResetCommand(ctx))
	return catalogCmd
}

func newCatalogResetCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every catalog table",
		Long:  "Drop and recreate every catalog table. Library files are left untouched; re-add manga to catalog them again.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("catalog reset deletes every record; pass --yes to confirm")
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				if err := store.Reset(ctx.operationContext(cmd, "catalog reset")); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog reset at %s\n", store.Path())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset")
	return cmd
}
