package main

import (
	"slices"

	"mgdl/internal/catalog"
	"mgdl/internal/mirror"
)

type mangaView struct {
	ID             string `json:"id"`
	Hash           string `json:"hash"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Authors        string `json:"authors"`
	Status         string `json:"status"`
}

type chapterView struct {
	ID     string `json:"id"`
	Hash   string `json:"hash"`
	Number string `json:"number"`
	Local  bool   `json:"local"`
}

type mangaDetailView struct {
	mangaView
	Dir              string        `json:"dir"`
	ResumePoint      uint          `json:"resume_point"`
	Chapters         []chapterView `json:"chapters"`
	UnrecognizedDirs []string      `json:"unrecognized_dirs,omitempty"`
}

type outcomeView struct {
	Manga       string   `json:"manga"`
	ResumePoint uint     `json:"resume_point"`
	Downloaded  int      `json:"downloaded"`
	Skipped     int      `json:"skipped"`
	Moved       int      `json:"moved"`
	NewChapters int      `json:"new_chapters"`
	Rejected    []string `json:"rejected,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func newMangaView(m catalog.Manga) mangaView {
	return mangaView{
		ID:             m.ID,
		Hash:           m.Hash,
		Name:           m.Name,
		NormalizedName: m.NormalizedName,
		Authors:        m.Authors,
		Status:         m.Status,
	}
}

// newChapterViews marks each catalogued chapter that has a directory on disk.
func newChapterViews(chapters []catalog.Chapter, local []catalog.ChapterNumber) []chapterView {
	views := make([]chapterView, 0, len(chapters))
	for _, ch := range chapters {
		views = append(views, chapterView{
			ID:     ch.ID,
			Hash:   ch.Hash,
			Number: ch.Number.String(),
			Local:  slices.Contains(local, ch.Number),
		})
	}
	return views
}

func newOutcomeView(o mirror.Outcome, err error) outcomeView {
	view := outcomeView{
		Manga:       o.Manga.NormalizedName,
		ResumePoint: o.ResumePoint,
		Downloaded:  o.Fetch.Downloaded,
		Skipped:     o.Fetch.Skipped,
		Moved:       o.Organize.Moved,
		NewChapters: o.Organize.CreatedDirs,
	}
	for _, rejected := range o.Organize.Rejected {
		view.Rejected = append(view.Rejected, rejected.Path)
	}
	if err != nil {
		view.Error = err.Error()
	}
	return view
}
