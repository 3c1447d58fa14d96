package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"mgdl/internal/catalog"
	"mgdl/internal/config"
	"mgdl/internal/logging"
	"mgdl/internal/organizer"
	"mgdl/internal/services"
	"mgdl/internal/services/gallerydl"
	"mgdl/internal/textutil"
)

const component = "mirror"

// Provider supplies manga metadata and chapter listings.
type Provider interface {
	MangaFromURL(ctx context.Context, url string) (catalog.Manga, []catalog.Chapter, error)
	Chapters(ctx context.Context, hash string) ([]catalog.Chapter, error)
	SeriesURL(manga catalog.Manga) string
}

// Fetcher materializes raw page files into a directory.
type Fetcher interface {
	Fetch(ctx context.Context, req gallerydl.Request) (gallerydl.Result, error)
}

// Mirror coordinates catalog, provider, fetch tool, and organizer.
type Mirror struct {
	mangaDir  string
	lockDir   string
	store     *catalog.Store
	provider  Provider
	fetcher   Fetcher
	organizer *organizer.Organizer
	logger    *slog.Logger
}

// Option customizes a Mirror.
type Option func(*Mirror)

// WithOrganizer replaces the default organizer built from configuration.
func WithOrganizer(org *organizer.Organizer) Option {
	return func(m *Mirror) {
		if org != nil {
			m.organizer = org
		}
	}
}

// New constructs a Mirror.
func New(cfg *config.Config, store *catalog.Store, provider Provider, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Mirror {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Mirror{
		mangaDir:  cfg.Paths.MangaDir,
		lockDir:   cfg.LockDir(),
		store:     store,
		provider:  provider,
		fetcher:   fetcher,
		organizer: organizer.New(cfg, logger),
		logger:    logging.NewComponentLogger(logger, component),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Outcome describes the effect of a Download or Update.
type Outcome struct {
	Manga       catalog.Manga
	ResumePoint uint
	Fetch       gallerydl.Result
	Organize    organizer.Result
}

// MangaDir returns the library directory of a manga.
func (m *Mirror) MangaDir(manga catalog.Manga) string {
	return filepath.Join(m.mangaDir, dirName(manga))
}

// dirName keeps a stored name to one path segment so rows written by older
// tools cannot point outside the library.
func dirName(manga catalog.Manga) string {
	name := textutil.SanitizeFileName(manga.NormalizedName)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}

// Resolve looks a manga up by its stored directory name. The argument is
// tried verbatim first, then in normalized form, so "One Piece" finds
// "one_piece" while a stored "one-piece" is still found as written. A miss
// returns services.ErrNotFound with close matches named in the message.
func (m *Mirror) Resolve(ctx context.Context, name string) (catalog.Manga, error) {
	exact := strings.TrimSpace(name)
	if exact != "" {
		manga, err := m.store.GetMangaByNormalizedName(ctx, exact)
		if err == nil || !errors.Is(err, services.ErrNotFound) {
			return manga, err
		}
	}
	normalized := textutil.Normalize(name)
	if normalized == "" {
		return catalog.Manga{}, services.Wrap(services.ErrValidation, component, "resolve",
			fmt.Sprintf("%q has no usable characters", name), nil)
	}
	if normalized != exact {
		manga, err := m.store.GetMangaByNormalizedName(ctx, normalized)
		if err == nil || !errors.Is(err, services.ErrNotFound) {
			return manga, err
		}
	}
	message := fmt.Sprintf("no manga named %q", exact)
	if suggestions := m.suggest(ctx, normalized); len(suggestions) > 0 {
		message += fmt.Sprintf(" (did you mean %s?)", strings.Join(suggestions, ", "))
	}
	return catalog.Manga{}, services.Wrap(services.ErrNotFound, component, "resolve", message, nil)
}

func (m *Mirror) suggest(ctx context.Context, normalized string) []string {
	all, err := m.store.ListManga(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for _, manga := range all {
		names = append(names, manga.NormalizedName)
	}
	return textutil.Suggest(normalized, names, 0.3, 3)
}

// Updatables returns the manga eligible for sweeps.
func (m *Mirror) Updatables(ctx context.Context) ([]catalog.Manga, error) {
	return m.store.OngoingManga(ctx)
}

// Chapters returns the catalogued chapters of manga in numeric order.
func (m *Mirror) Chapters(ctx context.Context, manga catalog.Manga) ([]catalog.Chapter, error) {
	return m.store.Chapters(ctx, manga.ID)
}
