package mirror

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"mgdl/internal/catalog"
	"mgdl/internal/logging"
	"mgdl/internal/organizer"
	"mgdl/internal/services"
	"mgdl/internal/services/gallerydl"
)

// Add scrapes url and records the manga and its chapter list in one
// transaction. Re-adding a known manga refreshes it in place.
func (m *Mirror) Add(ctx context.Context, url string) (catalog.Manga, []catalog.Chapter, error) {
	ctx = services.WithOperation(ctx, "add")
	manga, chapters, err := m.provider.MangaFromURL(ctx, url)
	if err != nil {
		return catalog.Manga{}, nil, err
	}
	if manga.NormalizedName == "" {
		return catalog.Manga{}, nil, services.Wrap(services.ErrValidation, component, "add",
			fmt.Sprintf("%q normalizes to an empty directory name", manga.Name), nil)
	}
	stored, err := m.store.AddManga(ctx, manga, chapters)
	if err != nil {
		return catalog.Manga{}, nil, err
	}
	logging.WithContext(services.WithManga(ctx, stored.NormalizedName), m.logger).Info("manga recorded",
		logging.String("id", stored.ID),
		logging.String("status", stored.Status),
		logging.Int("chapters", len(chapters)),
	)
	return stored, chapters, nil
}

// Selection narrows a Download.
type Selection struct {
	// Chapters is a chapter range such as "1-5,8"; empty means all.
	Chapters string
	// Force re-downloads pages that already exist.
	Force bool
}

// Download adds url, then fetches every chapter into the manga directory
// and organizes it.
func (m *Mirror) Download(ctx context.Context, url string) (Outcome, error) {
	return m.DownloadSelection(ctx, url, Selection{})
}

// DownloadSelection is Download restricted to the chapters in sel.
func (m *Mirror) DownloadSelection(ctx context.Context, url string, sel Selection) (Outcome, error) {
	if err := gallerydl.ValidateChapterRange(sel.Chapters); err != nil {
		return Outcome{}, err
	}
	added, _, err := m.Add(ctx, url)
	if err != nil {
		return Outcome{}, err
	}
	manga, err := m.store.GetManga(ctx, added.Hash)
	if err != nil {
		return Outcome{}, services.Wrap(services.ErrNotFound, component, "download",
			fmt.Sprintf("manga %s vanished after add", added.Hash), err)
	}
	ctx = services.WithManga(services.WithOperation(ctx, "download"), manga.NormalizedName)
	return m.withLock(ctx, manga, func() (Outcome, error) {
		return m.sync(ctx, manga, gallerydl.Request{Chapters: sel.Chapters, Force: sel.Force})
	})
}

// Update fetches chapters newer than the local resume point for the named
// manga and organizes them.
func (m *Mirror) Update(ctx context.Context, name string) (Outcome, error) {
	manga, err := m.Resolve(ctx, name)
	if err != nil {
		return Outcome{}, err
	}
	return m.update(ctx, manga)
}

func (m *Mirror) update(ctx context.Context, manga catalog.Manga) (Outcome, error) {
	ctx = services.WithManga(services.WithOperation(ctx, "update"), manga.NormalizedName)
	return m.withLock(ctx, manga, func() (Outcome, error) {
		m.refreshChapters(ctx, manga)
		resume, err := m.ResumePoint(manga)
		if err != nil {
			return Outcome{Manga: manga}, err
		}
		var req gallerydl.Request
		if resume > 0 {
			req.After = &resume
		}
		return m.sync(ctx, manga, req)
	})
}

// refreshChapters records chapters published since the last add. A provider
// failure only costs catalog freshness, so it is logged and ignored.
func (m *Mirror) refreshChapters(ctx context.Context, manga catalog.Manga) {
	logger := logging.WithContext(ctx, m.logger)
	chapters, err := m.provider.Chapters(ctx, manga.Hash)
	if err != nil {
		logging.WarnFailure(logger, "chapter list refresh failed", "chapter_refresh_failed", err)
		return
	}
	if err := m.store.UpsertChapters(ctx, manga.ID, chapters); err != nil {
		logging.WarnFailure(logger, "chapter list not recorded", "chapter_refresh_failed", err)
		return
	}
	logger.Debug("chapter list refreshed", logging.Int("chapters", len(chapters)))
}

// sync fetches req's selection into the manga directory and organizes it.
// Dir and Source are filled in here.
func (m *Mirror) sync(ctx context.Context, manga catalog.Manga, req gallerydl.Request) (Outcome, error) {
	logger := logging.WithContext(ctx, m.logger)
	outcome := Outcome{Manga: manga}
	if req.After != nil {
		outcome.ResumePoint = *req.After
	}
	dir := m.MangaDir(manga)
	req.Dir = dir
	req.Source = m.provider.SeriesURL(manga)

	started := time.Now()
	logger.Info("fetch starting",
		logging.String("dir", dir),
		logging.Uint64("resume_point", uint64(outcome.ResumePoint)),
	)
	fetched, err := m.fetcher.Fetch(ctx, req)
	outcome.Fetch = fetched
	if err != nil {
		// Raw files stay at the top level; the next run's fetch skips them
		// and its organize pass files them.
		return outcome, err
	}

	organized, err := m.organizer.Organize(ctx, dir)
	outcome.Organize = organized
	if err != nil {
		return outcome, err
	}
	if moveErr := organized.Err(); moveErr != nil {
		return outcome, services.Wrap(services.ErrConsistency, component, "organize",
			fmt.Sprintf("%d of %d page moves failed in %s", len(organized.Failed), len(organized.Failed)+organized.Moved, dir),
			moveErr)
	}
	logger.Info("manga synced",
		logging.Int("downloaded", fetched.Downloaded),
		logging.Int("moved", organized.Moved),
		logging.Int("new_chapters", organized.CreatedDirs),
		logging.Int("rejected", len(organized.Rejected)),
		logging.Duration("duration", time.Since(started)),
	)
	return outcome, nil
}

// ResumePoint is the highest chapter major number already present in the
// manga directory, or 0 when there are no chapter directories (including
// when the directory itself does not exist yet).
func (m *Mirror) ResumePoint(manga catalog.Manga) (uint, error) {
	entries, err := os.ReadDir(m.MangaDir(manga))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrSource, component, "resume point", manga.NormalizedName, err)
	}
	var resume uint
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if major, ok := organizer.ChapterMajor(entry.Name()); ok && major > resume {
			resume = major
		}
	}
	return resume, nil
}

// LocalChapters lists the canonical chapter directories present for manga in
// numeric order. Directories that are not canonical chapter names are
// returned separately.
func (m *Mirror) LocalChapters(manga catalog.Manga) ([]catalog.ChapterNumber, []string, error) {
	entries, err := os.ReadDir(m.MangaDir(manga))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, services.Wrap(services.ErrSource, component, "local chapters", manga.NormalizedName, err)
	}
	var (
		numbers []catalog.ChapterNumber
		other   []string
	)
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if number, ok := organizer.ParseChapterDir(entry.Name()); ok {
			numbers = append(numbers, number)
			continue
		}
		other = append(other, entry.Name())
	}
	slices.SortFunc(numbers, catalog.ChapterNumber.Compare)
	return numbers, other, nil
}

// Organize runs only the organizer over the named manga's directory. With
// dryRun the plan is returned and nothing moves.
func (m *Mirror) Organize(ctx context.Context, name string, dryRun bool) (organizer.Plan, organizer.Result, error) {
	manga, err := m.Resolve(ctx, name)
	if err != nil {
		return organizer.Plan{}, organizer.Result{}, err
	}
	ctx = services.WithManga(services.WithOperation(ctx, "organize"), manga.NormalizedName)
	dir := m.MangaDir(manga)
	if dryRun {
		plan, err := m.organizer.Plan(dir)
		return plan, organizer.Result{}, err
	}

	var plan organizer.Plan
	outcome, err := m.withLock(ctx, manga, func() (Outcome, error) {
		var planErr error
		plan, planErr = m.organizer.Plan(dir)
		if planErr != nil {
			return Outcome{Manga: manga}, planErr
		}
		result, applyErr := m.organizer.Apply(ctx, plan)
		return Outcome{Manga: manga, Organize: result}, applyErr
	})
	if err != nil {
		return plan, outcome.Organize, err
	}
	return plan, outcome.Organize, outcome.Organize.Err()
}
