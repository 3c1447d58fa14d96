package mirror_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"mgdl/internal/catalog"
	"mgdl/internal/config"
	"mgdl/internal/logging"
	"mgdl/internal/mirror"
	"mgdl/internal/services"
	"mgdl/internal/services/gallerydl"
	"mgdl/internal/testsupport"
)

type fakeProvider struct {
	series      map[string]seriesFixture
	chaptersErr error
}

type seriesFixture struct {
	manga    catalog.Manga
	chapters []catalog.Chapter
}

func (p *fakeProvider) MangaFromURL(_ context.Context, url string) (catalog.Manga, []catalog.Chapter, error) {
	fixture, ok := p.series[url]
	if !ok {
		return catalog.Manga{}, nil, services.Wrap(services.ErrSource, "fake", "scrape", url, nil)
	}
	return fixture.manga, fixture.chapters, nil
}

func (p *fakeProvider) Chapters(_ context.Context, hash string) ([]catalog.Chapter, error) {
	if p.chaptersErr != nil {
		return nil, p.chaptersErr
	}
	for _, fixture := range p.series {
		if fixture.manga.Hash == hash {
			return fixture.chapters, nil
		}
	}
	return nil, nil
}

func (p *fakeProvider) SeriesURL(manga catalog.Manga) string {
	return "https://provider.test/series/" + manga.Hash + "/" + manga.NormalizedName
}

// fakeFetcher writes raw page files for every requested chapter newer
// than the filter and records each request.
type fakeFetcher struct {
	pages    map[string][]string
	failFor  map[string]error
	requests []gallerydl.Request
}

func (f *fakeFetcher) Fetch(_ context.Context, req gallerydl.Request) (gallerydl.Result, error) {
	f.requests = append(f.requests, req)
	source := req.Source
	if err := f.failFor[source]; err != nil {
		return gallerydl.Result{}, err
	}
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return gallerydl.Result{}, err
	}
	var result gallerydl.Result
	for _, name := range f.pages[source] {
		raw, err := parseMajor(name)
		if err != nil {
			return result, err
		}
		if req.After != nil && raw <= *req.After {
			continue
		}
		if err := os.WriteFile(filepath.Join(req.Dir, name), []byte(name), 0o644); err != nil {
			return result, err
		}
		result.Downloaded++
	}
	return result, nil
}

func parseMajor(name string) (uint, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, fmt.Errorf("bad fixture %q", name)
	}
	number, err := catalog.ParseChapterLabel(parts[1])
	if err != nil {
		return 0, err
	}
	return number.Major, nil
}

type harness struct {
	cfg      *config.Config
	store    *catalog.Store
	provider *fakeProvider
	fetcher  *fakeFetcher
	mirror   *mirror.Mirror
}

const fooURL = "https://provider.test/series/abc/foo"

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := &fakeProvider{series: map[string]seriesFixture{
		fooURL: {
			manga: catalog.Manga{Hash: "abc", Name: "Foo", NormalizedName: "foo", Authors: "Bar", Status: catalog.StatusOngoing},
			chapters: []catalog.Chapter{
				{Hash: "c1", Number: catalog.ChapterNumber{Major: 1, Minor: 1}},
				{Hash: "c2", Number: catalog.ChapterNumber{Major: 2, Minor: 1}},
			},
		},
	}}
	fetcher := &fakeFetcher{
		pages: map[string][]string{
			"https://provider.test/series/abc/foo": {
				"foo_c001_001.jpg", "foo_c001_002.jpg", "foo_c002_001.jpg",
			},
		},
		failFor: map[string]error{},
	}
	return &harness{
		cfg:      cfg,
		store:    store,
		provider: provider,
		fetcher:  fetcher,
		mirror:   mirror.New(cfg, store, provider, fetcher, logging.NewNop()),
	}
}

func (h *harness) mangaDir(name string) string {
	return filepath.Join(h.cfg.Paths.MangaDir, name)
}

func TestAddRecordsMangaAndChapters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	manga, chapters, err := h.mirror.Add(ctx, fooURL)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if manga.ID == "" || len(chapters) != 2 {
		t.Fatalf("unexpected add result: %#v %d", manga, len(chapters))
	}
	stored, err := h.store.Chapters(ctx, manga.ID)
	if err != nil {
		t.Fatalf("Chapters failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored chapters, got %d", len(stored))
	}
	if len(h.fetcher.requests) != 0 {
		t.Fatal("Add must not fetch pages")
	}
}

func TestAddEndToEndScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, _, err := h.mirror.Add(ctx, fooURL)
	if err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	fixture := h.provider.series[fooURL]
	fixture.manga.Status = catalog.StatusCompleted
	fixture.chapters = append(fixture.chapters, catalog.Chapter{Hash: "c3", Number: catalog.ChapterNumber{Major: 3, Minor: 1}})
	h.provider.series[fooURL] = fixture

	second, _, err := h.mirror.Add(ctx, fooURL)
	if err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if second.ID != first.ID || second.Status != catalog.StatusCompleted {
		t.Fatalf("unexpected second add: %#v", second)
	}
	mangas, chapters, err := h.store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if mangas != 1 || chapters != 3 {
		t.Fatalf("expected 1 manga / 3 chapters, got %d / %d", mangas, chapters)
	}
}

func TestAddRejectsUnnamedManga(t *testing.T) {
	h := newHarness(t)
	h.provider.series["u"] = seriesFixture{manga: catalog.Manga{Hash: "h", Name: "!!!", Authors: "x"}}

	if _, _, err := h.mirror.Add(context.Background(), "u"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDownloadFetchesEverythingAndOrganizes(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.mirror.Download(context.Background(), fooURL)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if len(h.fetcher.requests) != 1 || h.fetcher.requests[0].After != nil {
		t.Fatalf("expected one unfiltered fetch, got %#v", h.fetcher.requests)
	}
	if h.fetcher.requests[0].Dir != h.mangaDir("foo") {
		t.Fatalf("fetch dir = %q", h.fetcher.requests[0].Dir)
	}
	if outcome.Organize.Moved != 3 || outcome.Organize.CreatedDirs != 2 {
		t.Fatalf("unexpected organize result: %+v", outcome.Organize)
	}
	want := []string{"chapter_0001-01/001.jpg", "chapter_0001-01/002.jpg", "chapter_0002-01/001.jpg"}
	if got := testsupport.Tree(t, h.mangaDir("foo")); !slices.Equal(got, want) {
		t.Fatalf("tree = %v, want %v", got, want)
	}
}

func TestDownloadSurfacesProviderFailure(t *testing.T) {
	h := newHarness(t)
	if _, err := h.mirror.Download(context.Background(), "https://provider.test/unknown"); !errors.Is(err, services.ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
}

func TestUpdateUsesResumePoint(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.mirror.Download(ctx, fooURL); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	source := "https://provider.test/series/abc/foo"
	h.fetcher.pages[source] = append(h.fetcher.pages[source], "foo_c003_001.jpg", "foo_c003.5_001.jpg")

	outcome, err := h.mirror.Update(ctx, "Foo")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if outcome.ResumePoint != 2 {
		t.Fatalf("resume point = %d, want 2", outcome.ResumePoint)
	}
	last := h.fetcher.requests[len(h.fetcher.requests)-1]
	if last.After == nil || *last.After != 2 {
		t.Fatalf("expected filter after 2, got %#v", last.After)
	}
	if outcome.Organize.Moved != 2 {
		t.Fatalf("expected two new pages moved, got %+v", outcome.Organize)
	}
	dirs, err := os.ReadDir(h.mangaDir("foo"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range dirs {
		names = append(names, d.Name())
	}
	want := []string{"chapter_0001-01", "chapter_0002-01", "chapter_0003-01", "chapter_0003-05"}
	if !slices.Equal(names, want) {
		t.Fatalf("chapter dirs = %v, want %v", names, want)
	}
}

func TestUpdateWithoutLocalChaptersFetchesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	manga, _, err := h.mirror.Add(ctx, fooURL)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	resume, err := h.mirror.ResumePoint(manga)
	if err != nil {
		t.Fatalf("ResumePoint failed: %v", err)
	}
	if resume != 0 {
		t.Fatalf("resume point = %d, want 0", resume)
	}
	outcome, err := h.mirror.Update(ctx, "foo")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if outcome.ResumePoint != 0 || h.fetcher.requests[0].After != nil {
		t.Fatalf("expected unfiltered fetch, got resume=%d after=%v", outcome.ResumePoint, h.fetcher.requests[0].After)
	}
}

func TestUpdateRefreshesChapterList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	manga, _, err := h.mirror.Add(ctx, fooURL)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	fixture := h.provider.series[fooURL]
	fixture.chapters = append(fixture.chapters, catalog.Chapter{Hash: "c9", Number: catalog.ChapterNumber{Major: 9, Minor: 1}})
	h.provider.series[fooURL] = fixture

	if _, err := h.mirror.Update(ctx, "foo"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	chapters, err := h.store.Chapters(ctx, manga.ID)
	if err != nil {
		t.Fatalf("Chapters failed: %v", err)
	}
	if len(chapters) != 3 {
		t.Fatalf("expected refreshed chapter list, got %d", len(chapters))
	}
}

func TestUpdateToleratesChapterRefreshFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, _, err := h.mirror.Add(ctx, fooURL); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	h.provider.chaptersErr = errors.New("provider down")

	if _, err := h.mirror.Update(ctx, "foo"); err != nil {
		t.Fatalf("Update should proceed without a fresh chapter list: %v", err)
	}
}

func TestUpdateUnknownMangaSuggests(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, _, err := h.mirror.Add(ctx, fooURL); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_, err := h.mirror.Update(ctx, "fooo")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(h.fetcher.requests) != 0 {
		t.Fatal("fetch must not run for an unknown manga")
	}
	if _, err := h.mirror.Update(ctx, "???"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
}

func TestUpdateFetchFailureLeavesRawFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, _, err := h.mirror.Add(ctx, fooURL); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	raw := filepath.Join(h.mangaDir("foo"), "foo_c001_001.jpg")
	testsupport.WriteFile(t, raw, "partial")
	h.fetcher.failFor["https://provider.test/series/abc/foo"] = services.Wrap(services.ErrSource, "fake", "fetch", "exit 1", nil)

	if _, err := h.mirror.Update(ctx, "foo"); !errors.Is(err, services.ErrSource) {
		t.Fatalf("expected ErrSource, got %v", err)
	}
	if _, err := os.Stat(raw); err != nil {
		t.Fatalf("raw file should remain for the next run: %v", err)
	}
}

func TestUpdateRefusesLockedManga(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	manga, _, err := h.mirror.Add(ctx, fooURL)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := os.MkdirAll(h.cfg.LockDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(h.mirror.LockPath(manga))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	if _, err := h.mirror.Update(ctx, "foo"); !errors.Is(err, mirror.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestUpdatablesOnlyOngoing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, _, err := h.mirror.Add(ctx, fooURL); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	done := catalog.Manga{Hash: "d", Name: "Done", NormalizedName: "done", Authors: "Z", Status: catalog.StatusCompleted}
	if _, err := h.store.UpsertManga(ctx, done); err != nil {
		t.Fatalf("UpsertManga failed: %v", err)
	}

	updatables, err := h.mirror.Updatables(ctx)
	if err != nil {
		t.Fatalf("Updatables failed: %v", err)
	}
	if len(updatables) != 1 || updatables[0].NormalizedName != "foo" {
		t.Fatalf("unexpected updatables: %#v", updatables)
	}
}

func TestOrganizeDryRun(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, _, err := h.mirror.Add(ctx, fooURL); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(h.mangaDir("foo"), "foo_c004_001.jpg"), "x")

	plan, result, err := h.mirror.Organize(ctx, "foo", true)
	if err != nil {
		t.Fatalf("Organize dry run failed: %v", err)
	}
	if len(plan.Moves) != 1 || result.Moved != 0 {
		t.Fatalf("unexpected dry run: plan=%d moved=%d", len(plan.Moves), result.Moved)
	}
	if got := testsupport.Tree(t, h.mangaDir("foo")); !slices.Equal(got, []string{"foo_c004_001.jpg"}) {
		t.Fatalf("dry run moved files: %v", got)
	}

	if _, result, err = h.mirror.Organize(ctx, "foo", false); err != nil {
		t.Fatalf("Organize failed: %v", err)
	}
	if result.Moved != 1 {
		t.Fatalf("expected one move, got %+v", result)
	}
}

func TestResolvePrefersStoredName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	legacy := catalog.Manga{Hash: "op", Name: "One Piece", NormalizedName: "one-piece", Authors: "Oda", Status: catalog.StatusOngoing}
	if _, err := h.store.UpsertManga(ctx, legacy); err != nil {
		t.Fatalf("UpsertManga failed: %v", err)
	}
	if _, _, err := h.mirror.Add(ctx, fooURL); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"one-piece", "one-piece"},
		{" one-piece ", "one-piece"},
		{"foo", "foo"},
		{"Foo", "foo"},
	}
	for _, tc := range tests {
		got, err := h.mirror.Resolve(ctx, tc.name)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", tc.name, err)
		}
		if got.NormalizedName != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.name, got.NormalizedName, tc.want)
		}
	}
	if _, err := h.mirror.Resolve(ctx, "one piece"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unstored form, got %v", err)
	}

	if _, err := h.mirror.Update(ctx, "one-piece"); err != nil {
		t.Fatalf("Update of a legacy name failed: %v", err)
	}
}

func TestMangaDirStaysInsideLibrary(t *testing.T) {
	h := newHarness(t)
	for name, want := range map[string]string{
		"foo":   "foo",
		"a/b":   "a-b",
		"..":    "_",
		"x:y?z": "x-yz",
	} {
		dir := h.mirror.MangaDir(catalog.Manga{NormalizedName: name})
		if dir != h.mangaDir(want) {
			t.Errorf("MangaDir(%q) = %q, want %q", name, dir, h.mangaDir(want))
		}
		if filepath.Dir(h.mirror.LockPath(catalog.Manga{NormalizedName: name})) != h.cfg.LockDir() {
			t.Errorf("LockPath(%q) escapes the lock dir", name)
		}
	}
}

func TestDownloadSelectionPassesChapterRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.mirror.DownloadSelection(ctx, fooURL, mirror.Selection{Chapters: "1-2", Force: true}); err != nil {
		t.Fatalf("DownloadSelection failed: %v", err)
	}
	if len(h.fetcher.requests) != 1 {
		t.Fatalf("expected one fetch, got %d", len(h.fetcher.requests))
	}
	req := h.fetcher.requests[0]
	if req.Chapters != "1-2" || !req.Force || req.After != nil {
		t.Fatalf("unexpected request: %+v", req)
	}

	_, err := h.mirror.DownloadSelection(ctx, fooURL, mirror.Selection{Chapters: "one"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for a bad range, got %v", err)
	}
	if len(h.fetcher.requests) != 1 {
		t.Fatal("a bad range must not fetch")
	}
}

func TestLocalChapters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	outcome, err := h.mirror.Download(ctx, fooURL)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(h.mangaDir("foo"), "extras"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(h.mangaDir("foo"), ".mgdl-tmp"), 0o755); err != nil {
		t.Fatal(err)
	}

	numbers, other, err := h.mirror.LocalChapters(outcome.Manga)
	if err != nil {
		t.Fatalf("LocalChapters failed: %v", err)
	}
	want := []catalog.ChapterNumber{{Major: 1, Minor: 1}, {Major: 2, Minor: 1}}
	if !slices.Equal(numbers, want) {
		t.Fatalf("numbers = %v, want %v", numbers, want)
	}
	if !slices.Equal(other, []string{"extras"}) {
		t.Fatalf("other = %v", other)
	}

	numbers, other, err = h.mirror.LocalChapters(catalog.Manga{NormalizedName: "missing"})
	if err != nil || numbers != nil || other != nil {
		t.Fatalf("missing dir: %v %v %v", numbers, other, err)
	}
}
