package preflight

import (
	"context"
	"fmt"
	"strings"

	"mgdl/internal/config"
	"mgdl/internal/deps"
	"mgdl/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free space below which the library volume check fails.
var MinFreeBytes uint64 = 512 << 20

// RunAll executes the filesystem checks for the given config.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Manga directory", cfg.Paths.MangaDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Lock directory", cfg.LockDir()),
		CheckFreeSpace("Manga volume", cfg.Paths.MangaDir, MinFreeBytes),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// RequireFetcher returns a configuration error when the fetch binary is missing.
func RequireFetcher(ctx context.Context, cfg *config.Config) error {
	statuses := CheckSystemDeps(ctx, cfg)
	missing := deps.MissingRequired(statuses)
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(
		services.ErrConfiguration,
		"preflight",
		"require fetcher",
		fmt.Sprintf("missing required binaries: %s", strings.Join(missing, ", ")),
		nil,
	)
}
