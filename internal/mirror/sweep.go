package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mgdl/internal/catalog"
	"mgdl/internal/logging"
	"mgdl/internal/services"
)

// SweepItem is the outcome of updating one manga during a sweep.
type SweepItem struct {
	Manga   catalog.Manga
	Outcome Outcome
	Err     error
}

// OK reports whether the item succeeded.
func (i SweepItem) OK() bool {
	return i.Err == nil
}

// SweepReport aggregates a sweep.
type SweepReport struct {
	Items    []SweepItem
	Started  time.Time
	Finished time.Time
}

// Succeeded returns the items that updated cleanly.
func (r SweepReport) Succeeded() []SweepItem {
	return r.filter(true)
}

// Failed returns the items that failed, each carrying its reason.
func (r SweepReport) Failed() []SweepItem {
	return r.filter(false)
}

func (r SweepReport) filter(ok bool) []SweepItem {
	var out []SweepItem
	for _, item := range r.Items {
		if item.OK() == ok {
			out = append(out, item)
		}
	}
	return out
}

// Err joins every per-manga failure, or returns nil when all succeeded.
func (r SweepReport) Err() error {
	var errs []error
	for _, item := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", item.Manga.NormalizedName, item.Err))
	}
	return errors.Join(errs...)
}

// Sweep updates every ongoing manga in turn. A failing manga is recorded
// and the sweep moves on. When ctx is cancelled the remaining manga are
// recorded as failed with the context error. The returned error is non-nil
// only when the candidate list itself cannot be read.
func (m *Mirror) Sweep(ctx context.Context) (SweepReport, error) {
	ctx = services.WithOperation(ctx, "sweep")
	logger := logging.WithContext(ctx, m.logger)
	report := SweepReport{Started: time.Now()}

	candidates, err := m.Updatables(ctx)
	if err != nil {
		return report, err
	}
	logger.Info("sweep starting", logging.Int("manga", len(candidates)))

	for _, manga := range candidates {
		item := SweepItem{Manga: manga}
		if ctxErr := ctx.Err(); ctxErr != nil {
			item.Err = ctxErr
			report.Items = append(report.Items, item)
			continue
		}
		item.Outcome, item.Err = m.update(ctx, manga)
		if item.Err != nil {
			logging.WarnFailure(logging.WithContext(services.WithManga(ctx, manga.NormalizedName), m.logger),
				"update failed during sweep", "sweep_item_failed", item.Err)
		}
		report.Items = append(report.Items, item)
	}

	report.Finished = time.Now()
	logger.Info("sweep finished",
		logging.Int("succeeded", len(report.Succeeded())),
		logging.Int("failed", len(report.Failed())),
		logging.Duration("duration", report.Finished.Sub(report.Started)),
	)
	return report, nil
}
