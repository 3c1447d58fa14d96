package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"mgdl/internal/services"
)

// UpsertChapters inserts each chapter under mangaID or, when the manga
// already has a chapter with the same number, refreshes its hash. Chapter
// ids are preserved across upserts. The manga must exist.
func (o ops) UpsertChapters(ctx context.Context, mangaID string, chapters []Chapter) error {
	ctx = ensureContext(ctx)
	if mangaID == "" {
		return services.Wrap(services.ErrValidation, component, "upsert chapters", "missing manga id", nil)
	}
	var exists int
	if err := o.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM mangas WHERE id = ?", mangaID).Scan(&exists); err != nil {
		return fmt.Errorf("check manga %s: %w", mangaID, err)
	}
	if exists == 0 {
		return services.Wrap(services.ErrNotFound, component, "upsert chapters", "manga "+mangaID, nil)
	}
	for _, chapter := range chapters {
		id := chapter.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := o.q.ExecContext(ctx,
			`INSERT INTO chapters (`+chapterColumns+`)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(number, manga) DO UPDATE SET hash = excluded.hash`,
			id, chapter.Hash, chapter.Number.String(), mangaID,
		)
		if err != nil {
			return fmt.Errorf("upsert chapter %s of %s: %w", chapter.Number, mangaID, err)
		}
	}
	return nil
}

// Chapters returns the chapters of a manga in numeric order.
func (o ops) Chapters(ctx context.Context, mangaID string) ([]Chapter, error) {
	ctx = ensureContext(ctx)
	rows, err := o.q.QueryContext(ctx,
		"SELECT "+chapterColumns+" FROM chapters WHERE manga = ?", mangaID)
	if err != nil {
		return nil, fmt.Errorf("list chapters for %s: %w", mangaID, err)
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chapters: %w", err)
	}
	slices.SortFunc(out, func(a, b Chapter) int { return a.Number.Compare(b.Number) })
	return out, nil
}

// DeleteChapter removes a single chapter row.
func (o ops) DeleteChapter(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	res, err := o.q.ExecContext(ctx, "DELETE FROM chapters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chapter %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, component, "delete chapter", id, nil)
	}
	return nil
}

// DeleteChaptersForManga removes every chapter of a manga and returns how
// many rows were deleted.
func (o ops) DeleteChaptersForManga(ctx context.Context, mangaID string) (int64, error) {
	ctx = ensureContext(ctx)
	res, err := o.q.ExecContext(ctx, "DELETE FROM chapters WHERE manga = ?", mangaID)
	if err != nil {
		return 0, fmt.Errorf("delete chapters for %s: %w", mangaID, err)
	}
	return res.RowsAffected()
}
