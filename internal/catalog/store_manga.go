package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mgdl/internal/services"
)

// UpsertManga inserts the manga or, when a row with the same (name, authors)
// already exists, refreshes its hash, normalized name, and status. The
// returned value carries the stored id, which is preserved across upserts;
// manga.ID is only used when a new row is created.
func (o ops) UpsertManga(ctx context.Context, manga Manga) (Manga, error) {
	ctx = ensureContext(ctx)
	if err := validateManga(manga); err != nil {
		return Manga{}, err
	}
	id := manga.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := o.q.QueryRowContext(ctx,
		`INSERT INTO mangas (`+mangaColumns+`)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(name, authors) DO UPDATE SET
             hash = excluded.hash,
             normalized_name = excluded.normalized_name,
             status = excluded.status
         RETURNING `+mangaColumns,
		id, manga.Hash, manga.Name, manga.NormalizedName, manga.Authors, manga.Status,
	)
	stored, err := scanManga(row)
	if err != nil {
		return Manga{}, fmt.Errorf("upsert manga %q: %w", manga.Name, err)
	}
	return stored, nil
}

// GetManga returns the first manga with the given provider hash.
func (o ops) GetManga(ctx context.Context, hash string) (Manga, error) {
	return o.getOne(ctx, "get manga by hash", "hash = ?", hash)
}

// GetMangaByNormalizedName returns the first manga whose normalized name matches.
func (o ops) GetMangaByNormalizedName(ctx context.Context, normalized string) (Manga, error) {
	return o.getOne(ctx, "get manga by name", "normalized_name = ?", normalized)
}

// GetMangaByID returns the manga with the given stable id.
func (o ops) GetMangaByID(ctx context.Context, id string) (Manga, error) {
	return o.getOne(ctx, "get manga by id", "id = ?", id)
}

func (o ops) getOne(ctx context.Context, operation, where, arg string) (Manga, error) {
	ctx = ensureContext(ctx)
	row := o.q.QueryRowContext(ctx,
		"SELECT "+mangaColumns+" FROM mangas WHERE "+where+" ORDER BY rowid LIMIT 1", arg)
	m, err := scanManga(row)
	if err != nil {
		return Manga{}, notFound(err, operation, fmt.Sprintf("%q", arg))
	}
	return m, nil
}

// QueryManga returns every manga matching the filter, ordered by name.
func (o ops) QueryManga(ctx context.Context, filter Filter) ([]Manga, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.NormalizedName != "" {
		clauses = append(clauses, "normalized_name = ?")
		args = append(args, filter.NormalizedName)
	}
	if filter.Authors != "" {
		clauses = append(clauses, "authors = ?")
		args = append(args, filter.Authors)
	}
	if filter.NameContains != "" {
		clauses = append(clauses, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.NameContains)+"%")
	}
	query := "SELECT " + mangaColumns + " FROM mangas"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE, rowid"

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query manga: %w", err)
	}
	return collectManga(rows)
}

// ListManga returns every tracked manga.
func (o ops) ListManga(ctx context.Context) ([]Manga, error) {
	return o.QueryManga(ctx, Filter{})
}

// OngoingManga returns manga whose status marks them for sweeps.
func (o ops) OngoingManga(ctx context.Context) ([]Manga, error) {
	return o.QueryManga(ctx, Filter{Status: StatusOngoing})
}

// DeleteManga removes a manga row. Chapters are never removed implicitly;
// deleting a manga that still owns chapters fails with ErrConsistency.
func (o ops) DeleteManga(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	var remaining int
	if err := o.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chapters WHERE manga = ?", id).Scan(&remaining); err != nil {
		return fmt.Errorf("count chapters for %s: %w", id, err)
	}
	if remaining > 0 {
		return services.Wrap(services.ErrConsistency, component, "delete manga",
			fmt.Sprintf("manga %s still owns %d chapters", id, remaining), nil)
	}
	res, err := o.q.ExecContext(ctx, "DELETE FROM mangas WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete manga %s: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, component, "delete manga", id, nil)
	}
	return nil
}

func validateManga(m Manga) error {
	var missing []string
	if strings.TrimSpace(m.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(m.NormalizedName) == "" {
		missing = append(missing, "normalized_name")
	}
	if strings.TrimSpace(m.Hash) == "" {
		missing = append(missing, "hash")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, component, "upsert manga",
			"missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}
