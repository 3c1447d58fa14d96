package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mgdl/internal/services"
)

const mangaColumns = "id, hash, name, normalized_name, authors, status"

const chapterColumns = "id, hash, number, manga"

type scanner interface{ Scan(dest ...any) error }

func scanManga(row scanner) (Manga, error) {
	var m Manga
	if err := row.Scan(&m.ID, &m.Hash, &m.Name, &m.NormalizedName, &m.Authors, &m.Status); err != nil {
		return Manga{}, err
	}
	return m, nil
}

func scanChapter(row scanner) (Chapter, error) {
	var (
		c       Chapter
		number  string
		mangaID sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Hash, &number, &mangaID); err != nil {
		return Chapter{}, err
	}
	parsed, err := ParseChapterNumber(number)
	if err != nil {
		return Chapter{}, fmt.Errorf("chapter %s: %w", c.ID, err)
	}
	c.Number = parsed
	c.MangaID = mangaID.String
	return c, nil
}

func collectManga(rows *sql.Rows) ([]Manga, error) {
	defer rows.Close()
	var out []Manga
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manga: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manga: %w", err)
	}
	return out, nil
}

// notFound converts sql.ErrNoRows into a classified NotFound error and wraps
// anything else as a plain query failure.
func notFound(err error, operation, subject string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return services.Wrap(services.ErrNotFound, component, operation, subject, nil)
	}
	return fmt.Errorf("%s %s: %w", operation, subject, err)
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
