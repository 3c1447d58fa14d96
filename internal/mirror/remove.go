package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mgdl/internal/catalog"
	"mgdl/internal/logging"
	"mgdl/internal/services"
)

const trashPrefix = ".mgdl-trash-"

// RemoveResult describes a completed Remove.
type RemoveResult struct {
	Manga           catalog.Manga
	ChaptersDeleted int64
	DirRemoved      bool
}

// Remove deletes a manga's catalog rows and its library directory.
//
// The directory is first renamed aside, then chapters and the manga row are
// deleted in one transaction. If the transaction fails the rename is
// reverted, leaving both sides as they were. Once the transaction commits
// the renamed directory is deleted; if that fails the result is still
// returned alongside an ErrConsistency naming the leftover path.
func (m *Mirror) Remove(ctx context.Context, name string) (RemoveResult, error) {
	manga, err := m.Resolve(ctx, name)
	if err != nil {
		return RemoveResult{}, err
	}
	ctx = services.WithManga(services.WithOperation(ctx, "remove"), manga.NormalizedName)
	logger := logging.WithContext(ctx, m.logger)
	result := RemoveResult{Manga: manga}

	_, err = m.withLock(ctx, manga, func() (Outcome, error) {
		dir := m.MangaDir(manga)
		trash := ""
		if _, statErr := os.Stat(dir); statErr == nil {
			trash = filepath.Join(m.mangaDir, trashPrefix+dirName(manga)+"-"+uuid.NewString())
			if err := os.Rename(dir, trash); err != nil {
				return Outcome{}, services.Wrap(services.ErrSource, component, "remove", "move directory aside", err)
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return Outcome{}, services.Wrap(services.ErrSource, component, "remove", "inspect directory", statErr)
		}

		txErr := m.store.WithTx(ctx, func(tx *catalog.Tx) error {
			deleted, err := tx.DeleteChaptersForManga(ctx, manga.ID)
			if err != nil {
				return err
			}
			result.ChaptersDeleted = deleted
			return tx.DeleteManga(ctx, manga.ID)
		})
		if txErr != nil {
			result.ChaptersDeleted = 0
			if trash == "" {
				return Outcome{}, txErr
			}
			if err := os.Rename(trash, dir); err != nil {
				return Outcome{}, services.Wrap(services.ErrConsistency, component, "remove",
					fmt.Sprintf("catalog delete failed and directory is stranded at %s", trash),
					errors.Join(txErr, err))
			}
			return Outcome{}, txErr
		}

		if trash == "" {
			logger.Info("manga removed; no library directory existed",
				logging.Int64("chapters_deleted", result.ChaptersDeleted))
			return Outcome{}, nil
		}
		if err := os.RemoveAll(trash); err != nil {
			return Outcome{}, services.Wrap(services.ErrConsistency, component, "remove",
				fmt.Sprintf("catalog entry removed but files remain at %s", trash), err)
		}
		result.DirRemoved = true
		logger.Info("manga removed",
			logging.Int64("chapters_deleted", result.ChaptersDeleted),
			logging.String("dir", dir),
		)
		return Outcome{}, nil
	})
	return result, err
}

// LeftoverTrash lists directories stranded by an interrupted Remove.
func (m *Mirror) LeftoverTrash() ([]string, error) {
	entries, err := os.ReadDir(m.mangaDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), trashPrefix) {
			out = append(out, filepath.Join(m.mangaDir, entry.Name()))
		}
	}
	return out, nil
}
