package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"mgdl/internal/catalog"
	"mgdl/internal/logging"
)

// ErrLocked reports that another process holds the lock for a manga.
var ErrLocked = errors.New("manga is locked by another mgdl process")

// LockPath is the lock file guarding a manga directory. Lock files are
// never unlinked, even after Remove.
func (m *Mirror) LockPath(manga catalog.Manga) string {
	return filepath.Join(m.lockDir, dirName(manga)+".lock")
}

func (m *Mirror) withLock(ctx context.Context, manga catalog.Manga, fn func() (Outcome, error)) (Outcome, error) {
	if err := os.MkdirAll(m.lockDir, 0o755); err != nil {
		return Outcome{Manga: manga}, fmt.Errorf("create lock dir: %w", err)
	}
	path := m.LockPath(manga)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return Outcome{Manga: manga}, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return Outcome{Manga: manga}, fmt.Errorf("%w: %s (lock %s)", ErrLocked, manga.NormalizedName, path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WithContext(ctx, m.logger).Warn("failed to release manga lock",
				logging.String("lock", path),
				logging.Error(err),
			)
		}
	}()
	return fn()
}
