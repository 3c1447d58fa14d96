package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mgdl/internal/config"
	"mgdl/internal/fileutil"
	"mgdl/internal/logging"
	"mgdl/internal/services"
)

// Organizer applies the chapter layout to manga directories.
type Organizer struct {
	pageDigits int
	logger     *slog.Logger
	move       func(src, dst string) error
}

// Option customizes an Organizer.
type Option func(*Organizer)

// WithMoveFunc replaces the file move primitive (used in tests).
func WithMoveFunc(move func(src, dst string) error) Option {
	return func(o *Organizer) {
		if move != nil {
			o.move = move
		}
	}
}

// New constructs an Organizer from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Organizer{
		pageDigits: cfg.Organizer.PageDigits,
		logger:     logging.NewComponentLogger(logger, "organizer"),
		move:       fileutil.MoveFile,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result summarizes one Apply pass.
type Result struct {
	Moved       int
	CreatedDirs int
	Rejected    []*FormatError
	Failed      []*MoveError
	Duration    time.Duration
}

// Err joins every move failure. Rejected files do not make a pass fail.
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, failure := range r.Failed {
		errs = append(errs, failure)
	}
	return errors.Join(errs...)
}

// Plan lists dir and builds the move plan for it. A missing directory
// yields an empty plan.
func (o *Organizer) Plan(dir string) (Plan, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Plan{Dir: dir}, nil
		}
		return Plan{}, services.Wrap(services.ErrSource, "organizer", "list directory", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return BuildPlan(dir, names, o.pageDigits), nil
}

// Apply executes plan. Each chapter directory is created before its first
// move; both steps tolerate work left behind by an interrupted pass. A
// failing move is recorded and the remaining moves still run. Apply stops
// early only when ctx is cancelled.
func (o *Organizer) Apply(ctx context.Context, plan Plan) (Result, error) {
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()
	result := Result{Rejected: plan.Rejected}

	for _, rejected := range plan.Rejected {
		logger.Warn("page file left in place",
			logging.String("path", rejected.Path),
			logging.String("reason", rejected.Reason),
			logging.Event("organize_rejected"),
		)
	}

	ready := make(map[string]bool)
	for _, move := range plan.Moves {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}
		dir := filepath.Dir(move.Dest)
		if !ready[dir] {
			created, err := ensureDir(dir)
			if err != nil {
				result.Failed = append(result.Failed, &MoveError{Move: move, Err: err})
				continue
			}
			if created {
				result.CreatedDirs++
			}
			ready[dir] = true
		}
		if err := o.move(move.Source, move.Dest); err != nil {
			result.Failed = append(result.Failed, &MoveError{Move: move, Err: err})
			logger.Warn("page move failed",
				logging.String("source", move.Source),
				logging.String("dest", move.Dest),
				logging.Error(err),
			)
			continue
		}
		result.Moved++
	}

	result.Duration = time.Since(started)
	logger.Info("organize pass finished",
		logging.String("dir", plan.Dir),
		logging.Int("moved", result.Moved),
		logging.Int("created_dirs", result.CreatedDirs),
		logging.Int("rejected", len(result.Rejected)),
		logging.Int("failed", len(result.Failed)),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

// Organize plans and applies dir in one call.
func (o *Organizer) Organize(ctx context.Context, dir string) (Result, error) {
	plan, err := o.Plan(dir)
	if err != nil {
		return Result{}, err
	}
	return o.Apply(ctx, plan)
}

func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}
