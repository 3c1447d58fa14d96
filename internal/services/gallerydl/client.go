package gallerydl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"mgdl/internal/config"
	"mgdl/internal/logging"
	"mgdl/internal/services"
)

const (
	component    = "gallerydl"
	stderrTail   = 5
	skippedMark  = "# "
	filterFormat = "%d < chapter"
)

// Request describes one fetch.
type Request struct {
	// Dir receives the raw page files.
	Dir string
	// Source is the provider URL gallery-dl extracts from.
	Source string
	// After, when set, restricts the fetch to chapters strictly greater
	// than the given major number.
	After *uint
	// Chapters is a gallery-dl chapter range such as "1-5,8"; empty selects
	// every chapter.
	Chapters string
	// Force re-downloads pages whose files already exist.
	Force bool
}

// Result summarizes gallery-dl output.
type Result struct {
	Downloaded int
	Skipped    int
	Duration   time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps gallery-dl CLI interactions.
type Client struct {
	binary    string
	timeout   time.Duration
	extraArgs []string
	exec      Executor
	logger    *slog.Logger
}

// New constructs a gallery-dl client from the [fetch] configuration.
func New(cfg config.Fetch, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "fetch.binary is empty", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		binary:    binary,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
		extraArgs: append([]string(nil), cfg.ExtraArgs...),
		exec:      commandExecutor{},
		logger:    logging.NewComponentLogger(logger, component),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ChapterFilter renders the gallery-dl filter expression selecting chapters
// strictly after the given major number.
func ChapterFilter(after uint) string {
	return fmt.Sprintf(filterFormat, after)
}

// ValidateChapterRange accepts the comma separated numbers and "a-b" spans
// gallery-dl understands for --chapter-range. An empty range is valid.
func ValidateChapterRange(spec string) error {
	if spec == "" {
		return nil
	}
	for _, part := range strings.Split(spec, ",") {
		lo, hi, isSpan := strings.Cut(part, "-")
		if !isDigits(lo) || (isSpan && !isDigits(hi)) {
			return services.Wrap(services.ErrValidation, component, "chapter range",
				fmt.Sprintf("%q is not a list of chapters or a-b spans", spec), nil)
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Args builds the gallery-dl argument list for req.
func (c *Client) Args(req Request) []string {
	args := []string{"-D", req.Dir}
	if req.After != nil {
		args = append(args, "--chapter-filter", ChapterFilter(*req.After))
	}
	if req.Chapters != "" {
		args = append(args, "--chapter-range", req.Chapters)
	}
	if req.Force {
		args = append(args, "--no-skip")
	}
	args = append(args, c.extraArgs...)
	return append(args, req.Source)
}

// Fetch runs gallery-dl for req. A non-zero exit, timeout, or missing binary
// is reported as services.ErrSource (or ErrConfiguration for the binary)
// with the tail of stderr attached.
func (c *Client) Fetch(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Dir) == "" {
		return Result{}, services.Wrap(services.ErrValidation, component, "fetch", "target directory required", nil)
	}
	if strings.TrimSpace(req.Source) == "" {
		return Result{}, services.Wrap(services.ErrValidation, component, "fetch", "source url required", nil)
	}
	if err := ValidateChapterRange(req.Chapters); err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create fetch directory: %w", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, c.logger)
	args := c.Args(req)
	logger.Info("gallery-dl starting",
		logging.String("dir", req.Dir),
		logging.String("source", req.Source),
		logging.Any("args", args),
	)

	var (
		result Result
		tail   []string
	)
	started := time.Now()
	err := c.exec.Run(runCtx, c.binary, args, func(line Line) {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			return
		}
		if line.Stderr {
			tail = append(tail, text)
			if len(tail) > stderrTail {
				tail = tail[len(tail)-stderrTail:]
			}
			logger.Debug("gallery-dl stderr", logging.String("line", text))
			return
		}
		if strings.HasPrefix(text, skippedMark) {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		logger.Debug("gallery-dl output", logging.String("line", text))
	})
	result.Duration = time.Since(started)
	if err != nil {
		return result, c.classify(runCtx, err, tail)
	}

	logger.Info("gallery-dl finished",
		logging.Int("downloaded", result.Downloaded),
		logging.Int("skipped", result.Skipped),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (c *Client) classify(ctx context.Context, err error, tail []string) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrConfiguration, component, "fetch",
			fmt.Sprintf("%s not found on PATH; install gallery-dl or set fetch.binary", c.binary), err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return services.Wrap(services.ErrSource, component, "fetch", "cancelled", ctx.Err())
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrSource, component, "fetch",
			fmt.Sprintf("timed out after %s", c.timeout), err)
	}
	message := "gallery-dl failed"
	if len(tail) > 0 {
		message += ": " + strings.Join(tail, " | ")
	}
	return services.Wrap(services.ErrSource, component, "fetch", message, err)
}
