package weebcentral

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"mgdl/internal/catalog"
	"mgdl/internal/config"
	"mgdl/internal/logging"
	"mgdl/internal/services"
)

const (
	component        = "weebcentral"
	initialRetryWait = 300 * time.Millisecond
	maxRetryWait     = 30 * time.Second
	rateLimitMarker  = "error code: 1015"
)

// Client talks to the provider site.
type Client struct {
	http    *resty.Client
	baseURL string
	logger  *slog.Logger
}

// New constructs a provider client from the [provider] configuration.
func New(cfg config.Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := max(cfg.MaxAttempts, 1)
	httpClient := resty.New().
		SetTimeout(time.Duration(cfg.RequestTimeout)*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept-Charset", "utf-8").
		SetLogger(disableLogger{}).
		SetRetryCount(attempts-1).
		SetRetryWaitTime(initialRetryWait).
		SetRetryMaxWaitTime(maxRetryWait).
		SetRetryAfter(retryAfter).
		AddRetryCondition(shouldRetry)

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  logging.NewComponentLogger(logger, component),
	}
}

// MangaFromURL scrapes manga metadata and its full chapter list.
func (c *Client) MangaFromURL(ctx context.Context, url string) (catalog.Manga, []catalog.Chapter, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return catalog.Manga{}, nil, err
	}
	manga, err := ParseManga(bytes.NewReader(body), url)
	if err != nil {
		return catalog.Manga{}, nil, services.Wrap(services.ErrSource, component, "parse series", url, err)
	}
	chapters, err := c.Chapters(ctx, manga.Hash)
	if err != nil {
		return catalog.Manga{}, nil, err
	}
	logging.WithContext(ctx, c.logger).Info("series scraped",
		logging.String("name", manga.Name),
		logging.String("hash", manga.Hash),
		logging.String("status", manga.Status),
		logging.Int("chapters", len(chapters)),
	)
	return manga, chapters, nil
}

// Chapters returns the chapter listing for a series hash.
func (c *Client) Chapters(ctx context.Context, hash string) ([]catalog.Chapter, error) {
	url := fmt.Sprintf("%s/series/%s/full-chapter-list", c.baseURL, hash)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	chapters, err := ParseChapters(bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrSource, component, "parse chapter list", hash, err)
	}
	return chapters, nil
}

// SeriesURL is the canonical series URL handed to the fetch tool.
func (c *Client) SeriesURL(manga catalog.Manga) string {
	return fmt.Sprintf("%s/series/%s/%s", c.baseURL, manga.Hash, manga.NormalizedName)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	logger := logging.WithContext(ctx, c.logger)
	started := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, services.Wrap(services.ErrSource, component, "request", url, err)
	}
	logger.Debug("provider response",
		logging.String("url", url),
		logging.Int("status", resp.StatusCode()),
		logging.Int("attempts", resp.Request.Attempt),
		logging.Duration("duration", time.Since(started)),
	)
	if resp.StatusCode() != http.StatusOK {
		return nil, services.Wrap(services.ErrSource, component, "request",
			fmt.Sprintf("%s returned %s", url, resp.Status()), nil)
	}
	body := resp.Body()
	if bytes.Contains(body, []byte(rateLimitMarker)) {
		return nil, services.Wrap(services.ErrSource, component, "request",
			fmt.Sprintf("rate limited while accessing %s", url), nil)
	}
	return body, nil
}

func shouldRetry(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	status := r.StatusCode()
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return true
	}
	return strings.Contains(r.String(), rateLimitMarker)
}

func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
		return 0, nil
	}
	header := resp.Header().Get("Retry-After")
	if header == "" {
		return 0, nil
	}
	if seconds, err := time.ParseDuration(header + "s"); err == nil {
		return seconds, nil
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t), nil
	}
	return 0, nil
}

type disableLogger struct{}

func (disableLogger) Errorf(string, ...any) {}
func (disableLogger) Warnf(string, ...any)  {}
func (disableLogger) Debugf(string, ...any) {}
