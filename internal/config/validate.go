package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.MangaDir == "" {
		return errors.New("paths.manga_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if filepath.Clean(c.Paths.MangaDir) == filepath.Clean(c.Paths.StateDir) {
		return errors.New("paths.state_dir must differ from paths.manga_dir")
	}
	return nil
}

func (c *Config) validateProvider() error {
	parsed, err := url.Parse(c.Provider.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("provider.base_url must be an absolute URL, got %q", c.Provider.BaseURL)
	}
	return ensurePositiveMap(map[string]int{
		"provider.request_timeout": c.Provider.RequestTimeout,
		"provider.max_attempts":    c.Provider.MaxAttempts,
	})
}

func (c *Config) validateFetch() error {
	if c.Fetch.Timeout < 0 {
		return errors.New("fetch.timeout must not be negative")
	}
	return nil
}

func (c *Config) validateOrganizer() error {
	if c.Organizer.PageDigits < 1 || c.Organizer.PageDigits > 6 {
		return errors.New("organizer.page_digits must be between 1 and 6")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
