package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizeFetch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("MGDL_MANGA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.MangaDir = value
	}
	if strings.TrimSpace(c.Paths.MangaDir) == "" {
		c.Paths.MangaDir = defaultMangaDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.MangaDir, err = expandPath(strings.TrimSpace(c.Paths.MangaDir)); err != nil {
		return fmt.Errorf("paths.manga_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProvider() {
	if value, ok := os.LookupEnv("MGDL_PROVIDER_URL"); ok && strings.TrimSpace(value) != "" {
		c.Provider.BaseURL = value
	}
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	c.Provider.UserAgent = strings.TrimSpace(c.Provider.UserAgent)
	if c.Provider.UserAgent == "" {
		c.Provider.UserAgent = defaultProviderUserAgent
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.Binary = strings.TrimSpace(c.Fetch.Binary)
	if c.Fetch.Binary == "" {
		c.Fetch.Binary = defaultFetchBinary
	}
	args := c.Fetch.ExtraArgs[:0]
	for _, arg := range c.Fetch.ExtraArgs {
		if arg = strings.TrimSpace(arg); arg != "" {
			args = append(args, arg)
		}
	}
	c.Fetch.ExtraArgs = args
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
