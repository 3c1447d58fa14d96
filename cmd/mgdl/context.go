package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mgdl/internal/catalog"
	"mgdl/internal/config"
	"mgdl/internal/logging"
	"mgdl/internal/mirror"
	"mgdl/internal/services"
	"mgdl/internal/services/gallerydl"
	"mgdl/internal/services/weebcentral"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// operationContext tags the command context with a correlation id.
func (c *commandContext) operationContext(cmd *cobra.Command, operation string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return services.WithOperation(ctx, operation)
}

func (c *commandContext) withStore(fn func(*config.Config, *catalog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) withMirror(fn func(*config.Config, *mirror.Mirror) error) error {
	return c.withStore(func(cfg *config.Config, store *catalog.Store) error {
		m, err := c.newMirror(cfg, store)
		if err != nil {
			return err
		}
		return fn(cfg, m)
	})
}

func (c *commandContext) newMirror(cfg *config.Config, store *catalog.Store) (*mirror.Mirror, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	fetcher, err := gallerydl.New(cfg.Fetch, logger)
	if err != nil {
		return nil, err
	}
	provider := weebcentral.New(cfg.Provider, logger)
	return mirror.New(cfg, store, provider, fetcher, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
