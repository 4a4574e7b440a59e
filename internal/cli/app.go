package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/kislikjeka/userregistry/internal/infra/store"
	"github.com/kislikjeka/userregistry/pkg/config"
	"github.com/kislikjeka/userregistry/pkg/logger"
)

// app holds the persistent flags shared by every command; load and
// openStore build the config, logger and store from them
type app struct {
	configPath *string
}

func (a *app) load(logOut io.Writer) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(*a.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Options{
		Env:    cfg.Env,
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
		Output: logOut,
	})
	return cfg, log, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Store, error) {
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open store", "driver", cfg.StoreDriver, "error", err)
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	return st, nil
}
