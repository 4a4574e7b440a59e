package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kislikjeka/userregistry/internal/infra/memory"
	"github.com/kislikjeka/userregistry/internal/infra/postgres"
	redisstore "github.com/kislikjeka/userregistry/internal/infra/redis"
	"github.com/kislikjeka/userregistry/internal/infra/sqlite"
	"github.com/kislikjeka/userregistry/internal/infra/telemetry"
	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/pkg/config"
	"github.com/kislikjeka/userregistry/pkg/logger"
)

// Store is the opened record store. Close releases the underlying
// connections; it must be called exactly once when the process is done.
type Store struct {
	// Users is the instrumented user repository for the configured driver
	Users  user.Repository
	Driver string

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) ([]string, error)
	close   func() error
}

// Open connects to the store selected by cfg.StoreDriver and verifies it
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}

	st, err := open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	traced, err := telemetry.NewTracedRepository(st.Users, st.Driver)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to instrument repository: %w", err)
	}
	st.Users = traced

	log.Info("store opened", "driver", st.Driver)
	return st, nil
}

func open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		return &Store{
			Users:   postgres.NewUserRepository(db.Pool),
			Driver:  config.DriverPostgres,
			ping:    db.Ping,
			migrate: func(ctx context.Context) ([]string, error) { return postgres.Migrate(ctx, db) },
			close:   func() error { db.Close(); return nil },
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo := sqlite.NewUserRepository(db)
		return &Store{
			Users:  repo,
			Driver: config.DriverSQLite,
			ping:   repo.Ping,
			close:  db.Close,
		}, nil

	case config.DriverRedis:
		client, err := redisstore.NewClient(ctx, redisstore.Config{
			URL:      cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		repo := redisstore.NewUserRepository(client, log)
		return &Store{
			Users:  repo,
			Driver: config.DriverRedis,
			ping:   repo.Ping,
			close:  client.Close,
		}, nil

	case config.DriverMemory:
		repo := memory.NewUserRepository()
		return &Store{
			Users:  repo,
			Driver: config.DriverMemory,
			ping:   repo.Ping,
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// Ping verifies the store is reachable
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// VersionedSchema reports whether the driver keeps a migration history.
// The other drivers create their schema on open.
func (s *Store) VersionedSchema() bool {
	return s.migrate != nil
}

// Migrate applies pending schema migrations and returns their names.
// Drivers without a versioned schema report nothing applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	if s.migrate == nil {
		return nil, nil
	}
	return s.migrate(ctx)
}

// Close releases the store. Calling Close more than once is a no-op.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	fn := s.close
	s.close = nil
	if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close %s store: %w", s.Driver, err)
	}
	return nil
}
