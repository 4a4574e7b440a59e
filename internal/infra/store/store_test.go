package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/pkg/config"
)

func testConfig(driver string) *config.Config {
	cfg := config.Default()
	cfg.StoreDriver = driver
	return cfg
}

func TestOpen_Memory(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, testConfig(config.DriverMemory), nil)
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, config.DriverMemory, st.Driver)
	assert.NoError(t, st.Ping(ctx))

	assert.False(t, st.VersionedSchema())
	applied, err := st.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	svc := user.NewService(st.Users, nil)
	age := 30
	created, err := svc.Create(ctx, user.CreateRequest{Name: "John Doe", Email: "john@example.com", Age: &age})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "users.db")

	st, err := Open(ctx, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, config.DriverSQLite, st.Driver)
	assert.NoError(t, st.Ping(ctx))

	require.NoError(t, st.Close())
	assert.NoError(t, st.Close(), "second close is a no-op")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig("mongo"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported store driver "mongo"`)
}

func TestOpen_PostgresUnreachable(t *testing.T) {
	cfg := testConfig(config.DriverPostgres)
	cfg.DatabaseURL = "::not a url::"

	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}
