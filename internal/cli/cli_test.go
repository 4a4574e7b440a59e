package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/cli"
	"github.com/kislikjeka/userregistry/internal/transport/httpapi/middleware"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

// memoryEnv points every command at an in-process store
func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "0")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, ctx context.Context, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := cli.NewRootCmdForTest()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})

	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, context.Background(), "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "userregistry dev")
}

func TestConsoleCmd(t *testing.T) {
	memoryEnv(t)

	out, err := execute(t, context.Background(), "3\nJohn Doe\njohn@example.com\n30\n2\n6\n", "console")

	require.NoError(t, err)
	assert.Contains(t, out, "User was created!")
	assert.Contains(t, out, "#1 John Doe <john@example.com>")
	assert.Contains(t, out, "Bye!")
}

func TestMigrateCmd_SelfManagedSchema(t *testing.T) {
	memoryEnv(t)

	out, err := execute(t, context.Background(), "", "migrate")

	require.NoError(t, err)
	assert.Contains(t, out, "memory store manages its own schema")
}

func TestTokenCmd(t *testing.T) {
	memoryEnv(t)

	t.Run("without secret", func(t *testing.T) {
		_, err := execute(t, context.Background(), "", "token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET is not configured")
	})

	t.Run("with secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", testSecret)

		out, err := execute(t, context.Background(), "", "token", "--subject", "ops", "--ttl", "1h")
		require.NoError(t, err)

		claims, err := middleware.NewJWTService(testSecret).ValidateToken(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "ops", claims.Subject)
	})
}

func TestConfigFlag(t *testing.T) {
	memoryEnv(t)
	t.Setenv("STORE_DRIVER", "")

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, context.Background(), "", "migrate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("file selects the store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store_driver: sqlite\nsqlite_path: "+filepath.Join(t.TempDir(), "users.db")+"\n"), 0o600))

		out, err := execute(t, context.Background(), "", "migrate", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "sqlite store manages its own schema")
	})
}

func TestServeCmd_ShutsDownOnCancel(t *testing.T) {
	memoryEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := execute(t, ctx, "", "serve")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, context.Background(), "", "frobnicate")
	assert.Error(t, err)
}
