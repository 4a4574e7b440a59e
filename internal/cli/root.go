package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/kislikjeka/userregistry/internal/cli.version=..."
var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "userregistry",
		Short:         "User registry service",
		Long:          "userregistry keeps user records (name, email, age) behind a REST API and an interactive console.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file; environment variables override it")

	app := &app{configPath: &configPath}
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConsoleCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newTokenCmd(app))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the CLI; SIGINT and SIGTERM cancel the command context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}
