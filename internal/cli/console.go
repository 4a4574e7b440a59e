package cli

import (
	"github.com/spf13/cobra"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/internal/transport/console"
)

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Manage users from an interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Logs go to stderr so they never interleave with the menu
			cfg, log, err := a.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			repl := console.New(user.NewService(st.Users, log), cmd.InOrStdin(), cmd.OutOrStdout(), log)

			// Reading stdin cannot be interrupted, so a signal abandons the read
			done := make(chan error, 1)
			go func() { done <- repl.Run(ctx) }()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return nil
			}
		},
	}
}
