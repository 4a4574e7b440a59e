package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, log, err := a.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			applied, err := st.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			out := cmd.OutOrStdout()
			switch {
			case !st.VersionedSchema():
				fmt.Fprintf(out, "%s store manages its own schema, nothing to apply\n", st.Driver)
				return nil
			case len(applied) == 0:
				fmt.Fprintf(out, "%s schema is up to date\n", st.Driver)
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
}
