package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/contractor-leads/internal/app/bootstrap"
	"github.com/wolfman30/contractor-leads/internal/dashboard"
)

func newAwayCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "away",
		Short: "Show or toggle a dashboard role's away flag",
	}
	cmd.PersistentFlags().StringVar(&role, "role", string(dashboard.RoleManager), "Dashboard role (owner or manager)")

	run := func(toggle bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			r := dashboard.Role(role)
			if !r.Valid() {
				return fmt.Errorf("%w: %q", dashboard.ErrUnknownRole, role)
			}
			url, err := requireDatabaseURL()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := bootstrap.ConnectPostgresPool(ctx, url, cliLogger())
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			profiles := dashboard.NewPostgresProfileStore(pool)
			var away bool
			if toggle {
				away, err = profiles.ToggleAway(ctx, r)
			} else {
				away, err = profiles.IsAway(ctx, r)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), awayLine(r, away))
			return nil
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the away flag",
		Args:  cobra.NoArgs,
		RunE:  run(false),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Flip the away flag",
		Args:  cobra.NoArgs,
		RunE:  run(true),
	})
	return cmd
}

func awayLine(role dashboard.Role, away bool) string {
	if away {
		return fmt.Sprintf("%s is away - AI will handle visitors", role)
	}
	return fmt.Sprintf("%s is available", role)
}
