package commands

import (
	"fmt"

	"github.com/benvon/postcraft/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(newMigrateDirectionCmd(database.MigrateUp, "Apply all pending migrations"))
	cmd.AddCommand(newMigrateDirectionCmd(database.MigrateDown, "Roll back all migrations"))
	return cmd
}

func newMigrateDirectionCmd(direction database.MigrateDirection, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(direction),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(e.db, direction, e.logger); err != nil {
				return fmt.Errorf("migrate %s: %w", direction, err)
			}
			fmt.Printf("Migrations applied (%s)\n", direction)
			return nil
		},
	}
}
