package main

import (
	"fmt"
	"os"

	"github.com/benvon/postcraft/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "postcraft-configure",
		Short: "Operations tool for Postcraft",
		Long:  "CLI tool for migrations, seed data, trending refreshes, usage resets and provider checks",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewSeedCmd())
	rootCmd.AddCommand(commands.NewTrendingCmd())
	rootCmd.AddCommand(commands.NewUsageCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
