package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the guildhall CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guildhall",
		Short: "guildhall - accounts, characters and items over HTTP",
		Long: `guildhall is a multi-tenant record backend. Accounts sign in with a
password, receive a session cookie and own characters and items that only
they can change or delete.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
