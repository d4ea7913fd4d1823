package cmd

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "traveleasy",
	Short: "trip planning backend",
	Long:  `this is the backend for the trip planning app, it keeps user accounts, trips and per-day expenses and pushes live updates to clients`,
}

func init() {
	RootCmd.AddCommand(serverCommand())
	RootCmd.AddCommand(migrateCommand())
}
