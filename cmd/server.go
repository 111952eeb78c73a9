package cmd

import (
	"github.com/Daskott/lifeline/server"
	"github.com/spf13/cobra"
)

func createServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start a lifeline server",
		Long: `The lifeline server exposes the contacts API & scans every user on a fixed
cadence, sending check-in reminders & expiry alerts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, err := loadServerConfig()
			if err != nil {
				return err
			}

			server.Start(serverConfig, isDevEnv)
			return nil
		},
	}
}
