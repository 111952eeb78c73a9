package cmd

import (
	"fmt"

	"github.com/Daskott/lifeline/server"
	"github.com/Daskott/lifeline/server/reminders"
	"github.com/spf13/cobra"
)

func createScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one reminder scan & exit",
		Long: `Runs a single pass of the reminder scan. Use this when an external scheduler
triggers scans instead of the lifeline server.

Reminder windows are exactly one reminders.scanInterval wide, so passes should be
one interval apart. Two passes closer together than that, e.g. a manual scan while
the server's cron job is running, can send the same reminder twice.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, err := loadServerConfig()
			if err != nil {
				return err
			}

			deps, err := server.NewDependencies(cmd.Context(), serverConfig, isDevEnv)
			if err != nil {
				return err
			}
			defer deps.Close()

			var opts []reminders.ScannerOpt
			if deps.SMS != nil {
				opts = append(opts, reminders.WithSMS(deps.SMS))
			}

			scanner := reminders.NewScanner(deps.Store, deps.Notifier, reminders.ConfigFrom(serverConfig), opts...)
			stats, err := scanner.Scan(cmd.Context())
			if err != nil {
				return formattedError("scan failed: %v", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}
