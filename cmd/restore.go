package cmd

import (
	"errors"
	"fmt"

	"github.com/Daskott/lifeline/server"
	"github.com/Daskott/lifeline/server/gstorage"
	"github.com/spf13/cobra"
)

func createRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <object>",
		Short: "Restore users from a backup in cloud storage",
		Long: `Reads a users-<timestamp>.jsonl backup from the configured bucket & writes every
user in it back to firestore, replacing documents with the same id. Push tokens
already on record are kept.`,
		Example: "lifeline restore nightly/users-2021-11-04T03:00:00Z.jsonl --sconfig server.yml",
		Args:    cobra.ExactArgs(1),
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

			if deps.Backup == nil {
				return formattedError("backups are not enabled, set google.storage.enableBackup")
			}

			count, err := deps.Backup.Restore(cmd.Context(), args[0])
			if errors.Is(err, gstorage.ErrObjectNotExist) {
				return formattedError("no backup named %q in gs://%v", args[0], serverConfig.Google.Storage.Bucket)
			}
			if err != nil {
				return formattedError("restore failed: %v", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "restored %d users from %v\n", count, args[0])
			return nil
		},
	}
}
