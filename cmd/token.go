package cmd

import (
	"fmt"
	"time"

	"github.com/Daskott/lifeline/server/auth"
	"github.com/Daskott/lifeline/server/auth/key"
	"github.com/spf13/cobra"
)

func createTokenCmd() *cobra.Command {
	var (
		userID  string
		isAdmin bool
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an API token for a user",
		Long:  `Signs an RS256 token with the server's private key, for calling the API during development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return formattedError("\"user\" not set")
			}

			serverConfig, err := loadServerConfig()
			if err != nil {
				return err
			}

			keyPair, err := key.LoadKeyPair(serverConfig.Lifeline.PrivateKeyPem)
			if err != nil {
				return formattedError("%v", err)
			}

			token, err := auth.EncodeJWT(auth.NewClaims(userID, isAdmin, ttl), keyPair)
			if err != nil {
				return formattedError("unable to sign token: %v", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "id of the user the token is for")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "grant admin access")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DEFAULT_TOKEN_TTL, "how long the token is valid for")

	return cmd
}
