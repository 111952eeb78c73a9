/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	devconfig "github.com/Daskott/lifeline/dev/config"
	"github.com/Daskott/lifeline/shared"
	"github.com/Daskott/lifeline/utils"
	"github.com/Daskott/lifeline/version"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serverConfigFile string
	isDevEnv         bool

	red = color.New(color.FgRed).SprintFunc()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd = createRootCmd()
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)

	rootCmd.AddCommand(createServerCmd(), createScanCmd(), createTokenCmd(), createRestoreCmd())
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "lifeline",
		Short: `lifeline keeps people who look out for each other connected.

Users check in on a schedule. When a check-in deadline gets close they're reminded,
and when it passes their responders are alerted.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&serverConfigFile, "sconfig", "", "config for server")
	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")

	return cmd
}

// loadServerConfig reads --sconfig, or in dev mode dev/config/server.yml falling back
// to the bundled dev config. Environment variables override file values
// e.g. LIFELINE_LISTENER_PORT.
func loadServerConfig() (*shared.ServerConfig, error) {
	config := viper.New()
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	switch {
	case serverConfigFile != "":
		config.SetConfigFile(serverConfigFile)
		if err := config.ReadInConfig(); err != nil {
			return nil, formattedError("error reading server config file: %v", err)
		}

	case isDevEnv:
		if err := readDevConfig(config); err != nil {
			return nil, formattedError("error reading dev server config: %v", err)
		}

	default:
		return nil, formattedError("must set --sconfig or run with --dev")
	}

	serverConfig, err := shared.LoadServerConfig(config)
	if err != nil {
		return nil, formattedError("%v", err)
	}

	return serverConfig, nil
}

func readDevConfig(config *viper.Viper) error {
	devConfigFile, err := devConfigFilePath()
	if err != nil {
		return err
	}

	exists, err := utils.FileExists(devConfigFile)
	if err != nil {
		return err
	}

	if exists {
		config.SetConfigFile(devConfigFile)
		return config.ReadInConfig()
	}

	config.SetConfigType("yaml")
	return config.ReadConfig(strings.NewReader(devconfig.SERVER_YML))
}

func devConfigFilePath() (string, error) {
	configDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "dev", "config", "server.yml"), nil
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(red(format), a...)
}
