package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreCmd(t *testing.T) {
	savedDev, savedConfigFile := isDevEnv, serverConfigFile
	defer func() {
		isDevEnv, serverConfigFile = savedDev, savedConfigFile
	}()

	cases := []struct {
		description string
		args        []string
		expectedErr string
	}{
		{
			description: "Should fail without a backup object",
			args:        []string{"restore", "--dev"},
			expectedErr: "accepts 1 arg(s), received 0",
		},
		{
			description: "Should fail when backups are disabled",
			args:        []string{"restore", "--dev", "users-2021-11-04T03:00:00Z.jsonl"},
			expectedErr: "backups are not enabled",
		},
	}

	for _, tc := range cases {
		isDevEnv, serverConfigFile = false, ""
		buff := new(bytes.Buffer)
		rootCmd.SetOut(buff)
		rootCmd.SetErr(buff)
		rootCmd.SetArgs(tc.args)

		err := rootCmd.Execute()
		require.NotNil(t, err, tc.description)
		assert.Contains(t, err.Error(), tc.expectedErr, tc.description)
	}
}
