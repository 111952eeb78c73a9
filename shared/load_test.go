package shared

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readYaml(t *testing.T, content string) *viper.Viper {
	config := viper.New()
	config.SetConfigType("yaml")
	require.Nil(t, config.ReadConfig(strings.NewReader(content)))
	return config
}

func TestLoadServerConfig(t *testing.T) {
	config := readYaml(t, `
lifeline:
  privateKeyPem: "/etc/lifeline/private.pem"
  cron:
    timeZone: "America/Toronto"
    scanInterval: 10m
  listener:
    port: 3000
  reminders:
    lateLead: 20m
google:
  projectID: lifeline-dev
  storage:
    bucket: lifeline
    prefix: backups
    backupSchedule: "0 3 * * *"
    enableBackup: true
`)

	serverConfig, err := LoadServerConfig(config)
	require.Nil(t, err)

	assert.Equal(t, 3000, serverConfig.Lifeline.Listener.Port)
	assert.Equal(t, 10*time.Minute, serverConfig.Lifeline.Cron.ScanInterval)
	assert.Equal(t, 20*time.Minute, serverConfig.Lifeline.Reminders.LateLead)
	assert.Equal(t, DEFAULT_EARLY_LEAD, serverConfig.Lifeline.Reminders.EarlyLead)
	assert.Equal(t, DEFAULT_CONCURRENCY, serverConfig.Lifeline.Reminders.Concurrency)
	assert.Equal(t, "0 3 * * *", serverConfig.Google.Storage.BackupSchedule)
	assert.False(t, serverConfig.Twilio.Enabled)
}

func TestLoadServerConfigDefaults(t *testing.T) {
	config := readYaml(t, `
lifeline:
  privateKeyPem: "pem"
  cron:
    timeZone: "UTC"
  listener:
    port: 8080
`)

	serverConfig, err := LoadServerConfig(config)
	require.Nil(t, err)
	assert.Equal(t, DEFAULT_SCAN_INTERVAL, serverConfig.Lifeline.Cron.ScanInterval)
	assert.Equal(t, DEFAULT_LATE_LEAD, serverConfig.Lifeline.Reminders.LateLead)
}

func TestLoadServerConfigInvalid(t *testing.T) {
	testCases := []struct {
		description string
		yaml        string
	}{
		{"missing private key", `
lifeline:
  cron:
    timeZone: "UTC"
  listener:
    port: 8080
`},
		{"backup enabled without a bucket", `
lifeline:
  privateKeyPem: "pem"
  cron:
    timeZone: "UTC"
  listener:
    port: 8080
google:
  storage:
    enableBackup: true
`},
		{"twilio enabled without credentials", `
lifeline:
  privateKeyPem: "pem"
  cron:
    timeZone: "UTC"
  listener:
    port: 8080
twilio:
  enabled: true
`},
	}

	for _, tc := range testCases {
		_, err := LoadServerConfig(readYaml(t, tc.yaml))
		assert.NotNil(t, err, tc.description)
	}
}
