package shared

import "time"

type ServerConfig struct {
	Lifeline LifelineConfig `mapstructure:"lifeline" validate:"required"`
	Google   GoogleConfig   `mapstructure:"google"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
}

type LifelineConfig struct {
	PrivateKeyPem string          `mapstructure:"privateKeyPem" validate:"required"`
	Cron          CronConfig      `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig  `mapstructure:"listener" validate:"required"`
	Reminders     RemindersConfig `mapstructure:"reminders"`
}

type GoogleConfig struct {
	ProjectID              string        `mapstructure:"projectID"`
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type CronConfig struct {
	TimeZone     string        `mapstructure:"timeZone" validate:"required"`
	ScanInterval time.Duration `mapstructure:"scanInterval"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type RemindersConfig struct {
	Concurrency int           `mapstructure:"concurrency" validate:"omitempty,min=1"`
	EarlyLead   time.Duration `mapstructure:"earlyLead"`
	LateLead    time.Duration `mapstructure:"lateLead"`
}

type StorageConfig struct {
	Bucket         string `mapstructure:"bucket" validate:"required_with=EnableBackup"`
	Prefix         string `mapstructure:"prefix" validate:"required_with=EnableBackup"`
	BackupSchedule string `mapstructure:"backupSchedule" validate:"required_with=EnableBackup"`
	EnableBackup   bool   `mapstructure:"enableBackup"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid" validate:"required_with=Enabled"`
	AuthToken           string `mapstructure:"authToken" validate:"required_with=Enabled"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid" validate:"required_with=Enabled"`
	Enabled             bool   `mapstructure:"enabled"`
}

const (
	DEFAULT_SCAN_INTERVAL = 15 * time.Minute
	DEFAULT_EARLY_LEAD    = 2 * time.Hour
	DEFAULT_LATE_LEAD     = 30 * time.Minute
	DEFAULT_CONCURRENCY   = 10
)

// ApplyDefaults fills in unset durations & limits
func (c *ServerConfig) ApplyDefaults() {
	if c.Lifeline.Cron.ScanInterval <= 0 {
		c.Lifeline.Cron.ScanInterval = DEFAULT_SCAN_INTERVAL
	}

	if c.Lifeline.Reminders.EarlyLead <= 0 {
		c.Lifeline.Reminders.EarlyLead = DEFAULT_EARLY_LEAD
	}

	if c.Lifeline.Reminders.LateLead <= 0 {
		c.Lifeline.Reminders.LateLead = DEFAULT_LATE_LEAD
	}

	if c.Lifeline.Reminders.Concurrency <= 0 {
		c.Lifeline.Reminders.Concurrency = DEFAULT_CONCURRENCY
	}
}
