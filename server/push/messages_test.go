package push

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReminderNotification(t *testing.T) {
	testCases := []struct {
		lead          time.Duration
		expectedTitle string
	}{
		{2 * time.Hour, "2 hours remaining"},
		{time.Hour, "1 hour remaining"},
		{30 * time.Minute, "30 minutes remaining"},
		{90 * time.Minute, "90 minutes remaining"},
		{90 * time.Second, "1m30s remaining"},
	}

	for _, tc := range testCases {
		notification := ReminderNotification(tc.lead)
		assert.Equal(t, tc.expectedTitle, notification.Title)
		assert.Equal(t, REMINDER_KIND, notification.Data["type"])
	}
}

func TestAlertMessagesNameTheUser(t *testing.T) {
	alert := ExpiryAlertNotification("Peter Parker", "peter")
	assert.Equal(t, "Emergency: check-in expired", alert.Title)
	assert.Contains(t, alert.Body, "Peter Parker")
	assert.Equal(t, "peter", alert.Data["user"])

	assert.Contains(t, ExpiryAlertSMS("Peter Parker"), "Peter Parker's responder")

	ping := PingNotification("Tony Stark", "tony")
	assert.Equal(t, "New Ping", ping.Title)
	assert.Equal(t, "tony", ping.Data["from"])
}

func TestLogNotifier(t *testing.T) {
	err := LogNotifier{}.Notify(context.Background(), "dev-device", CheckInNotification("Tony Stark", "tony"))
	assert.Nil(t, err)
}
