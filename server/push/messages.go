package push

import (
	"fmt"
	"time"
)

// Notification kinds, sent as data["type"]
const (
	PING_KIND         = "ping"
	REMINDER_KIND     = "reminder"
	EXPIRY_ALERT_KIND = "expiry_alert"
	CHECK_IN_KIND     = "check_in"
)

func PingNotification(fromName, fromID string) Notification {
	return Notification{
		Title: "New Ping",
		Body:  fmt.Sprintf("%v wants to know if you're okay. Open the app to respond.", fromName),
		Data:  map[string]string{"type": PING_KIND, "from": fromID},
	}
}

// ReminderNotification tells a user how long is left before their check-in lapses e.g. "2 hours remaining"
func ReminderNotification(lead time.Duration) Notification {
	remaining := humanizeLead(lead)
	return Notification{
		Title: fmt.Sprintf("%v remaining", remaining),
		Body:  fmt.Sprintf("You have %v left to check in before your contacts are alerted.", remaining),
		Data:  map[string]string{"type": REMINDER_KIND, "lead": lead.String()},
	}
}

func ExpiryAlertNotification(userName, userID string) Notification {
	return Notification{
		Title: "Emergency: check-in expired",
		Body:  fmt.Sprintf("%v missed their check-in. Please reach out to make sure they're okay.", userName),
		Data:  map[string]string{"type": EXPIRY_ALERT_KIND, "user": userID},
	}
}

// ExpiryAlertSMS is the text message equivalent of ExpiryAlertNotification
func ExpiryAlertSMS(userName string) string {
	return fmt.Sprintf(
		"Hi,\nyou're getting this message because you're %v's responder. "+
			"%v missed their check-in, can you please reach out to make sure they're okay?\nThanks",
		userName, userName)
}

func CheckInNotification(userName, userID string) Notification {
	return Notification{
		Title: "Checked in",
		Body:  fmt.Sprintf("%v just checked in.", userName),
		Data:  map[string]string{"type": CHECK_IN_KIND, "user": userID},
	}
}

func humanizeLead(lead time.Duration) string {
	switch {
	case lead >= time.Hour && lead%time.Hour == 0:
		return plural(int(lead/time.Hour), "hour")
	case lead >= time.Minute && lead%time.Minute == 0:
		return plural(int(lead/time.Minute), "minute")
	default:
		return lead.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
