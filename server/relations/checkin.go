package relations

import (
	"context"

	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/push"
)

// CheckIn resets the caller's deadline to now & lets responders who asked for it know.
// Notifications are best effort.
func (m *Manager) CheckIn(ctx context.Context, userRef string) (err error) {
	ctx, span := startSpan(ctx, "Manager.CheckIn")
	defer func() { endSpan(span, err) }()

	callerRef, err := parseRef("userRef", userRef)
	if err != nil {
		return err
	}

	var callerName string
	var watchers []models.ContactRef

	err = m.store.UpdateUser(ctx, callerRef.UserID(), func(caller *models.User) error {
		if caller == nil {
			return notFound("user %v not found", callerRef)
		}

		caller.LastCheckedIn = m.now()
		callerName = caller.DisplayName()

		watchers = watchers[:0]
		for _, entry := range caller.Responders() {
			if entry.NotifyOnCheckIn {
				watchers = append(watchers, entry.Ref)
			}
		}

		return nil
	})
	if err != nil {
		return classify(err)
	}

	notification := push.CheckInNotification(callerName, callerRef.UserID())
	for _, ref := range watchers {
		m.notifyUser(ctx, ref, notification)
	}

	return nil
}

// RegisterPushToken records the device token used to reach the caller. An empty
// token clears it, after which the caller can't be notified.
func (m *Manager) RegisterPushToken(ctx context.Context, userRef, pushToken string) (err error) {
	ctx, span := startSpan(ctx, "Manager.RegisterPushToken")
	defer func() { endSpan(span, err) }()

	callerRef, err := parseRef("userRef", userRef)
	if err != nil {
		return err
	}

	err = m.store.UpdateUser(ctx, callerRef.UserID(), func(caller *models.User) error {
		if caller == nil {
			return notFound("user %v not found", callerRef)
		}

		caller.PushToken = pushToken
		return nil
	})

	return classify(err)
}

func (m *Manager) notifyUser(ctx context.Context, ref models.ContactRef, notification push.Notification) {
	user, err := m.store.GetUser(ctx, ref.UserID())
	if err != nil {
		logg.Warnf("unable to load %v for notification: %v", ref, err)
		return
	}

	if !user.CanBeNotified() {
		logg.Warnf("%v has no push token, skipping notification", ref)
		return
	}

	if err := m.notifier.Notify(ctx, user.PushToken, notification); err != nil {
		logg.Errorf("failed to notify %v: %v", ref, err)
	}
}
