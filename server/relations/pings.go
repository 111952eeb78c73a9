package relations

import (
	"context"

	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/push"
)

// PingDependent stamps a ping from the caller to one of their dependents on both
// entries, then pushes a notification to the dependent. A failed push is logged,
// the stamped ping stands.
func (m *Manager) PingDependent(ctx context.Context, userRef, contactRef string) (err error) {
	ctx, span := startSpan(ctx, "Manager.PingDependent")
	defer func() { endSpan(span, err) }()

	callerRef, dependentRef, err := parsePair(userRef, contactRef)
	if err != nil {
		return err
	}

	var pushToken, callerName string

	err = m.store.UpdatePair(ctx, callerRef.UserID(), dependentRef.UserID(), func(caller, dependent *models.User) error {
		callerEntry, reciprocal, err := requireRelation(callerRef, caller, dependentRef, dependent)
		if err != nil {
			return err
		}

		if !callerEntry.IsDependent {
			return failedPrecondition("%v is not a dependent of %v", dependentRef, callerRef)
		}

		now := m.now()
		sentAt, receivedAt := now, now

		callerEntry.OutgoingPingTimestamp = &sentAt
		callerEntry.LastUpdated = now
		reciprocal.IncomingPingTimestamp = &receivedAt
		reciprocal.LastUpdated = now

		pushToken = dependent.PushToken
		callerName = caller.DisplayName()

		return nil
	})
	if err != nil {
		return classify(err)
	}

	if pushToken == "" {
		logg.Warnf("%v has no push token, ping from %v stored without notification", dependentRef, callerRef)
		return nil
	}

	notification := push.PingNotification(callerName, callerRef.UserID())
	if err := m.notifier.Notify(ctx, pushToken, notification); err != nil {
		logg.Errorf("failed to push ping from %v to %v: %v", callerRef, dependentRef, err)
	}

	return nil
}

// RespondToPing clears the caller's incoming ping from 'contactRef' & the
// matching outgoing ping on the pinger's side.
func (m *Manager) RespondToPing(ctx context.Context, userRef, contactRef string) (err error) {
	ctx, span := startSpan(ctx, "Manager.RespondToPing")
	defer func() { endSpan(span, err) }()

	callerRef, pingerRef, err := parsePair(userRef, contactRef)
	if err != nil {
		return err
	}

	err = m.store.UpdatePair(ctx, callerRef.UserID(), pingerRef.UserID(), func(caller, pinger *models.User) error {
		callerEntry, reciprocal, err := requireRelation(callerRef, caller, pingerRef, pinger)
		if err != nil {
			return err
		}

		now := m.now()
		callerEntry.IncomingPingTimestamp = nil
		callerEntry.LastUpdated = now
		reciprocal.OutgoingPingTimestamp = nil
		reciprocal.LastUpdated = now

		return nil
	})

	return classify(err)
}

// RespondToAllPings clears every incoming ping on the caller's own document.
// Pingers' outgoing timestamps are left as they are. Returns how many were cleared.
func (m *Manager) RespondToAllPings(ctx context.Context, userRef string) (cleared int, err error) {
	ctx, span := startSpan(ctx, "Manager.RespondToAllPings")
	defer func() { endSpan(span, err) }()

	callerRef, err := parseRef("userRef", userRef)
	if err != nil {
		return 0, err
	}

	err = m.store.UpdateUser(ctx, callerRef.UserID(), func(caller *models.User) error {
		if caller == nil {
			return notFound("user %v not found", callerRef)
		}

		cleared = 0
		now := m.now()
		for _, entry := range caller.Contacts {
			if !entry.HasIncomingPing() {
				continue
			}
			entry.IncomingPingTimestamp = nil
			entry.LastUpdated = now
			cleared++
		}

		return nil
	})
	if err != nil {
		return 0, classify(err)
	}

	return cleared, nil
}

// ClearPing withdraws a ping the caller sent to one of their dependents
func (m *Manager) ClearPing(ctx context.Context, userRef, contactRef string) (err error) {
	ctx, span := startSpan(ctx, "Manager.ClearPing")
	defer func() { endSpan(span, err) }()

	callerRef, dependentRef, err := parsePair(userRef, contactRef)
	if err != nil {
		return err
	}

	err = m.store.UpdatePair(ctx, callerRef.UserID(), dependentRef.UserID(), func(caller, dependent *models.User) error {
		callerEntry, reciprocal, err := requireRelation(callerRef, caller, dependentRef, dependent)
		if err != nil {
			return err
		}

		if !callerEntry.IsDependent {
			return failedPrecondition("%v is not a dependent of %v", dependentRef, callerRef)
		}

		now := m.now()
		callerEntry.OutgoingPingTimestamp = nil
		callerEntry.LastUpdated = now
		reciprocal.IncomingPingTimestamp = nil
		reciprocal.LastUpdated = now

		return nil
	})

	return classify(err)
}
