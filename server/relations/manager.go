// Package relations maintains the symmetric contact graph between users.
//
// Every relationship is stored twice, once on each user's document, with the
// role flags swapped. Operations that touch both copies go through
// store.UpdatePair so both documents commit together.
package relations

import (
	"context"
	"time"

	"github.com/Daskott/lifeline/server/logger"
	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/push"
	"github.com/Daskott/lifeline/server/store"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var logg = logger.NewLogger()

type Manager struct {
	store     store.Store
	discovery store.DiscoveryIndex
	notifier  push.Notifier
	now       func() time.Time
}

type ManagerOpt func(*Manager)

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) ManagerOpt {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(st store.Store, discovery store.DiscoveryIndex, notifier push.Notifier, opts ...ManagerOpt) *Manager {
	manager := &Manager{
		store:     st,
		discovery: discovery,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// PreferenceUpdate holds the non-role fields of an entry that can be changed.
// Nil fields are left as they are.
type PreferenceUpdate struct {
	SendPings       *bool   `json:"send_pings"`
	ReceivePings    *bool   `json:"receive_pings"`
	NotifyOnCheckIn *bool   `json:"notify_on_check_in"`
	NotifyOnExpiry  *bool   `json:"notify_on_expiry"`
	Nickname        *string `json:"nickname"`
	Notes           *string `json:"notes"`
}

func (pu PreferenceUpdate) IsEmpty() bool {
	return pu.SendPings == nil && pu.ReceivePings == nil &&
		pu.NotifyOnCheckIn == nil && pu.NotifyOnExpiry == nil &&
		pu.Nickname == nil && pu.Notes == nil
}

func (pu PreferenceUpdate) apply(entry *models.ContactEntry, now time.Time) {
	if pu.SendPings != nil {
		entry.SendPings = *pu.SendPings
	}
	if pu.ReceivePings != nil {
		entry.ReceivePings = *pu.ReceivePings
	}
	if pu.NotifyOnCheckIn != nil {
		entry.NotifyOnCheckIn = *pu.NotifyOnCheckIn
	}
	if pu.NotifyOnExpiry != nil {
		entry.NotifyOnExpiry = *pu.NotifyOnExpiry
	}
	if pu.Nickname != nil {
		entry.Nickname = *pu.Nickname
	}
	if pu.Notes != nil {
		entry.Notes = *pu.Notes
	}
	entry.LastUpdated = now
}

// mirror copies the ping preferences onto the reciprocal entry, swapped.
func (pu PreferenceUpdate) mirror(reciprocal *models.ContactEntry, now time.Time) {
	if pu.SendPings == nil && pu.ReceivePings == nil {
		return
	}

	if pu.SendPings != nil {
		reciprocal.ReceivePings = *pu.SendPings
	}
	if pu.ReceivePings != nil {
		reciprocal.SendPings = *pu.ReceivePings
	}
	reciprocal.LastUpdated = now
}

// AddRelation resolves 'discoveryToken' to another user and creates the mirrored
// pair of contact entries. 'isResponder' & 'isDependent' describe the new contact
// from the caller's side. Returns the new contact's user id.
func (m *Manager) AddRelation(ctx context.Context, callerID, discoveryToken string, isResponder, isDependent bool) (contactID string, err error) {
	ctx, span := startSpan(ctx, "Manager.AddRelation")
	defer func() { endSpan(span, err) }()

	if callerID == "" {
		return "", unauthenticated("caller identity is required")
	}

	if discoveryToken == "" {
		return "", invalidArgument("discovery token is required")
	}

	callerRef := models.RefByPath(callerID)
	if !models.ValidRef(callerRef) {
		return "", invalidArgument("invalid caller id %q", callerID)
	}

	contactID, err = m.discovery.Resolve(ctx, discoveryToken)
	if errors.Is(err, store.ErrTokenNotFound) {
		return "", notFound("discovery token not found")
	}
	if err != nil {
		return "", classify(err)
	}

	contactRef := models.RefForUser(contactID)
	if callerRef.Matches(contactRef) {
		return "", invalidArgument("cannot add yourself as a contact")
	}

	err = m.store.UpdatePair(ctx, callerRef.UserID(), contactRef.UserID(), func(caller, contact *models.User) error {
		if err := requireUsers(callerRef, caller, contactRef, contact); err != nil {
			return err
		}

		if caller.Contact(contactRef) != nil || contact.Contact(callerRef) != nil {
			return alreadyExists("%v is already a contact", contactRef)
		}

		callerEntry, contactEntry := models.NewContactPair(callerRef, contactRef, isResponder, isDependent, m.now())
		caller.Contacts = append(caller.Contacts, callerEntry)
		contact.Contacts = append(contact.Contacts, contactEntry)

		return nil
	})
	if err != nil {
		return "", classify(err)
	}

	logg.Infof("relation added between %v & %v", callerRef, contactRef)
	return contactRef.UserID(), nil
}

// UpdateRoles sets the caller's entry roles & the reciprocal entry to the inverse roles
func (m *Manager) UpdateRoles(ctx context.Context, userRef, contactRef string, isResponder, isDependent *bool) (err error) {
	ctx, span := startSpan(ctx, "Manager.UpdateRoles")
	defer func() { endSpan(span, err) }()

	if isResponder == nil || isDependent == nil {
		return invalidArgument("both isResponder & isDependent are required")
	}

	callerRef, otherRef, err := parsePair(userRef, contactRef)
	if err != nil {
		return err
	}

	err = m.store.UpdatePair(ctx, callerRef.UserID(), otherRef.UserID(), func(caller, contact *models.User) error {
		callerEntry, reciprocal, err := requireRelation(callerRef, caller, otherRef, contact)
		if err != nil {
			return err
		}

		now := m.now()
		callerEntry.SetRoles(*isResponder, *isDependent, now)
		reciprocal.SetRoles(*isDependent, *isResponder, now)

		return nil
	})

	return classify(err)
}

// UpdatePreferences partially updates the caller's entry. With 'updateReciprocal'
// the ping preferences are mirrored, swapped, onto the other side's entry when it
// exists; a missing reciprocal is not an error. Roles are never touched here.
func (m *Manager) UpdatePreferences(ctx context.Context, userRef, contactRef string, update PreferenceUpdate, updateReciprocal bool) (err error) {
	ctx, span := startSpan(ctx, "Manager.UpdatePreferences")
	defer func() { endSpan(span, err) }()

	if update.IsEmpty() {
		return invalidArgument("at least one preference field is required")
	}

	callerRef, otherRef, err := parsePair(userRef, contactRef)
	if err != nil {
		return err
	}

	applyToCaller := func(caller *models.User) error {
		if caller == nil {
			return notFound("user %v not found", callerRef)
		}

		entry := caller.Contact(otherRef)
		if entry == nil {
			return notFound("%v is not a contact of %v", otherRef, callerRef)
		}

		update.apply(entry, m.now())
		return nil
	}

	if !updateReciprocal {
		return classify(m.store.UpdateUser(ctx, callerRef.UserID(), applyToCaller))
	}

	err = m.store.UpdatePair(ctx, callerRef.UserID(), otherRef.UserID(), func(caller, contact *models.User) error {
		if err := applyToCaller(caller); err != nil {
			return err
		}

		if contact == nil {
			return nil
		}

		if reciprocal := contact.Contact(callerRef); reciprocal != nil {
			update.mirror(reciprocal, m.now())
		}
		return nil
	})

	return classify(err)
}

// RemoveRelation drops the entries referencing each other from both users.
// Removing a relation that doesn't exist succeeds.
func (m *Manager) RemoveRelation(ctx context.Context, userARef, userBRef string) (err error) {
	ctx, span := startSpan(ctx, "Manager.RemoveRelation")
	defer func() { endSpan(span, err) }()

	aRef, bRef, err := parsePair(userARef, userBRef)
	if err != nil {
		return err
	}

	err = m.store.UpdatePair(ctx, aRef.UserID(), bRef.UserID(), func(a, b *models.User) error {
		if err := requireUsers(aRef, a, bRef, b); err != nil {
			return err
		}

		removedA := a.RemoveContact(bRef)
		removedB := b.RemoveContact(aRef)
		if removedA != removedB {
			logg.Warnf("one-sided relation between %v & %v removed", aRef, bRef)
		}

		return nil
	})

	return classify(err)
}

// ListContacts returns the caller's contact entries
func (m *Manager) ListContacts(ctx context.Context, userRef string) ([]*models.ContactEntry, error) {
	ref, err := parseRef("userRef", userRef)
	if err != nil {
		return nil, err
	}

	user, err := m.store.GetUser(ctx, ref.UserID())
	if err != nil {
		return nil, classify(err)
	}

	return user.Contacts, nil
}

// IssueDiscoveryToken creates a token other users can add the caller with
func (m *Manager) IssueDiscoveryToken(ctx context.Context, userRef string) (string, error) {
	ref, err := parseRef("userRef", userRef)
	if err != nil {
		return "", err
	}

	if _, err := m.store.GetUser(ctx, ref.UserID()); err != nil {
		return "", classify(err)
	}

	token, err := m.discovery.Issue(ctx, ref.UserID())
	if err != nil {
		return "", classify(err)
	}

	return token, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func parseRef(field, raw string) (models.ContactRef, error) {
	if raw == "" {
		return models.ContactRef{}, invalidArgument("%s is required", field)
	}

	ref := models.RefByPath(raw)
	if !models.ValidRef(ref) {
		return models.ContactRef{}, invalidArgument("%s %q is not a users document", field, raw)
	}

	return ref, nil
}

func parsePair(userRef, contactRef string) (models.ContactRef, models.ContactRef, error) {
	a, err := parseRef("userRef", userRef)
	if err != nil {
		return a, models.ContactRef{}, err
	}

	b, err := parseRef("contactRef", contactRef)
	if err != nil {
		return a, b, err
	}

	if a.Matches(b) {
		return a, b, invalidArgument("a user cannot be their own contact")
	}

	return a, b, nil
}

func requireUsers(aRef models.ContactRef, a *models.User, bRef models.ContactRef, b *models.User) error {
	if a == nil {
		return notFound("user %v not found", aRef)
	}
	if b == nil {
		return notFound("user %v not found", bRef)
	}
	return nil
}

// requireRelation returns both mirrored entries, failing NotFound unless the
// relation exists on both sides.
func requireRelation(callerRef models.ContactRef, caller *models.User, contactRef models.ContactRef, contact *models.User) (*models.ContactEntry, *models.ContactEntry, error) {
	if err := requireUsers(callerRef, caller, contactRef, contact); err != nil {
		return nil, nil, err
	}

	callerEntry := caller.Contact(contactRef)
	reciprocal := contact.Contact(callerRef)
	if callerEntry == nil || reciprocal == nil {
		return nil, nil, notFound("no relation between %v & %v", callerRef, contactRef)
	}

	return callerEntry, reciprocal, nil
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer("lifeline/server/relations").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
