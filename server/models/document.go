package models

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
)

// Field names of a users/{id} document
const (
	FIELD_NAME              = "name"
	FIELD_PHONE_NUMBER      = "phoneNumber"
	FIELD_NOTE              = "note"
	FIELD_CHECK_IN_INTERVAL = "checkInInterval"
	FIELD_LAST_CHECKED_IN   = "lastCheckedIn"
	FIELD_PUSH_TOKEN        = "pushToken"
	FIELD_NOTIFY_EARLY      = "notifyEarly"
	FIELD_NOTIFY_LATE       = "notifyLate"
	FIELD_CONTACTS          = "contacts"
)

// Field names of an embedded contact entry
const (
	ENTRY_REFERENCE       = "reference"
	ENTRY_IS_RESPONDER    = "isResponder"
	ENTRY_IS_DEPENDENT    = "isDependent"
	ENTRY_SEND_PINGS      = "sendPings"
	ENTRY_RECEIVE_PINGS   = "receivePings"
	ENTRY_NOTIFY_CHECK_IN = "notifyOnCheckIn"
	ENTRY_NOTIFY_EXPIRY   = "notifyOnExpiry"
	ENTRY_NICKNAME        = "nickname"
	ENTRY_NOTES           = "notes"
	ENTRY_LAST_UPDATED    = "lastUpdated"
	ENTRY_INCOMING_PING   = "incomingPingTimestamp"
	ENTRY_OUTGOING_PING   = "outgoingPingTimestamp"
)

// RefEncoder decides how a ref is written back into a document
type RefEncoder func(ContactRef) interface{}

// PathRefEncoder writes refs as normalized path strings
func PathRefEncoder(ref ContactRef) interface{} {
	return ref.Path()
}

type fieldError struct {
	field string
	want  string
	got   interface{}
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %T", e.field, e.want, e.got)
}

// ParseUser turns a raw document map into a User. It is the only place raw
// document data is read: missing optional fields get their defaults here and
// fields holding the wrong type are rejected.
func ParseUser(id string, data map[string]interface{}) (*User, error) {
	var err error
	user := &User{ID: id}

	if user.Name, err = optString(data, FIELD_NAME); err != nil {
		return nil, err
	}
	if user.PhoneNumber, err = optString(data, FIELD_PHONE_NUMBER); err != nil {
		return nil, err
	}
	if user.Note, err = optString(data, FIELD_NOTE); err != nil {
		return nil, err
	}
	if user.PushToken, err = optString(data, FIELD_PUSH_TOKEN); err != nil {
		return nil, err
	}
	if user.NotifyEarly, err = optBool(data, FIELD_NOTIFY_EARLY, false); err != nil {
		return nil, err
	}
	if user.NotifyLate, err = optBool(data, FIELD_NOTIFY_LATE, false); err != nil {
		return nil, err
	}
	if user.CheckInInterval, err = optSeconds(data, FIELD_CHECK_IN_INTERVAL); err != nil {
		return nil, err
	}

	lastCheckedIn, err := optTime(data, FIELD_LAST_CHECKED_IN)
	if err != nil {
		return nil, err
	}
	if lastCheckedIn != nil {
		user.LastCheckedIn = *lastCheckedIn
	}

	rawContacts, ok := data[FIELD_CONTACTS]
	if !ok || rawContacts == nil {
		user.Contacts = []*ContactEntry{}
		return user, nil
	}

	list, ok := rawContacts.([]interface{})
	if !ok {
		return nil, &fieldError{FIELD_CONTACTS, "array", rawContacts}
	}

	user.Contacts = make([]*ContactEntry, 0, len(list))
	for i, rawEntry := range list {
		entryData, ok := rawEntry.(map[string]interface{})
		if !ok {
			return nil, &fieldError{fmt.Sprintf("%s[%d]", FIELD_CONTACTS, i), "map", rawEntry}
		}

		entry, err := ParseContactEntry(entryData)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %v", FIELD_CONTACTS, i, err)
		}
		user.Contacts = append(user.Contacts, entry)
	}

	return user, nil
}

// ParseContactEntry parses one embedded contact entry. The reference is required.
func ParseContactEntry(data map[string]interface{}) (*ContactEntry, error) {
	var err error
	entry := &ContactEntry{}

	if entry.Ref, err = ParseRef(data[ENTRY_REFERENCE]); err != nil {
		return nil, err
	}
	if entry.IsResponder, err = optBool(data, ENTRY_IS_RESPONDER, false); err != nil {
		return nil, err
	}
	if entry.IsDependent, err = optBool(data, ENTRY_IS_DEPENDENT, false); err != nil {
		return nil, err
	}
	if entry.SendPings, err = optBool(data, ENTRY_SEND_PINGS, true); err != nil {
		return nil, err
	}
	if entry.ReceivePings, err = optBool(data, ENTRY_RECEIVE_PINGS, true); err != nil {
		return nil, err
	}
	if entry.NotifyOnCheckIn, err = optBool(data, ENTRY_NOTIFY_CHECK_IN, entry.IsResponder); err != nil {
		return nil, err
	}
	if entry.NotifyOnExpiry, err = optBool(data, ENTRY_NOTIFY_EXPIRY, entry.IsResponder); err != nil {
		return nil, err
	}
	if entry.Nickname, err = optString(data, ENTRY_NICKNAME); err != nil {
		return nil, err
	}
	if entry.Notes, err = optString(data, ENTRY_NOTES); err != nil {
		return nil, err
	}

	lastUpdated, err := optTime(data, ENTRY_LAST_UPDATED)
	if err != nil {
		return nil, err
	}
	if lastUpdated != nil {
		entry.LastUpdated = *lastUpdated
	}

	if entry.IncomingPingTimestamp, err = optTime(data, ENTRY_INCOMING_PING); err != nil {
		return nil, err
	}
	if entry.OutgoingPingTimestamp, err = optTime(data, ENTRY_OUTGOING_PING); err != nil {
		return nil, err
	}

	return entry, nil
}

// EncodeContacts is the inverse of the contacts part of ParseUser
func EncodeContacts(entries []*ContactEntry, encodeRef RefEncoder) []interface{} {
	if encodeRef == nil {
		encodeRef = PathRefEncoder
	}

	list := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		list = append(list, map[string]interface{}{
			ENTRY_REFERENCE:       encodeRef(entry.Ref),
			ENTRY_IS_RESPONDER:    entry.IsResponder,
			ENTRY_IS_DEPENDENT:    entry.IsDependent,
			ENTRY_SEND_PINGS:      entry.SendPings,
			ENTRY_RECEIVE_PINGS:   entry.ReceivePings,
			ENTRY_NOTIFY_CHECK_IN: entry.NotifyOnCheckIn,
			ENTRY_NOTIFY_EXPIRY:   entry.NotifyOnExpiry,
			ENTRY_NICKNAME:        entry.Nickname,
			ENTRY_NOTES:           entry.Notes,
			ENTRY_LAST_UPDATED:    entry.LastUpdated,
			ENTRY_INCOMING_PING:   timeOrNil(entry.IncomingPingTimestamp),
			ENTRY_OUTGOING_PING:   timeOrNil(entry.OutgoingPingTimestamp),
		})
	}

	return list
}

// EncodeUser is the inverse of ParseUser
func EncodeUser(user *User, encodeRef RefEncoder) map[string]interface{} {
	data := map[string]interface{}{
		FIELD_NAME:              user.Name,
		FIELD_PHONE_NUMBER:      user.PhoneNumber,
		FIELD_NOTE:              user.Note,
		FIELD_CHECK_IN_INTERVAL: int64(user.CheckInInterval / time.Second),
		FIELD_NOTIFY_EARLY:      user.NotifyEarly,
		FIELD_NOTIFY_LATE:       user.NotifyLate,
		FIELD_CONTACTS:          EncodeContacts(user.Contacts, encodeRef),
	}

	if !user.LastCheckedIn.IsZero() {
		data[FIELD_LAST_CHECKED_IN] = user.LastCheckedIn
	}

	if user.PushToken != "" {
		data[FIELD_PUSH_TOKEN] = user.PushToken
	}

	return data
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// ParseRef accepts any stored form of a user reference: a document handle, a
// path string, or an object carrying a "path" field.
func ParseRef(raw interface{}) (ContactRef, error) {
	var ref ContactRef

	switch value := raw.(type) {
	case *firestore.DocumentRef:
		if value == nil {
			return ref, &fieldError{ENTRY_REFERENCE, "document reference", raw}
		}
		ref = RefByHandle(value)
	case string:
		ref = RefByPath(value)
	case map[string]interface{}:
		// Older clients wrote the reference as an object carrying its path
		path, ok := value["path"].(string)
		if !ok {
			return ref, &fieldError{ENTRY_REFERENCE + ".path", "string", value["path"]}
		}
		ref = RefByPath(path)
	default:
		return ref, &fieldError{ENTRY_REFERENCE, "document reference or path", raw}
	}

	if !ValidRef(ref) {
		return ref, fmt.Errorf("field %q: %q is not a users document", ENTRY_REFERENCE, ref.Path())
	}

	return ref, nil
}

func optString(data map[string]interface{}, field string) (string, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return "", nil
	}

	value, ok := raw.(string)
	if !ok {
		return "", &fieldError{field, "string", raw}
	}
	return value, nil
}

func optBool(data map[string]interface{}, field string, fallback bool) (bool, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return fallback, nil
	}

	value, ok := raw.(bool)
	if !ok {
		return false, &fieldError{field, "bool", raw}
	}
	return value, nil
}

// optSeconds reads a duration stored as a number of seconds
func optSeconds(data map[string]interface{}, field string) (time.Duration, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return 0, nil
	}

	var seconds float64
	switch value := raw.(type) {
	case int64:
		seconds = float64(value)
	case int:
		seconds = float64(value)
	case float64:
		seconds = value
	default:
		return 0, &fieldError{field, "number of seconds", raw}
	}

	if seconds < 0 {
		return 0, fmt.Errorf("field %q: must not be negative", field)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

func optTime(data map[string]interface{}, field string) (*time.Time, error) {
	raw, ok := data[field]
	if !ok || raw == nil {
		return nil, nil
	}

	value, ok := raw.(time.Time)
	if !ok {
		return nil, &fieldError{field, "timestamp", raw}
	}
	return &value, nil
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
