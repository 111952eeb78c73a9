package models

import "time"

// ContactEntry is one edge of a relationship, stored on the owner's document.
// The other side of the edge holds a mirrored entry with the roles swapped.
type ContactEntry struct {
	Ref ContactRef `json:"reference"`

	// IsResponder: this contact is alerted when the owner's check-in lapses
	IsResponder bool `json:"is_responder"`
	// IsDependent: the owner is alerted when this contact's check-in lapses
	IsDependent bool `json:"is_dependent"`

	SendPings       bool `json:"send_pings"`
	ReceivePings    bool `json:"receive_pings"`
	NotifyOnCheckIn bool `json:"notify_on_check_in"`
	NotifyOnExpiry  bool `json:"notify_on_expiry"`

	Nickname string `json:"nickname,omitempty"`
	Notes    string `json:"notes,omitempty"`

	LastUpdated           time.Time  `json:"last_updated"`
	IncomingPingTimestamp *time.Time `json:"incoming_ping_timestamp"`
	OutgoingPingTimestamp *time.Time `json:"outgoing_ping_timestamp"`
}

// NewContactEntry builds an entry with default preferences: pings enabled both ways,
// check-in & expiry notifications following the responder role.
func NewContactEntry(ref ContactRef, isResponder, isDependent bool, now time.Time) *ContactEntry {
	return &ContactEntry{
		Ref:             ref,
		IsResponder:     isResponder,
		IsDependent:     isDependent,
		SendPings:       true,
		ReceivePings:    true,
		NotifyOnCheckIn: isResponder,
		NotifyOnExpiry:  isResponder,
		LastUpdated:     now,
	}
}

// NewContactPair builds the two mirrored entries for a new relationship between
// owner & contact. 'isResponder' & 'isDependent' describe contact from owner's side.
func NewContactPair(owner, contact ContactRef, isResponder, isDependent bool, now time.Time) (ownerEntry, contactEntry *ContactEntry) {
	ownerEntry = NewContactEntry(contact, isResponder, isDependent, now)
	contactEntry = NewContactEntry(owner, isDependent, isResponder, now)
	return ownerEntry, contactEntry
}

// SetRoles sets both role flags & refreshes lastUpdated
func (entry *ContactEntry) SetRoles(isResponder, isDependent bool, now time.Time) {
	entry.IsResponder = isResponder
	entry.IsDependent = isDependent
	entry.LastUpdated = now
}

func (entry *ContactEntry) HasIncomingPing() bool {
	return entry.IncomingPingTimestamp != nil
}

func (entry *ContactEntry) HasOutgoingPing() bool {
	return entry.OutgoingPingTimestamp != nil
}

func (entry *ContactEntry) Clone() *ContactEntry {
	if entry == nil {
		return nil
	}

	clone := *entry
	clone.IncomingPingTimestamp = cloneTime(entry.IncomingPingTimestamp)
	clone.OutgoingPingTimestamp = cloneTime(entry.OutgoingPingTimestamp)

	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
