package models

import (
	"time"
)

const DEFAULT_DISPLAY_NAME = "Someone"

// User is one person's document in the users collection, contacts embedded.
type User struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	PhoneNumber     string          `json:"phone_number,omitempty"`
	Note            string          `json:"note,omitempty"`
	CheckInInterval time.Duration   `json:"check_in_interval"`
	LastCheckedIn   time.Time       `json:"last_checked_in"`
	PushToken       string          `json:"-"`
	NotifyEarly     bool            `json:"notify_early"`
	NotifyLate      bool            `json:"notify_late"`
	Contacts        []*ContactEntry `json:"contacts"`
}

func (user *User) Ref() ContactRef {
	return RefForUser(user.ID)
}

func (user *User) DisplayName() string {
	if user.Name == "" {
		return DEFAULT_DISPLAY_NAME
	}
	return user.Name
}

// CanBeNotified reports whether a push token is on record
func (user *User) CanBeNotified() bool {
	return user.PushToken != ""
}

// HasDeadline reports whether the user has ever checked in with a usable interval
func (user *User) HasDeadline() bool {
	return !user.LastCheckedIn.IsZero() && user.CheckInInterval > 0
}

// Expiry is the check-in deadline i.e. lastCheckedIn + checkInInterval
func (user *User) Expiry() time.Time {
	return user.LastCheckedIn.Add(user.CheckInInterval)
}

// Contact returns the entry referencing 'ref', or nil
func (user *User) Contact(ref ContactRef) *ContactEntry {
	for _, entry := range user.Contacts {
		if entry.Ref.Matches(ref) {
			return entry
		}
	}
	return nil
}

// RemoveContact filters out every entry referencing 'ref' and reports whether any was found
func (user *User) RemoveContact(ref ContactRef) bool {
	kept := user.Contacts[:0]
	removed := false

	for _, entry := range user.Contacts {
		if entry.Ref.Matches(ref) {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}

	// Clear dangling pointers left past the new length
	for i := len(kept); i < len(user.Contacts); i++ {
		user.Contacts[i] = nil
	}
	user.Contacts = kept

	return removed
}

// Responders returns entries for contacts alerted when this user's check-in lapses
func (user *User) Responders() []*ContactEntry {
	responders := []*ContactEntry{}
	for _, entry := range user.Contacts {
		if entry.IsResponder {
			responders = append(responders, entry)
		}
	}
	return responders
}

func (user *User) Clone() *User {
	if user == nil {
		return nil
	}

	clone := *user
	clone.Contacts = make([]*ContactEntry, 0, len(user.Contacts))
	for _, entry := range user.Contacts {
		clone.Contacts = append(clone.Contacts, entry.Clone())
	}

	return &clone
}
