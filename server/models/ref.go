package models

import (
	"encoding/json"
	"strings"

	"cloud.google.com/go/firestore"
)

const USERS_COLLECTION = "users"

// ContactRef points at another user's document. Documents written before
// references were stored as handles carry a plain path string instead, so a
// ref holds exactly one of the two forms.
type ContactRef struct {
	path   string
	handle *firestore.DocumentRef
}

// RefByPath builds a ref from a path string e.g. "users/abc", "/users/abc",
// "projects/p/databases/(default)/documents/users/abc" or a bare user id.
func RefByPath(path string) ContactRef {
	return ContactRef{path: path}
}

// RefByHandle builds a ref from a firestore document reference
func RefByHandle(handle *firestore.DocumentRef) ContactRef {
	return ContactRef{handle: handle}
}

// RefForUser builds the canonical ref for a user id
func RefForUser(userID string) ContactRef {
	return ContactRef{path: USERS_COLLECTION + "/" + userID}
}

// Handle returns the firestore reference the ref was built from, if any
func (ref ContactRef) Handle() *firestore.DocumentRef {
	return ref.handle
}

// Path returns the normalized "users/{id}" form, or "" for an empty ref.
func (ref ContactRef) Path() string {
	raw := ref.path
	if ref.handle != nil {
		raw = ref.handle.Path
	}

	return normalizePath(raw)
}

// UserID returns the id segment of the normalized path
func (ref ContactRef) UserID() string {
	path := ref.Path()
	if path == "" {
		return ""
	}

	return strings.TrimPrefix(path, USERS_COLLECTION+"/")
}

func (ref ContactRef) IsZero() bool {
	return ref.Path() == ""
}

// Matches reports whether both refs point at the same user document
func (ref ContactRef) Matches(other ContactRef) bool {
	path := ref.Path()
	return path != "" && path == other.Path()
}

func (ref ContactRef) String() string {
	return ref.Path()
}

// ValidRef reports whether the ref normalizes to exactly one users/{id} document
func ValidRef(ref ContactRef) bool {
	id := ref.UserID()
	return id != "" && !strings.Contains(id, "/")
}

func (ref ContactRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(ref.Path())
}

func (ref *ContactRef) UnmarshalJSON(data []byte) error {
	var path string
	if err := json.Unmarshal(data, &path); err != nil {
		return err
	}

	*ref = RefByPath(path)
	return nil
}

func normalizePath(raw string) string {
	path := strings.TrimSpace(raw)
	if idx := strings.Index(path, "/documents/"); idx >= 0 {
		path = path[idx+len("/documents/"):]
	}
	path = strings.Trim(path, "/")

	if path == "" {
		return ""
	}

	// A bare id is shorthand for a document in the users collection
	if !strings.Contains(path, "/") {
		return USERS_COLLECTION + "/" + path
	}

	return path
}
