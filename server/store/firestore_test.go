package store

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Daskott/lifeline/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorClient connects to the firestore emulator, skipping the test when
// FIRESTORE_EMULATOR_HOST isn't set
func newEmulatorClient(t *testing.T) *firestore.Client {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "lifeline-test")
	require.Nil(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestFirestoreStoreUpdatePair(t *testing.T) {
	ctx := context.Background()
	client := newEmulatorClient(t)
	fs := NewFirestoreStore(client)

	// Unique ids keep runs against a shared emulator apart
	tonyID, peterID := "tony-"+uuid.NewString(), "peter-"+uuid.NewString()
	require.Nil(t, fs.SaveUser(ctx, &models.User{ID: tonyID, Name: "Tony Stark", PushToken: "tony-device"}))
	require.Nil(t, fs.SaveUser(ctx, &models.User{ID: peterID, Name: "Peter Parker"}))

	now := time.Now().UTC().Truncate(time.Microsecond)
	err := fs.UpdatePair(ctx, tonyID, peterID, func(a, b *models.User) error {
		aEntry, bEntry := models.NewContactPair(a.Ref(), b.Ref(), false, true, now)
		aEntry.OutgoingPingTimestamp = &now
		a.Contacts = append(a.Contacts, aEntry)
		b.Contacts = append(b.Contacts, bEntry)
		return nil
	})
	require.Nil(t, err)

	tony, err := fs.GetUser(ctx, tonyID)
	require.Nil(t, err)
	require.Len(t, tony.Contacts, 1)
	assert.Equal(t, peterID, tony.Contacts[0].Ref.UserID())
	assert.NotNil(t, tony.Contacts[0].Ref.Handle(), "refs should be stored as document references")
	assert.True(t, tony.Contacts[0].IsDependent)
	require.NotNil(t, tony.Contacts[0].OutgoingPingTimestamp)
	assert.True(t, now.Equal(*tony.Contacts[0].OutgoingPingTimestamp))
	assert.Equal(t, "tony-device", tony.PushToken)

	peter, err := fs.GetUser(ctx, peterID)
	require.Nil(t, err)
	require.Len(t, peter.Contacts, 1)
	assert.True(t, peter.Contacts[0].IsResponder)
}

func TestFirestoreStoreUpdateUser(t *testing.T) {
	ctx := context.Background()
	client := newEmulatorClient(t)
	fs := NewFirestoreStore(client)

	id := "strange-" + uuid.NewString()
	require.Nil(t, fs.SaveUser(ctx, &models.User{ID: id, PushToken: "old-device"}))

	checkedIn := time.Now().UTC().Truncate(time.Microsecond)
	err := fs.UpdateUser(ctx, id, func(user *models.User) error {
		user.LastCheckedIn = checkedIn
		user.PushToken = ""
		return nil
	})
	require.Nil(t, err)

	user, err := fs.GetUser(ctx, id)
	require.Nil(t, err)
	assert.True(t, checkedIn.Equal(user.LastCheckedIn))
	assert.False(t, user.CanBeNotified())

	_, err = fs.GetUser(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFirestoreDiscoveryIndex(t *testing.T) {
	ctx := context.Background()
	fi := NewFirestoreDiscoveryIndex(newEmulatorClient(t))

	token, err := fi.Issue(ctx, "tony")
	require.Nil(t, err)

	userID, err := fi.Resolve(ctx, token)
	require.Nil(t, err)
	assert.Equal(t, "tony", userID)

	_, err = fi.Resolve(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
