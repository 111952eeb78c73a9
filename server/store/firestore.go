package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Daskott/lifeline/server/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const DISCOVERY_COLLECTION = "discoveryIndex"

// FirestoreStore keeps users in the firestore users collection. Paired updates
// run in a single transaction, so both documents commit or neither does.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (fs *FirestoreStore) users() *firestore.CollectionRef {
	return fs.client.Collection(models.USERS_COLLECTION)
}

// encodeRef writes refs back as document handles
func (fs *FirestoreStore) encodeRef(ref models.ContactRef) interface{} {
	return fs.client.Doc(ref.Path())
}

// SaveUser creates or replaces a user document
func (fs *FirestoreStore) SaveUser(ctx context.Context, user *models.User) error {
	_, err := fs.users().Doc(user.ID).Set(ctx, models.EncodeUser(user, fs.encodeRef))
	if err != nil {
		return errors.Wrapf(err, "while writing users/%s", user.ID)
	}
	return nil
}

func (fs *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	snap, err := fs.users().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, errors.Wrapf(ErrUserNotFound, "users/%s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "while retrieving users/%s", id)
	}

	return parseSnapshot(snap)
}

func (fs *FirestoreStore) UpdateUser(ctx context.Context, id string, fn UserFn) error {
	docRef := fs.users().Doc(id)

	return fs.client.RunTransaction(ctx, func(ctx context.Context, txn *firestore.Transaction) error {
		snaps, err := txn.GetAll([]*firestore.DocumentRef{docRef})
		if err != nil {
			return errors.Wrapf(err, "while reading users/%s", id)
		}

		user, err := userOrNil(snaps[0])
		if err != nil {
			return err
		}

		// The transaction function can run more than once, keep the original untouched
		original := user.Clone()
		if err := fn(user); err != nil {
			return err
		}

		if user == nil {
			return nil
		}

		return txn.Update(docRef, fs.userUpdates(original, user))
	})
}

func (fs *FirestoreStore) UpdatePair(ctx context.Context, aID, bID string, fn PairFn) error {
	if aID == bID {
		return ErrSameUser
	}

	aRef, bRef := fs.users().Doc(aID), fs.users().Doc(bID)

	return fs.client.RunTransaction(ctx, func(ctx context.Context, txn *firestore.Transaction) error {
		snaps, err := txn.GetAll([]*firestore.DocumentRef{aRef, bRef})
		if err != nil {
			return errors.Wrapf(err, "while reading users/%s & users/%s", aID, bID)
		}

		a, err := userOrNil(snaps[0])
		if err != nil {
			return err
		}

		b, err := userOrNil(snaps[1])
		if err != nil {
			return err
		}

		if err := fn(a, b); err != nil {
			return err
		}

		if a != nil {
			if err := txn.Update(aRef, fs.contactsUpdate(a)); err != nil {
				return errors.Wrapf(err, "while updating users/%s", aID)
			}
		}

		if b != nil {
			if err := txn.Update(bRef, fs.contactsUpdate(b)); err != nil {
				return errors.Wrapf(err, "while updating users/%s", bID)
			}
		}

		return nil
	})
}

// ForEachUser walks the whole users collection. Documents that fail to parse are
// logged & skipped so one bad document doesn't hide the rest.
func (fs *FirestoreStore) ForEachUser(ctx context.Context, fn func(user *models.User) error) error {
	iter := fs.users().Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Wrap(err, "while iterating users")
		}

		user, err := parseSnapshot(snap)
		if err != nil {
			logg.Warnf("skipping users/%s: %v", snap.Ref.ID, err)
			continue
		}

		if err := fn(user); err != nil {
			return err
		}
	}

	return nil
}

func (fs *FirestoreStore) contactsUpdate(user *models.User) []firestore.Update {
	return []firestore.Update{
		{Path: models.FIELD_CONTACTS, Value: models.EncodeContacts(user.Contacts, fs.encodeRef)},
	}
}

// userUpdates returns the contacts update plus any changed top-level field
func (fs *FirestoreStore) userUpdates(original, user *models.User) []firestore.Update {
	updates := fs.contactsUpdate(user)

	if !user.LastCheckedIn.Equal(original.LastCheckedIn) {
		updates = append(updates, firestore.Update{Path: models.FIELD_LAST_CHECKED_IN, Value: user.LastCheckedIn})
	}

	if user.PushToken != original.PushToken {
		var value interface{} = user.PushToken
		if user.PushToken == "" {
			value = firestore.Delete
		}
		updates = append(updates, firestore.Update{Path: models.FIELD_PUSH_TOKEN, Value: value})
	}

	return updates
}

// FirestoreDiscoveryIndex keeps discovery tokens as documents keyed by token
type FirestoreDiscoveryIndex struct {
	client *firestore.Client
}

func NewFirestoreDiscoveryIndex(client *firestore.Client) *FirestoreDiscoveryIndex {
	return &FirestoreDiscoveryIndex{client: client}
}

func (fi *FirestoreDiscoveryIndex) Resolve(ctx context.Context, token string) (string, error) {
	snap, err := fi.client.Collection(DISCOVERY_COLLECTION).Doc(token).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "while resolving discovery token")
	}

	ref, err := models.ParseRef(snap.Data()["user"])
	if err != nil {
		return "", errors.Wrapf(err, "discoveryIndex/%s", token)
	}

	return ref.UserID(), nil
}

func (fi *FirestoreDiscoveryIndex) Issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()

	_, err := fi.client.Collection(DISCOVERY_COLLECTION).Doc(token).Create(ctx, map[string]interface{}{
		"user":      fi.client.Doc(models.RefForUser(userID).Path()),
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		return "", errors.Wrap(err, "while storing discovery token")
	}

	return token, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func parseSnapshot(snap *firestore.DocumentSnapshot) (*models.User, error) {
	user, err := models.ParseUser(snap.Ref.ID, snap.Data())
	if err != nil {
		return nil, errors.Wrapf(err, "while parsing users/%s", snap.Ref.ID)
	}
	return user, nil
}

func userOrNil(snap *firestore.DocumentSnapshot) (*models.User, error) {
	if !snap.Exists() {
		return nil, nil
	}
	return parseSnapshot(snap)
}
