package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Daskott/lifeline/server/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MemoryStore keeps users in process memory. Used in dev mode & tests.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*models.User)}
}

// PutUser creates or replaces a user
func (ms *MemoryStore) PutUser(user *models.User) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.users[user.ID] = user.Clone()
}

func (ms *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	ms.PutUser(user)
	return nil
}

func (ms *MemoryStore) DeleteUser(id string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.users, id)
}

func (ms *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	user, ok := ms.users[id]
	if !ok {
		return nil, errors.Wrapf(ErrUserNotFound, "users/%s", id)
	}

	return user.Clone(), nil
}

func (ms *MemoryStore) UpdateUser(ctx context.Context, id string, fn UserFn) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	user := ms.users[id].Clone()
	if err := fn(user); err != nil {
		return err
	}

	if user != nil {
		ms.users[id] = user
	}

	return nil
}

func (ms *MemoryStore) UpdatePair(ctx context.Context, aID, bID string, fn PairFn) error {
	if aID == bID {
		return ErrSameUser
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	a, b := ms.users[aID].Clone(), ms.users[bID].Clone()
	if err := fn(a, b); err != nil {
		return err
	}

	if a != nil {
		ms.users[aID] = a
	}
	if b != nil {
		ms.users[bID] = b
	}

	return nil
}

// ForEachUser calls fn with a copy of every user, in id order
func (ms *MemoryStore) ForEachUser(ctx context.Context, fn func(user *models.User) error) error {
	ms.mu.Lock()
	ids := make([]string, 0, len(ms.users))
	for id := range ms.users {
		ids = append(ids, id)
	}
	ms.mu.Unlock()

	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		user, err := ms.GetUser(ctx, id)
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		if err != nil {
			return err
		}

		if err := fn(user); err != nil {
			return err
		}
	}

	return nil
}

// MemoryDiscoveryIndex is an in-process DiscoveryIndex
type MemoryDiscoveryIndex struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewMemoryDiscoveryIndex() *MemoryDiscoveryIndex {
	return &MemoryDiscoveryIndex{tokens: make(map[string]string)}
}

// Put maps 'token' to 'userID'
func (mi *MemoryDiscoveryIndex) Put(token, userID string) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	mi.tokens[token] = userID
}

func (mi *MemoryDiscoveryIndex) Resolve(ctx context.Context, token string) (string, error) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	userID, ok := mi.tokens[token]
	if !ok {
		return "", ErrTokenNotFound
	}

	return userID, nil
}

func (mi *MemoryDiscoveryIndex) Issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	mi.Put(token, userID)

	return token, nil
}
