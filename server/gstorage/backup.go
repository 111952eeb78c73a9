// Package gstorage keeps backups of the users collection in google cloud storage.
package gstorage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Daskott/lifeline/server/logger"
	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/store"
	"github.com/pkg/errors"
)

var logg = logger.NewLogger()

// ObjectStore is satisfied by *GStorage
type ObjectStore interface {
	UploadObject(ctx context.Context, bucket, object string, r io.Reader) error
	DownloadObject(ctx context.Context, bucket, object string, w io.Writer) error
}

// UsersStore is what a backup reads from & a restore writes to
type UsersStore interface {
	store.Store
	store.Writer
}

// UsersBackup writes every user as one JSON line to bucket/prefix/users-<timestamp>.jsonl.
// Push tokens are left out.
type UsersBackup struct {
	store   UsersStore
	objects ObjectStore
	bucket  string
	prefix  string
	now     func() time.Time
}

func NewUsersBackup(st UsersStore, objects ObjectStore, bucket, prefix string) *UsersBackup {
	return &UsersBackup{
		store:   st,
		objects: objects,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ObjectName is where a backup taken at 'at' is stored
func (ub *UsersBackup) ObjectName(at time.Time) string {
	name := fmt.Sprintf("users-%s.jsonl", at.UTC().Format(time.RFC3339))
	if ub.prefix == "" {
		return name
	}
	return ub.prefix + "/" + name
}

// Run takes a backup, returning the object written & how many users it holds
func (ub *UsersBackup) Run(ctx context.Context) (string, int, error) {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	count := 0

	err := ub.store.ForEachUser(ctx, func(user *models.User) error {
		count++
		return encoder.Encode(user)
	})
	if err != nil {
		return "", 0, fmt.Errorf("UsersBackup: reading users: %v", err)
	}

	object := ub.ObjectName(ub.now())
	if err := ub.objects.UploadObject(ctx, ub.bucket, object, buf); err != nil {
		return "", 0, fmt.Errorf("UsersBackup: %v", err)
	}

	logg.Infof("backed up %d users to gs://%v/%v", count, ub.bucket, object)
	return object, count, nil
}

// Restore writes every user in backup 'object' back to the store, replacing
// documents with the same id. Push tokens already on record are kept since
// backups don't carry them. Returns how many users were written.
func (ub *UsersBackup) Restore(ctx context.Context, object string) (int, error) {
	buf := &bytes.Buffer{}
	if err := ub.objects.DownloadObject(ctx, ub.bucket, object, buf); err != nil {
		return 0, fmt.Errorf("UsersBackup: %w", err)
	}

	users := []*models.User{}
	scanner := bufio.NewScanner(buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}

		user := &models.User{}
		if err := json.Unmarshal(scanner.Bytes(), user); err != nil {
			return 0, fmt.Errorf("UsersBackup: %v line %d: %v", object, line, err)
		}
		if user.ID == "" {
			return 0, fmt.Errorf("UsersBackup: %v line %d: missing user id", object, line)
		}
		users = append(users, user)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("UsersBackup: reading %v: %v", object, err)
	}

	for i, user := range users {
		existing, err := ub.store.GetUser(ctx, user.ID)
		switch {
		case err == nil:
			user.PushToken = existing.PushToken
		case !errors.Is(err, store.ErrUserNotFound):
			return i, fmt.Errorf("UsersBackup: %v", err)
		}

		if err := ub.store.SaveUser(ctx, user); err != nil {
			return i, fmt.Errorf("UsersBackup: %v", err)
		}
	}

	logg.Infof("restored %d users from gs://%v/%v", len(users), ub.bucket, object)
	return len(users), nil
}
