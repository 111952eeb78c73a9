package server

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Daskott/lifeline/server/auth/key"
	"github.com/Daskott/lifeline/server/gstorage"
	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/push"
	"github.com/Daskott/lifeline/server/reminders"
	"github.com/Daskott/lifeline/server/store"
	"github.com/Daskott/lifeline/server/twilio"
	"github.com/Daskott/lifeline/shared"
	"google.golang.org/api/option"
)

// Dependencies are the external collaborators the server & CLI commands run against
type Dependencies struct {
	Store     store.Store
	Discovery store.DiscoveryIndex
	Notifier  push.Notifier
	KeyPair   *key.KeyPair

	// SMS is nil unless twilio is enabled
	SMS reminders.SMSSender
	// Backup is nil unless storage backups are enabled
	Backup *gstorage.UsersBackup

	closers []func() error
}

// NewDependencies connects to firestore, FCM, twilio & cloud storage as configured.
// In dev mode everything is kept in memory & notifications are only logged.
func NewDependencies(ctx context.Context, config *shared.ServerConfig, devMode bool) (*Dependencies, error) {
	keyPair, err := key.LoadKeyPair(config.Lifeline.PrivateKeyPem)
	if err != nil {
		return nil, fmt.Errorf("NewDependencies: %v", err)
	}

	deps := &Dependencies{KeyPair: keyPair}

	if config.Twilio.Enabled {
		deps.SMS = twilio.NewClient(config.Twilio)
	}

	if devMode {
		memoryStore, discovery := store.NewMemoryStore(), store.NewMemoryDiscoveryIndex()
		seedDevUsers(memoryStore, discovery)

		deps.Store, deps.Discovery = memoryStore, discovery
		deps.Notifier = push.LogNotifier{}
		return deps, nil
	}

	var opts []option.ClientOption
	if config.Google.ApplicationCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(config.Google.ApplicationCredentials))
	}

	client, err := firestore.NewClient(ctx, config.Google.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewDependencies: firestore: %v", err)
	}
	deps.closers = append(deps.closers, client.Close)

	firestoreStore := store.NewFirestoreStore(client)
	deps.Store = firestoreStore
	deps.Discovery = store.NewFirestoreDiscoveryIndex(client)

	deps.Notifier, err = push.NewFCMNotifier(ctx, config.Google.ProjectID, config.Google.ApplicationCredentials)
	if err != nil {
		deps.Close()
		return nil, err
	}

	if config.Google.Storage.EnableBackup {
		gStorage, err := gstorage.NewGStorage(ctx, config.Google.ApplicationCredentials)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, gStorage.Close)
		deps.Backup = gstorage.NewUsersBackup(firestoreStore, gStorage, config.Google.Storage.Bucket, config.Google.Storage.Prefix)
	}

	return deps, nil
}

func (deps *Dependencies) Close() {
	for i := len(deps.closers) - 1; i >= 0; i-- {
		if err := deps.closers[i](); err != nil {
			logg.Warnf("error closing dependency: %v", err)
		}
	}
	deps.closers = nil
}

// seedDevUsers gives dev mode two users that can add each other
func seedDevUsers(memoryStore *store.MemoryStore, discovery *store.MemoryDiscoveryIndex) {
	for _, user := range []*models.User{
		{ID: "dev-user-1", Name: "Tony Stark", PushToken: "dev-device-1"},
		{ID: "dev-user-2", Name: "Peter Parker", PushToken: "dev-device-2"},
	} {
		memoryStore.PutUser(user)
		discovery.Put(user.ID+"-token", user.ID)
		logg.Infof("dev user %v can be added with discovery token %v", user.ID, user.ID+"-token")
	}
}
