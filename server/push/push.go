package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/Daskott/lifeline/server/logger"
	"google.golang.org/api/option"
)

var logg = logger.NewLogger()

type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier delivers a notification to one device token. Delivery is fire & forget,
// there's no retry.
type Notifier interface {
	Notify(ctx context.Context, token string, notification Notification) error
}

// FCMNotifier sends through firebase cloud messaging
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(ctx context.Context, projectID, credentialsFilePath string) (*FCMNotifier, error) {
	var opts []option.ClientOption
	if credentialsFilePath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFilePath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewFCMNotifier: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewFCMNotifier: %v", err)
	}

	return &FCMNotifier{client: client}, nil
}

func (fn *FCMNotifier) Notify(ctx context.Context, token string, notification Notification) error {
	msgID, err := fn.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
	})
	if err != nil {
		return fmt.Errorf("FCMNotifier.Notify: %v", err)
	}

	logg.Debugf("sent %q notification, message id=%v", notification.Title, msgID)
	return nil
}

// LogNotifier only logs notifications, for running without firebase credentials
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, token string, notification Notification) error {
	logg.Infof("[push] to=%v title=%q body=%q data=%v", token, notification.Title, notification.Body, notification.Data)
	return nil
}
