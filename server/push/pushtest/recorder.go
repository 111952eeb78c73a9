// Package pushtest provides a recording push.Notifier for tests.
package pushtest

import (
	"context"
	"sync"

	"github.com/Daskott/lifeline/server/push"
)

type Sent struct {
	Token        string
	Notification push.Notification
}

// Recorder records every notification it's asked to deliver. Tokens listed in
// FailTokens fail with Err.
type Recorder struct {
	mu         sync.Mutex
	sent       []Sent
	FailTokens map[string]bool
	Err        error
}

func (r *Recorder) Notify(ctx context.Context, token string, notification push.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailTokens[token] {
		return r.Err
	}

	r.sent = append(r.sent, Sent{Token: token, Notification: notification})
	return nil
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Sent(nil), r.sent...)
}

// SentTo returns notifications delivered to 'token'
func (r *Recorder) SentTo(token string) []push.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	notifications := []push.Notification{}
	for _, s := range r.sent {
		if s.Token == token {
			notifications = append(notifications, s.Notification)
		}
	}
	return notifications
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = nil
}
