// Package reminders scans every user on a fixed cadence, reminding users whose
// check-in deadline is close & alerting responders of users whose deadline passed.
package reminders

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Daskott/lifeline/server/logger"
	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/push"
	"github.com/Daskott/lifeline/server/store"
	"github.com/Daskott/lifeline/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var logg = logger.NewLogger()

// SMSSender delivers a text message. Satisfied by *twilio.ClientWrapper.
type SMSSender interface {
	SendMessage(to, msg string) error
}

type Config struct {
	// ScanInterval is the cadence Scan is run on. It is also the width of
	// each reminder window, so every deadline lands in exactly one scan's window.
	ScanInterval time.Duration
	EarlyLead    time.Duration
	LateLead     time.Duration
	Concurrency  int
}

// ConfigFrom reads scanner settings off the server config
func ConfigFrom(config *shared.ServerConfig) Config {
	return Config{
		ScanInterval: config.Lifeline.Cron.ScanInterval,
		EarlyLead:    config.Lifeline.Reminders.EarlyLead,
		LateLead:     config.Lifeline.Reminders.LateLead,
		Concurrency:  config.Lifeline.Reminders.Concurrency,
	}
}

func (c Config) withDefaults() Config {
	if c.ScanInterval <= 0 {
		c.ScanInterval = shared.DEFAULT_SCAN_INTERVAL
	}
	if c.EarlyLead <= 0 {
		c.EarlyLead = shared.DEFAULT_EARLY_LEAD
	}
	if c.LateLead <= 0 {
		c.LateLead = shared.DEFAULT_LATE_LEAD
	}
	if c.Concurrency <= 0 {
		c.Concurrency = shared.DEFAULT_CONCURRENCY
	}
	return c
}

// ScanStats counts what one Scan did
type ScanStats struct {
	Scanned   int64
	Skipped   int64
	Reminders int64
	Alerts    int64
	Failures  int64
}

func (s ScanStats) String() string {
	return fmt.Sprintf("scanned=%d skipped=%d reminders=%d alerts=%d failures=%d",
		s.Scanned, s.Skipped, s.Reminders, s.Alerts, s.Failures)
}

type counters struct {
	scanned, skipped, reminders, alerts, failures atomic.Int64
}

func (c *counters) snapshot() ScanStats {
	return ScanStats{
		Scanned:   c.scanned.Load(),
		Skipped:   c.skipped.Load(),
		Reminders: c.reminders.Load(),
		Alerts:    c.alerts.Load(),
		Failures:  c.failures.Load(),
	}
}

type Scanner struct {
	store    store.Store
	notifier push.Notifier
	sms      SMSSender
	config   Config
	now      func() time.Time
}

type ScannerOpt func(*Scanner)

// WithSMS also texts expiry alerts to responders with a phone number
func WithSMS(sms SMSSender) ScannerOpt {
	return func(s *Scanner) {
		s.sms = sms
	}
}

func WithClock(now func() time.Time) ScannerOpt {
	return func(s *Scanner) {
		s.now = now
	}
}

func NewScanner(st store.Store, notifier push.Notifier, config Config, opts ...ScannerOpt) *Scanner {
	scanner := &Scanner{
		store:    st,
		notifier: notifier,
		config:   config.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(scanner)
	}

	return scanner
}

// Scan runs one pass over every user. Failures for one user are logged & counted,
// they never stop the pass. The returned error is only for the pass as a whole
// e.g. the user listing failed or ctx was cancelled.
func (s *Scanner) Scan(ctx context.Context) (ScanStats, error) {
	ctx, span := otel.Tracer("lifeline/server/reminders").Start(ctx, "Scanner.Scan")
	defer span.End()

	now := s.now()
	stats := &counters{}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(s.config.Concurrency))

	listErr := s.store.ForEachUser(ctx, func(user *models.User) error {
		if err := sem.Acquire(egCtx, 1); err != nil {
			return fmt.Errorf("while acquiring concurrency limiter semaphore: %w", err)
		}

		eg.Go(func() error {
			defer sem.Release(1)
			s.scanUser(egCtx, user, now, stats)
			return nil
		})
		return nil
	})

	// Wait even when listing failed, some users may still be in flight
	waitErr := eg.Wait()
	result := stats.snapshot()

	span.SetAttributes(
		attribute.Int64("scanned", result.Scanned),
		attribute.Int64("reminders", result.Reminders),
		attribute.Int64("alerts", result.Alerts),
		attribute.Int64("failures", result.Failures),
	)

	if listErr != nil {
		span.RecordError(listErr)
		return result, fmt.Errorf("while listing users: %w", listErr)
	}
	if waitErr != nil {
		return result, fmt.Errorf("while waiting for completion of errgroup: %w", waitErr)
	}

	return result, nil
}

func (s *Scanner) scanUser(ctx context.Context, user *models.User, now time.Time, stats *counters) {
	stats.scanned.Add(1)

	if !user.CanBeNotified() {
		logg.Warnf("user %v has no push token, skipping", user.ID)
		stats.skipped.Add(1)
		return
	}

	if !user.HasDeadline() {
		stats.skipped.Add(1)
		return
	}

	expiry := user.Expiry()
	timeLeft := expiry.Sub(now)

	if user.NotifyEarly && s.inWindow(timeLeft, s.config.EarlyLead) {
		s.remind(ctx, user, s.config.EarlyLead, stats)
	}

	if user.NotifyLate && s.inWindow(timeLeft, s.config.LateLead) {
		s.remind(ctx, user, s.config.LateLead, stats)
	}

	if now.After(expiry) {
		s.alertResponders(ctx, user, stats)
	}
}

// inWindow reports whether 'timeLeft' is in (lead - ScanInterval, lead]. Windows
// as wide as the cadence tile the timeline, so consecutive scans can't both match.
func (s *Scanner) inWindow(timeLeft, lead time.Duration) bool {
	return InWindow(timeLeft, lead, s.config.ScanInterval)
}

func InWindow(timeLeft, lead, width time.Duration) bool {
	return timeLeft > lead-width && timeLeft <= lead
}

func (s *Scanner) remind(ctx context.Context, user *models.User, lead time.Duration, stats *counters) {
	if err := s.notifier.Notify(ctx, user.PushToken, push.ReminderNotification(lead)); err != nil {
		logg.Errorf("failed to send %v reminder to user %v: %v", lead, user.ID, err)
		stats.failures.Add(1)
		return
	}

	stats.reminders.Add(1)
}

// alertResponders notifies every responder of 'user'. Runs on every scan until
// the user checks in again.
func (s *Scanner) alertResponders(ctx context.Context, user *models.User, stats *counters) {
	name := user.DisplayName()
	notification := push.ExpiryAlertNotification(name, user.ID)

	for _, entry := range user.Responders() {
		responder, err := s.store.GetUser(ctx, entry.Ref.UserID())
		if err != nil {
			logg.Errorf("unable to load responder %v of user %v: %v", entry.Ref, user.ID, err)
			stats.failures.Add(1)
			continue
		}

		if s.sms != nil && responder.PhoneNumber != "" {
			if err := s.sms.SendMessage(responder.PhoneNumber, push.ExpiryAlertSMS(name)); err != nil {
				logg.Errorf("failed to text responder %v of user %v: %v", entry.Ref, user.ID, err)
				stats.failures.Add(1)
			}
		}

		if !responder.CanBeNotified() {
			logg.Warnf("responder %v of user %v has no push token", entry.Ref, user.ID)
			continue
		}

		if err := s.notifier.Notify(ctx, responder.PushToken, notification); err != nil {
			logg.Errorf("failed to alert responder %v of user %v: %v", entry.Ref, user.ID, err)
			stats.failures.Add(1)
			continue
		}

		stats.alerts.Add(1)
	}
}
