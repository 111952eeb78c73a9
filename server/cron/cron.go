// Package cron runs lifeline's periodic tasks i.e. the reminder scan & storage backups.
package cron

import (
	"fmt"
	"time"

	"github.com/Daskott/lifeline/server/logger"
	"github.com/go-co-op/gocron"
)

var logg = logger.NewLogger()

// Scheduler wraps gocron. Tags are unique & a task never overlaps with
// its own previous run.
type Scheduler struct {
	cronScheduler *gocron.Scheduler
}

// NewScheduler creates a scheduler in 'timeZone', falling back to UTC when the zone
// can't be loaded
func NewScheduler(timeZone string) *Scheduler {
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		logg.Warnf("unable to load time zone %q, using UTC: %v", timeZone, err)
		location = time.UTC
	}

	cronScheduler := gocron.NewScheduler(location)
	cronScheduler.TagsUnique()

	return &Scheduler{cronScheduler: cronScheduler}
}

// Every runs 'task' every 'interval', starting as soon as the scheduler starts
func (s *Scheduler) Every(interval time.Duration, tag string, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("Every: interval must be positive, got %v", interval)
	}

	_, err := s.cronScheduler.Every(interval).Tag(tag).SingletonMode().Do(task)
	if err != nil {
		return fmt.Errorf("Every: unable to schedule %v: %v", tag, err)
	}

	return nil
}

// Cron runs 'task' on the given cron 'expression' e.g. "0 3 * * *"
func (s *Scheduler) Cron(expression, tag string, task func()) error {
	_, err := s.cronScheduler.Cron(expression).Tag(tag).SingletonMode().Do(task)
	if err != nil {
		return fmt.Errorf("Cron: unable to schedule %v with %q: %v", tag, expression, err)
	}

	return nil
}

func (s *Scheduler) Remove(tag string) error {
	return s.cronScheduler.RemoveByTag(tag)
}

func (s *Scheduler) Start() {
	logg.Info("Starting cron scheduler")
	s.cronScheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	logg.Info("Stopping cron scheduler")
	s.cronScheduler.Stop()
}

// Len returns the number of scheduled tasks
func (s *Scheduler) Len() int {
	return s.cronScheduler.Len()
}
