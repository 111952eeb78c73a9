package cron

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvery(t *testing.T) {
	scheduler := NewScheduler("America/Toronto")

	var runs atomic.Int32
	err := scheduler.Every(time.Hour, "scan", func() { runs.Add(1) })
	assert.Nil(t, err)
	assert.Equal(t, 1, scheduler.Len())

	scheduler.Start()
	defer scheduler.Stop()

	// Interval tasks run once right away on start
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduleFailures(t *testing.T) {
	scheduler := NewScheduler("Not/AZone")

	assert.NotNil(t, scheduler.Every(0, "scan", func() {}), "Should reject a zero interval")
	assert.NotNil(t, scheduler.Cron("every tuesday", "backup", func() {}), "Should reject an invalid cron expression")

	assert.Nil(t, scheduler.Every(time.Minute, "scan", func() {}))
	assert.NotNil(t, scheduler.Every(time.Minute, "scan", func() {}), "Should reject a duplicate tag")
}

func TestRemove(t *testing.T) {
	scheduler := NewScheduler("UTC")

	assert.Nil(t, scheduler.Cron("0 3 * * *", "backup", func() {}))
	assert.Equal(t, 1, scheduler.Len())

	assert.Nil(t, scheduler.Remove("backup"))
	assert.Equal(t, 0, scheduler.Len())
}
