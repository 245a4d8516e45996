package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriggerFiresRepeatedly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	trigger := NewTrigger("test", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	go trigger.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)
}

func TestTriggerDropsOverlappingFirings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	var started atomic.Int32
	trigger := NewTrigger("slow", 5*time.Millisecond, func(context.Context) error {
		started.Add(1)
		<-release
		return nil
	})
	go trigger.Start(ctx)

	// Let many intervals elapse while the first run is stuck.
	assert.Eventually(t, func() bool { return started.Load() == 1 },
		2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), started.Load(), "overlapping firings must be dropped, not queued")

	close(release)
	assert.Eventually(t, func() bool { return started.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)
}

func TestTriggerSurvivesRunFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	trigger := NewTrigger("failing", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("cycle failed")
	})
	go trigger.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 },
		2*time.Second, 5*time.Millisecond)
}

func TestTriggerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var runs atomic.Int32
	trigger := NewTrigger("stopping", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	done := make(chan struct{})
	go func() {
		trigger.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 },
		2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger loop did not stop after cancel")
	}

	// Let any firing launched just before the cancel finish.
	time.Sleep(50 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, runs.Load(), "no firings after the loop stopped")
}
