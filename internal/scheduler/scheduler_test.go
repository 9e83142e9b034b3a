package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRunsUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(ctx, 5*time.Millisecond)

	runs := 0
	done := make(chan struct{})
	go func() {
		s.Start(func() {
			runs++
			if runs >= 3 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	assert.GreaterOrEqual(t, runs, 3)
}

func TestSchedulerRunImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(ctx, time.Hour)

	ran := make(chan struct{}, 1)
	go s.Start(func() {
		ran <- struct{}{}
		cancel()
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("first tick did not run immediately")
	}
}

func TestSchedulerRejectsInvalidInterval(t *testing.T) {
	s := NewIntervalScheduler(context.Background(), 0)
	done := make(chan struct{})
	go func() {
		s.Start(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler with zero interval should return immediately")
	}
	assert.Zero(t, s.Interval)
}
