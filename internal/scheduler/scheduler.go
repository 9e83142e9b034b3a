// Package scheduler drives the engine tick. Ticks run strictly one after
// another: the next wait only starts once the task returns.
package scheduler

import (
	"context"
	"time"

	"vectra/internal/logger"
)

type IntervalScheduler struct {
	Interval       time.Duration
	RunImmediately bool

	ctx context.Context
}

func NewIntervalScheduler(ctx context.Context, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{Interval: interval, RunImmediately: true, ctx: ctx}
}

// Start blocks until the context is done.
func (s *IntervalScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("IntervalScheduler: task is nil, exit")
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("IntervalScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	logger.Infof("IntervalScheduler: started interval=%s run_immediately=%v", s.Interval, s.RunImmediately)

	if s.RunImmediately {
		task()
	}
	timer := time.NewTimer(s.Interval)
	defer timer.Stop()
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("IntervalScheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
		timer.Reset(s.Interval)
	}
}
