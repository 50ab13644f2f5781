package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically evicts cooldown state of calls that went quiet.
// Only needed when state outlives its session.
type Janitor struct {
	cron      *cron.Cron
	manager   *Manager
	retention time.Duration
	logger    *zap.Logger
}

// NewJanitor schedules eviction with a cron spec such as "@every 5m"
func NewJanitor(manager *Manager, schedule string, retention time.Duration, logger *zap.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:      cron.New(),
		manager:   manager,
		retention: retention,
		logger:    logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop halts the schedule and returns a context done once a running sweep finishes
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

// Sweep evicts idle state once
func (j *Janitor) Sweep() {
	evicted := j.manager.EvictIdle(j.retention)
	if j.logger != nil && evicted > 0 {
		j.logger.Info("🧹 Evicted idle cooldown state",
			zap.Int("evicted", evicted),
			zap.Int("remaining", j.manager.Len()),
		)
	}
}
