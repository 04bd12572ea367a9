// Package jobs runs the periodic background work of the server
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 30 * time.Second

// IndexRefresher rebuilds the cached home page
type IndexRefresher interface {
	RefreshIndex(ctx context.Context) error
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron    *cron.Cron
	indexer IndexRefresher
	logger  *logrus.Logger
}

// NewScheduler registers the index refresh on indexSpec. Schedules take a
// seconds field or a descriptor such as "@every 10m".
func NewScheduler(indexSpec string, indexer IndexRefresher, logger *logrus.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cronLogger := cron.VerbosePrintfLogger(logger.WithField("component", "cron"))

	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	s := &Scheduler{cron: c, indexer: indexer, logger: logger}
	if _, err := s.cron.AddFunc(indexSpec, s.RefreshIndex); err != nil {
		return nil, fmt.Errorf("failed to register index refresh job: %w", err)
	}
	return s, nil
}

// RefreshIndex runs the index refresh job once
func (s *Scheduler) RefreshIndex() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.indexer.RefreshIndex(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to refresh home page index")
		return
	}
	s.logger.WithField("took", time.Since(start).String()).Debug("Home page index refreshed")
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Cron scheduler stop timed out")
	}
}

// Entries is the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
