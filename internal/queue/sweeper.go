package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/bonjohen/gistqueue/internal/common"
	"github.com/bonjohen/gistqueue/internal/interfaces"
	"github.com/bonjohen/gistqueue/internal/models"
)

// Sweeper periodically purges completed messages older than the retention
// threshold across all queues. One loop may run per process; each pass
// isolates per-queue failures so one broken queue never aborts the sweep.
type Sweeper struct {
	dir    *Directory
	store  *Store
	logger arbor.ILogger

	thresholdDays int
	interval      time.Duration
	schedule      string // optional cron expression; replaces the fixed interval

	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	cron     *cron.Cron
}

// NewSweeper creates a retention sweeper from configuration
func NewSweeper(dir *Directory, store *Store, config *common.Config, logger arbor.ILogger) *Sweeper {
	return &Sweeper{
		dir:           dir,
		store:         store,
		logger:        logger,
		thresholdDays: config.Cleanup.ThresholdDays,
		interval:      config.Cleanup.Interval,
		schedule:      config.Cleanup.Schedule,
	}
}

// CleanupQueue purges one queue. Returns the number of messages removed,
// or -1 when the cleanup failed.
func (s *Sweeper) CleanupQueue(ctx context.Context, name string) int {
	removed, err := s.store.PurgeCompleted(ctx, models.ByName(name), s.thresholdDays)
	if err != nil {
		s.logger.Error().Err(err).Str("queue", name).Msg("Failed to clean up queue")
		return -1
	}
	if removed > 0 {
		s.logger.Info().Str("queue", name).Int("removed", removed).Msg("Queue cleaned up")
	}
	return removed
}

// CleanupAllQueues purges every queue, returning removed counts per queue
// name (-1 for queues whose cleanup failed)
func (s *Sweeper) CleanupAllQueues(ctx context.Context) map[string]int {
	results := make(map[string]int)

	queues, err := s.dir.ListQueues(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list queues for cleanup")
		return results
	}

	s.logger.Info().Int("queues", len(queues)).Msg("Starting cleanup pass")
	for _, q := range queues {
		results[q.Name] = s.CleanupQueue(ctx, q.Name)
	}
	return results
}

// Start launches the background cleanup loop. Returns an error when a loop
// is already running. With a cron schedule configured the loop fires on the
// schedule; otherwise it runs a pass, sleeps for the configured interval,
// and repeats until stopped.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cleanup loop is already running")
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true
	s.stopping = false

	if s.schedule != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.schedule, func() {
			s.CleanupAllQueues(context.Background())
		}); err != nil {
			s.running = false
			s.cron = nil
			return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
		}
		s.cron.Start()
		go s.waitForStopCron()
		s.logger.Info().Str("schedule", s.schedule).Msg("Cleanup loop started on cron schedule")
		return nil
	}

	go s.run()
	s.logger.Info().Str("interval", s.interval.String()).Msg("Cleanup loop started")
	return nil
}

// Stop signals the loop to exit and waits up to timeout for it to do so
func (s *Sweeper) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("cleanup loop is not running")
	}
	if !s.stopping {
		close(s.stopCh)
		s.stopping = true
	}
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
	case <-time.After(timeout):
		return fmt.Errorf("cleanup loop did not stop within %s", timeout)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Cleanup loop stopped")
	return nil
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	for {
		s.CleanupAllQueues(context.Background())

		timer := time.NewTimer(s.interval)
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Sweeper) waitForStopCron() {
	defer close(s.doneCh)
	<-s.stopCh

	// Wait for any in-flight scheduled pass before reporting done
	<-s.cron.Stop().Done()
}

var _ interfaces.RetentionSweeper = (*Sweeper)(nil)
