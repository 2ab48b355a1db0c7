package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/streakline/internal/logger"
)

// cronParser accepts standard 5-field cron expressions and @descriptors
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether expr is a usable cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", expr, err)
	}
	return nil
}

// Scheduler runs backups on a cron schedule and optionally uploads each one.
type Scheduler struct {
	cron     *cron.Cron
	manager  *Manager
	uploader Uploader

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewScheduler registers a backup job for expr. uploader may be nil.
func NewScheduler(expr string, manager *Manager, uploader Uploader, loc *time.Location) (*Scheduler, error) {
	if err := ValidateSchedule(expr); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithParser(cronParser), cron.WithLocation(loc)),
		manager:  manager,
		uploader: uploader,
	}
	if _, err := s.cron.AddFunc(expr, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			logger.Error("scheduled backup failed", "error", err)
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce creates a backup and uploads it when an uploader is set.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	path, err := s.manager.CreateBackup()
	if err == nil && s.uploader != nil {
		_, err = s.uploader.Upload(ctx, path)
	}

	s.mu.Lock()
	s.lastRun = s.manager.clock.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err == nil {
		logger.Info("backup completed", "path", path)
	}
	return err
}

// LastRun returns when the job last ran and how it ended.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running backup to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
