package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"vacation-rental-backend/internal/config"
	"vacation-rental-backend/internal/jobs"
	"vacation-rental-backend/internal/lock"
	"vacation-rental-backend/internal/logger"
)

// ErrSweepInProgress is returned when another status sweep holds the run lock
var ErrSweepInProgress = errors.New("reservation status sweep already in progress")

const (
	statusSweepLock = "reservation-status"
	dailyReportLock = "daily-report"
)

// Runner is the set of jobs the scheduler triggers
type Runner interface {
	UpdateReservationStatuses(ctx context.Context) (jobs.SweepResult, error)
	SendDailyReport(ctx context.Context) error
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron    *cron.Cron
	jobs    Runner
	runLock lock.RunLock
	cfg     config.SchedulerConfig
}

// NewScheduler creates a new scheduler with the provided job runner. Manual
// and scheduled runs share runLock; pass a chain with a Redis lock to exclude
// other processes as well.
func NewScheduler(jobRunner Runner, runLock lock.RunLock, cfg config.SchedulerConfig) (*Scheduler, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}
	if runLock == nil {
		runLock = lock.NewLocalRunLock()
	}

	// Create cron with the business timezone and seconds precision
	cl := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cron:    c,
		jobs:    jobRunner,
		runLock: runLock,
		cfg:     cfg,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	if s.cfg.ReservationStatus != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReservationStatus, s.scheduledStatusSweep); err != nil {
			return fmt.Errorf("register reservation status job: %w", err)
		}
	}

	if s.cfg.DailyReport != "" {
		if _, err := s.cron.AddFunc(s.cfg.DailyReport, s.scheduledDailyReport); err != nil {
			return fmt.Errorf("register daily report job: %w", err)
		}
	}

	logger.Info("All cron jobs registered successfully", "entries", len(s.cron.Entries()))
	return nil
}

// RunOnce runs the status sweep now. It fails with ErrSweepInProgress
// instead of waiting when another run holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (jobs.SweepResult, error) {
	release, acquired, err := s.runLock.TryAcquire(ctx, statusSweepLock)
	if err != nil {
		return jobs.SweepResult{}, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		return jobs.SweepResult{}, ErrSweepInProgress
	}
	defer release()

	return s.jobs.UpdateReservationStatuses(ctx)
}

// RunDailyReport sends the daily movements report now
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	release, acquired, err := s.runLock.TryAcquire(ctx, dailyReportLock)
	if err != nil {
		return fmt.Errorf("acquire report lock: %w", err)
	}
	if !acquired {
		logger.Info("Daily report already running elsewhere, skipping")
		return nil
	}
	defer release()

	return s.jobs.SendDailyReport(ctx)
}

func (s *Scheduler) scheduledStatusSweep() {
	result, err := s.RunOnce(context.Background())
	if errors.Is(err, ErrSweepInProgress) {
		logger.Info("Skipping scheduled status sweep, another run is in progress")
		return
	}
	if err != nil {
		logger.Error("Scheduled status sweep failed", "error", err)
		return
	}
	logger.Info("Scheduled status sweep done", "updated", result.Updated, "message", result.Message)
}

func (s *Scheduler) scheduledDailyReport() {
	if err := s.RunDailyReport(context.Background()); err != nil {
		logger.Error("Scheduled daily report failed", "error", err)
	}
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has registered jobs
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// cronLogger routes cron's internal logging through the application logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
