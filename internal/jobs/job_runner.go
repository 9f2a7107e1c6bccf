package jobs

import (
	"context"
	"fmt"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	sweeper  *StatusSweeper
	services *Services
	clock    clock.Clock
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Email   service.EmailService
	Reports service.ReportService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(sweeper *StatusSweeper, services *Services, clk clock.Clock) *JobRunner {
	if clk == nil {
		clk = clock.System(nil)
	}
	return &JobRunner{
		sweeper:  sweeper,
		services: services,
		clock:    clk,
	}
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName)
	return nil
}

// UpdateReservationStatuses runs the check-in/check-out sweep
func (jr *JobRunner) UpdateReservationStatuses(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	err := jr.runWithRecovery("UpdateReservationStatuses", func() error {
		var err error
		result, err = jr.sweeper.Sweep(ctx)
		if err == nil {
			logger.Info("Reservation status sweep finished", "updated", result.Updated)
		}
		return err
	})
	return result, err
}
