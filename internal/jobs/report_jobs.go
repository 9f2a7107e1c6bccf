package jobs

import (
	"context"
	"fmt"

	"vacation-rental-backend/internal/logger"
)

// SendDailyReport mails today's arrivals and departures workbook to the admin
func (jr *JobRunner) SendDailyReport(ctx context.Context) error {
	return jr.runWithRecovery("SendDailyReport", func() error {
		today := jr.clock.Now()

		movements, err := jr.services.Reports.ExportMovements(ctx, today)
		if err != nil {
			return fmt.Errorf("export movements: %w", err)
		}

		if err := jr.services.Email.SendDailyReport(ctx, movements.Day, movements.Workbook,
			len(movements.Arrivals), len(movements.Departures)); err != nil {
			return fmt.Errorf("send daily report: %w", err)
		}

		logger.Info("Daily report sent",
			"day", movements.Day.Format("2006-01-02"),
			"arrivals", len(movements.Arrivals),
			"departures", len(movements.Departures))
		return nil
	})
}
