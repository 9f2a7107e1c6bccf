package service

import (
	"context"
	"fmt"
	"time"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"

	"github.com/xuri/excelize/v2"
)

type reportService struct {
	reservations repository.ReservationRepository
	payments     repository.PaymentRepository
}

func NewReportService(reservations repository.ReservationRepository, payments repository.PaymentRepository) ReportService {
	return &reportService{
		reservations: reservations,
		payments:     payments,
	}
}

var paymentHeaders = []string{"Date", "Reservation", "Client", "Apartment", "Method", "Reference", "Amount"}

// ExportPayments builds a workbook with every payment dated in [from, to).
func (s *reportService) ExportPayments(ctx context.Context, from, to time.Time) ([]byte, error) {
	logger.EnterMethod("reportService.ExportPayments", "from", from, "to", to)

	if !to.After(from) {
		return nil, validationError("report range end must be after its start")
	}

	payments, err := s.payments.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}

	views := make(map[int32]*domain.ReservationView)
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Payments"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	if err := writeHeader(f, sheetName, paymentHeaders); err != nil {
		return nil, err
	}

	row := 2
	for _, p := range payments {
		view, ok := views[p.ReservationID]
		if !ok {
			view, err = s.reservations.GetView(ctx, p.ReservationID)
			if err != nil {
				logger.Warn("Payment references unreadable reservation", "paymentID", p.ID, "reservationID", p.ReservationID, "error", err)
				view = &domain.ReservationView{}
			}
			views[p.ReservationID] = view
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.PaymentDate.Format(domain.DateLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.ReservationID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), view.ClientName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), view.ApartmentName)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), string(p.PaymentMethod))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), p.Reference)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), p.Amount.InexactFloat64())
		row++
	}
	if len(payments) > 0 {
		f.SetCellFormula(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("SUM(G2:G%d)", row-1))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), "Total")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write payments workbook: %w", err)
	}

	logger.ExitMethod("reportService.ExportPayments", "payments", len(payments))
	return buf.Bytes(), nil
}

var movementHeaders = []string{"Reservation", "Apartment", "Client", "Phone", "Check-in", "Check-out", "Nights", "Status", "Amount due"}

// ExportMovements lists the reservations arriving and departing on day.
func (s *reportService) ExportMovements(ctx context.Context, day time.Time) (*Movements, error) {
	logger.EnterMethod("reportService.ExportMovements", "day", clock.DateOf(day))

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	views, err := s.reservations.ListByDateRange(ctx, start, start)
	if err != nil {
		return nil, persistenceError("list reservations", err)
	}

	m := &Movements{Day: start}
	for _, v := range views {
		if clock.SameDay(v.CheckInDate, start) {
			m.Arrivals = append(m.Arrivals, v)
		}
		if clock.SameDay(v.CheckOutDate, start) {
			m.Departures = append(m.Departures, v)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range []struct {
		name string
		rows []domain.ReservationView
	}{
		{"Arrivals", m.Arrivals},
		{"Departures", m.Departures},
	} {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
		if err := writeHeader(f, sheet.name, movementHeaders); err != nil {
			return nil, err
		}
		for r, v := range sheet.rows {
			values := []interface{}{
				v.ID, v.ApartmentName, v.ClientName, v.ClientPhone,
				v.CheckInDate.Format(domain.DateLayout), v.CheckOutDate.Format(domain.DateLayout),
				v.Nights, string(v.Status), v.AmountDue.InexactFloat64(),
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet.name, cell, &values); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write movements workbook: %w", err)
	}
	m.Workbook = buf.Bytes()

	logger.ExitMethod("reportService.ExportMovements", "arrivals", len(m.Arrivals), "departures", len(m.Departures))
	return m, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}
