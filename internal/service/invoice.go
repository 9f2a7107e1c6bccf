package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"vacation-rental-backend/internal/clock"
	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"
	"vacation-rental-backend/internal/storage"

	"github.com/divan/num2words"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// CompanyInfo is printed in the invoice header
type CompanyInfo struct {
	Name    string
	Address string
	TaxID   string
}

type invoiceService struct {
	reservations repository.ReservationRepository
	payments     repository.PaymentRepository
	files        storage.FileStorage
	company      CompanyInfo
	clock        clock.Clock
}

func NewInvoiceService(
	reservations repository.ReservationRepository,
	payments repository.PaymentRepository,
	files storage.FileStorage,
	company CompanyInfo,
	clk clock.Clock,
) InvoiceService {
	if clk == nil {
		clk = clock.System(nil)
	}
	return &invoiceService{
		reservations: reservations,
		payments:     payments,
		files:        files,
		company:      company,
		clock:        clk,
	}
}

func (s *invoiceService) GenerateInvoicePDF(ctx context.Context, reservationID int32) (*Invoice, error) {
	logger.EnterMethod("invoiceService.GenerateInvoicePDF", "reservationID", reservationID)

	view, err := s.reservations.GetView(ctx, reservationID)
	if err != nil {
		err = persistenceError(fmt.Sprintf("get reservation %d", reservationID), err)
		logger.ExitMethodWithError("invoiceService.GenerateInvoicePDF", err)
		return nil, err
	}
	payments, err := s.payments.ListByReservation(ctx, reservationID)
	if err != nil {
		err = persistenceError("list payments", err)
		logger.ExitMethodWithError("invoiceService.GenerateInvoicePDF", err)
		return nil, err
	}

	issued := s.clock.Now()
	number := InvoiceNumber(view.ID, issued.Year())

	var buf bytes.Buffer
	if err := s.render(&buf, number, issued.Format(domain.DateLayout), view, payments); err != nil {
		logger.ExitMethodWithError("invoiceService.GenerateInvoicePDF", err)
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	invoice := &Invoice{
		ReservationID: view.ID,
		Number:        number,
		Content:       buf.Bytes(),
	}

	if s.files != nil {
		key := InvoiceKey(number)
		if err := s.files.Put(ctx, key, bytes.NewReader(invoice.Content)); err != nil {
			err = fmt.Errorf("%w: store invoice: %w", ErrPersistence, err)
			logger.ExitMethodWithError("invoiceService.GenerateInvoicePDF", err)
			return nil, err
		}
		invoice.StorageKey = key
		invoice.DownloadURL = s.files.DownloadURL(key)
	}

	logger.ExitMethod("invoiceService.GenerateInvoicePDF", "reservationID", reservationID, "number", number, "size", len(invoice.Content))
	return invoice, nil
}

// InvoiceKey is the storage key of an invoice. Regenerating an invoice
// overwrites the previous file.
func InvoiceKey(number string) string {
	return "invoices/" + number + ".pdf"
}

func (s *invoiceService) render(buf *bytes.Buffer, number, issued string, view *domain.ReservationView, payments []domain.Payment) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(number, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(120, 8, tr(s.company.Name))
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(70, 8, "Invoice "+number, "", 1, "R", false, 0, "")
	if s.company.Address != "" {
		pdf.Cell(120, 5, tr(s.company.Address))
	}
	pdf.CellFormat(70, 5, "Date: "+issued, "", 1, "R", false, 0, "")
	if s.company.TaxID != "" {
		pdf.Cell(0, 5, "Tax ID: "+s.company.TaxID)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Billed to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range []string{view.ClientName, view.ClientEmail, view.ClientPhone} {
		if line != "" {
			pdf.Cell(0, 5, tr(line))
			pdf.Ln(5)
		}
	}
	pdf.Ln(4)

	stay := fmt.Sprintf("%s (%s), %s to %s, %d night(s)", view.ApartmentName, view.ApartmentType,
		view.CheckInDate.Format(domain.DateLayout), view.CheckOutDate.Format(domain.DateLayout), view.Nights)
	pdf.MultiCell(0, 5, tr(stay), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(130, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	for _, item := range invoiceLines(view) {
		pdf.CellFormat(130, 7, tr(item.label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, money(item.amount), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 7, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, money(view.TotalAmount), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	if len(payments) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 7, "Date", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, "Method", "1", 0, "L", true, 0, "")
		pdf.CellFormat(50, 7, "Reference", "1", 0, "L", true, 0, "")
		pdf.CellFormat(60, 7, "Amount", "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range payments {
			pdf.CellFormat(40, 7, p.PaymentDate.Format(domain.DateLayout), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 7, string(p.PaymentMethod), "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, tr(p.Reference), "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 7, money(p.Amount), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(130, 6, "Paid", "", 0, "R", false, 0, "")
	pdf.CellFormat(60, 6, money(view.AmountPaid), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 6, "Balance due", "", 0, "R", false, 0, "")
	pdf.CellFormat(60, 6, money(view.AmountDue), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Amount in words: "+AmountInWords(view.TotalAmount), "", "L", false)

	return pdf.Output(buf)
}

type invoiceLine struct {
	label  string
	amount decimal.Decimal
}

func invoiceLines(view *domain.ReservationView) []invoiceLine {
	lines := []invoiceLine{{
		label:  fmt.Sprintf("Accommodation, %d night(s) x %s", view.Nights, money(view.PricePerNight)),
		amount: view.PricePerNight.Mul(decimal.NewFromInt32(view.Nights)),
	}}
	for _, extra := range []invoiceLine{
		{"Cleaning fee", view.CleaningFee},
		{"Other expenses", view.OtherExpenses},
		{"Taxes", view.Taxes},
		{"Parking", view.ParkingFee},
	} {
		if !extra.amount.IsZero() {
			lines = append(lines, extra)
		}
	}
	return lines
}

// InvoiceNumber formats the printed invoice number for a reservation
func InvoiceNumber(reservationID int32, year int) string {
	return fmt.Sprintf("INV-%d-%06d", year, reservationID)
}

// AmountInWords spells out the whole part and appends cents as a fraction,
// e.g. "one thousand two hundred and 50/100".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()
	words := num2words.Convert(int(whole.IntPart()))
	return fmt.Sprintf("%s and %02d/100", strings.TrimSpace(words), cents)
}
