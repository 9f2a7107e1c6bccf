package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

// MailClient is the part of the SendGrid client the email service uses
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type EmailOptions struct {
	APIKey      string
	FromEmail   string
	FromName    string
	AdminEmail  string
	CompanyName string
	Enabled     bool
}

type emailService struct {
	client        MailClient
	opts          EmailOptions
	invoices      InvoiceService
	notifications repository.NotificationRepository
}

// NewEmailService builds a SendGrid-backed email service. invoices and
// notifications may be nil; without them no PDF is attached and sends are
// not recorded.
func NewEmailService(opts EmailOptions, invoices InvoiceService, notifications repository.NotificationRepository) EmailService {
	return NewEmailServiceWithClient(sendgrid.NewSendClient(opts.APIKey), opts, invoices, notifications)
}

func NewEmailServiceWithClient(client MailClient, opts EmailOptions, invoices InvoiceService, notifications repository.NotificationRepository) EmailService {
	if opts.CompanyName == "" {
		opts.CompanyName = opts.FromName
	}
	return &emailService{
		client:        client,
		opts:          opts,
		invoices:      invoices,
		notifications: notifications,
	}
}

var (
	paymentEmailHTML = template.Must(template.New("payment").Parse(`<html><body>
<p>Hello {{.ClientName}},</p>
<p>We have received your payment of <strong>{{.Amount}}</strong> for reservation #{{.ID}} at <strong>{{.ApartmentName}}</strong>.</p>
<table>
<tr><td>Check-in</td><td>{{.CheckIn}}</td></tr>
<tr><td>Check-out</td><td>{{.CheckOut}}</td></tr>
<tr><td>Total</td><td>{{.Total}}</td></tr>
<tr><td>Paid</td><td>{{.Paid}}</td></tr>
<tr><td>Balance due</td><td>{{.Due}}</td></tr>
</table>
{{if .Complete}}<p>Your reservation is now fully paid. The invoice is attached.</p>
{{end}}<p>Best regards,<br>{{.Company}}</p>
</body></html>`))

	statusEmailHTML = template.Must(template.New("status").Parse(
		`<html><body><p>Hello {{.ClientName}},</p><p>{{.Line}}</p><p>Best regards,<br>{{.Company}}</p></body></html>`))

	dailyReportHTML = template.Must(template.New("daily").Parse(`<html><body><pre>{{.}}</pre></body></html>`))
)

// renderHTML executes an HTML template; every value is escaped by html/template.
func renderHTML(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return b.String(), nil
}

type outgoing struct {
	kind          domain.NotificationKind
	reservationID *int32
	toName        string
	toEmail       string
	subject       string
	plain         string
	html          string
	attachments   []*mail.Attachment
	attributes    map[string]string
}

func (s *emailService) SendPaymentNotification(ctx context.Context, view *domain.ReservationView, amount decimal.Decimal, isComplete bool) error {
	if view == nil {
		return fmt.Errorf("payment notification: reservation view is required")
	}
	if view.ClientEmail == "" {
		logger.WithReservation(view.ID).Warn("Skipping payment notification, client has no email")
		return nil
	}

	subject := fmt.Sprintf("Payment received for your stay at %s", view.ApartmentName)
	if isComplete {
		subject = fmt.Sprintf("Your stay at %s is fully paid", view.ApartmentName)
	}

	plain := fmt.Sprintf("Hello %s,\n\nWe have received your payment of %s for reservation #%d (%s to %s).\n\nTotal: %s\nPaid: %s\nBalance due: %s\n",
		view.ClientName, money(amount), view.ID,
		view.CheckInDate.Format(domain.DateLayout), view.CheckOutDate.Format(domain.DateLayout),
		money(view.TotalAmount), money(view.AmountPaid), money(view.AmountDue))
	if isComplete {
		plain += "\nYour reservation is now fully paid. The invoice is attached.\n"
	}
	plain += fmt.Sprintf("\nBest regards,\n%s", s.opts.CompanyName)

	html, err := renderHTML(paymentEmailHTML, map[string]any{
		"ClientName":    view.ClientName,
		"Amount":        money(amount),
		"ID":            view.ID,
		"ApartmentName": view.ApartmentName,
		"CheckIn":       view.CheckInDate.Format(domain.DateLayout),
		"CheckOut":      view.CheckOutDate.Format(domain.DateLayout),
		"Total":         money(view.TotalAmount),
		"Paid":          money(view.AmountPaid),
		"Due":           money(view.AmountDue),
		"Complete":      isComplete,
		"Company":       s.opts.CompanyName,
	})
	if err != nil {
		return err
	}

	msg := outgoing{
		kind:          domain.NotificationKindPayment,
		reservationID: &view.ID,
		toName:        view.ClientName,
		toEmail:       view.ClientEmail,
		subject:       subject,
		plain:         plain,
		html:          html,
		attributes: map[string]string{
			"amount":         amount.StringFixed(2),
			"amount_due":     view.AmountDue.StringFixed(2),
			"payment_status": string(view.PaymentStatus),
		},
	}

	if isComplete && s.invoices != nil {
		invoice, err := s.invoices.GenerateInvoicePDF(ctx, view.ID)
		if err != nil {
			logger.WithReservation(view.ID).Error("Failed to generate invoice for payment email", "error", err)
		} else {
			msg.attachments = append(msg.attachments, attachment(invoice.Content, "application/pdf", invoice.Number+".pdf"))
			msg.attributes["invoice"] = invoice.StorageKey
		}
	}

	return s.send(ctx, msg)
}

func (s *emailService) SendStatusChangeNotification(ctx context.Context, view *domain.ReservationView, previous domain.ReservationStatus) error {
	if view == nil {
		return fmt.Errorf("status notification: reservation view is required")
	}
	if view.ClientEmail == "" {
		logger.WithReservation(view.ID).Warn("Skipping status notification, client has no email")
		return nil
	}

	var subject, line string
	switch view.Status {
	case domain.ReservationStatusCheckedIn:
		subject = fmt.Sprintf("Welcome to %s", view.ApartmentName)
		line = fmt.Sprintf("Your stay at %s starts today. Check-out is on %s.",
			view.ApartmentName, view.CheckOutDate.Format(domain.DateLayout))
	case domain.ReservationStatusCheckedOut:
		subject = fmt.Sprintf("Thank you for staying at %s", view.ApartmentName)
		line = fmt.Sprintf("Your stay at %s has ended. We hope to see you again.", view.ApartmentName)
	default:
		subject = fmt.Sprintf("Reservation #%d updated", view.ID)
		line = fmt.Sprintf("Your reservation status changed from %s to %s.", humanStatus(previous), humanStatus(view.Status))
	}
	if view.AmountDue.IsPositive() {
		line += fmt.Sprintf(" Outstanding balance: %s.", money(view.AmountDue))
	}

	plain := fmt.Sprintf("Hello %s,\n\n%s\n\nBest regards,\n%s", view.ClientName, line, s.opts.CompanyName)
	html, err := renderHTML(statusEmailHTML, map[string]any{
		"ClientName": view.ClientName,
		"Line":       line,
		"Company":    s.opts.CompanyName,
	})
	if err != nil {
		return err
	}

	return s.send(ctx, outgoing{
		kind:          domain.NotificationKindStatusChange,
		reservationID: &view.ID,
		toName:        view.ClientName,
		toEmail:       view.ClientEmail,
		subject:       subject,
		plain:         plain,
		html:          html,
		attributes: map[string]string{
			"previous_status": string(previous),
			"status":          string(view.Status),
		},
	})
}

func (s *emailService) SendDailyReport(ctx context.Context, day time.Time, workbook []byte, arrivals, departures int) error {
	if s.opts.AdminEmail == "" {
		logger.Warn("Skipping daily report, no admin email configured")
		return nil
	}

	date := day.Format(domain.DateLayout)
	subject := fmt.Sprintf("Daily movements %s: %d arrivals, %d departures", date, arrivals, departures)
	plain := fmt.Sprintf("Arrivals: %d\nDepartures: %d\n\nThe full list is attached.", arrivals, departures)
	html, err := renderHTML(dailyReportHTML, plain)
	if err != nil {
		return err
	}

	msg := outgoing{
		kind:    domain.NotificationKindDailyReport,
		toName:  s.opts.CompanyName,
		toEmail: s.opts.AdminEmail,
		subject: subject,
		plain:   plain,
		html:    html,
		attributes: map[string]string{
			"day":        date,
			"arrivals":   fmt.Sprint(arrivals),
			"departures": fmt.Sprint(departures),
		},
	}
	if len(workbook) > 0 {
		msg.attachments = append(msg.attachments, attachment(workbook,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "movements-"+date+".xlsx"))
	}
	return s.send(ctx, msg)
}

func (s *emailService) send(ctx context.Context, msg outgoing) error {
	record := &domain.Notification{
		ReservationID: msg.reservationID,
		Kind:          msg.kind,
		Recipient:     msg.toEmail,
		Subject:       msg.subject,
		Attributes:    msg.attributes,
	}

	if !s.opts.Enabled {
		logger.Info("Email delivery disabled, message not sent", "kind", msg.kind, "to", msg.toEmail, "subject", msg.subject)
		record.Status = domain.NotificationStatusDisabled
		s.record(ctx, record)
		return nil
	}

	from := mail.NewEmail(s.opts.FromName, s.opts.FromEmail)
	to := mail.NewEmail(msg.toName, msg.toEmail)
	m := mail.NewSingleEmail(from, msg.subject, to, msg.plain, msg.html)
	m.AddCategories(string(msg.kind))
	for _, a := range msg.attachments {
		m.AddAttachment(a)
	}

	logger.ExternalServiceCall("sendgrid", "send", "kind", msg.kind, "to", msg.toEmail)
	response, err := s.client.SendWithContext(ctx, m)
	if err == nil && response != nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, strings.TrimSpace(response.Body))
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "kind", msg.kind, "to", msg.toEmail)

	if err != nil {
		record.Status = domain.NotificationStatusFailed
		record.Error = err.Error()
		s.record(ctx, record)
		return fmt.Errorf("failed to send email: %w", err)
	}

	record.Status = domain.NotificationStatusSent
	s.record(ctx, record)
	return nil
}

func (s *emailService) record(ctx context.Context, n *domain.Notification) {
	if s.notifications == nil {
		return
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		logger.Error("Failed to record notification", "kind", n.Kind, "recipient", n.Recipient, "error", err)
	}
}

func attachment(content []byte, contentType, filename string) *mail.Attachment {
	a := mail.NewAttachment()
	a.SetContent(base64.StdEncoding.EncodeToString(content))
	a.SetType(contentType)
	a.SetFilename(filename)
	a.SetDisposition("attachment")
	return a
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func humanStatus(s domain.ReservationStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
