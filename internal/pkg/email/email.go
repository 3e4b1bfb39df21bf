package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/textproto"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrPermanent marks failures that retrying cannot fix (rejected recipient,
// missing transport configuration).
var ErrPermanent = errors.New("permanent email failure")

// Attachment is a rendered artifact carried by a report email
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailService defines the interface for sending report emails
type EmailService interface {
	SendPayslip(ctx context.Context, to, employeeName, periodLabel string, attachment Attachment) error
	SendTeamSummary(ctx context.Context, to, managerName, periodLabel string, attachment Attachment) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	sender    sender
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	var d sender
	if cfg.Host != "" {
		d = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		sender:    d,
	}, nil
}

type reportEmailData struct {
	RecipientName string
	Period        string
}

// SendPayslip mails an employee their password-protected payslip
func (s *emailServiceImpl) SendPayslip(ctx context.Context, to, employeeName, periodLabel string, attachment Attachment) error {
	body, err := s.render("payslip.html", reportEmailData{RecipientName: employeeName, Period: periodLabel})
	if err != nil {
		return err
	}
	return s.send(ctx, to, fmt.Sprintf("Your Payslip for %s", periodLabel), body, attachment)
}

// SendTeamSummary mails a manager the salary report of their team
func (s *emailServiceImpl) SendTeamSummary(ctx context.Context, to, managerName, periodLabel string, attachment Attachment) error {
	body, err := s.render("team_summary.html", reportEmailData{RecipientName: managerName, Period: periodLabel})
	if err != nil {
		return err
	}
	return s.send(ctx, to, fmt.Sprintf("Salary Report - %s", periodLabel), body, attachment)
}

func (s *emailServiceImpl) render(name string, data reportEmailData) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return body.String(), nil
}

func (s *emailServiceImpl) buildMessage(to, subject, htmlBody string, attachment Attachment) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	data := attachment.Data
	m.Attach(attachment.Filename,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {attachment.ContentType}}),
	)
	return m
}

// send makes a single attempt; retries belong to the delivery dispatcher.
func (s *emailServiceImpl) send(ctx context.Context, to, subject, htmlBody string, attachment Attachment) error {
	if s.sender == nil {
		slog.Warn("SMTP not configured, refusing to send", "to", to, "subject", subject)
		return fmt.Errorf("%w: smtp host not configured", ErrPermanent)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(to, subject, htmlBody, attachment)
	if err := s.sender.DialAndSend(m); err != nil {
		slog.Error("Failed to send email", "to", to, "subject", subject, "error", err)
		return classify(err)
	}

	slog.Info("Email sent successfully", "to", to, "subject", subject, "attachment", attachment.Filename)
	return nil
}

// classify wraps 5xx SMTP replies as permanent; everything else is transient.
func classify(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code >= 500 {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	return err
}
