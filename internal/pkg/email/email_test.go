package email

import (
	"bytes"
	"context"
	"errors"
	"net/textproto"
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	sent []*gomail.Message
	err  error
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m...)
	return nil
}

func newTestService(t *testing.T, snd sender) *emailServiceImpl {
	t.Helper()
	svc, err := NewEmailService(config.SMTPConfig{From: "payroll@example.com", FromName: "Payroll"})
	require.NoError(t, err)
	impl := svc.(*emailServiceImpl)
	impl.sender = snd
	return impl
}

func TestSendPayslip_BuildsMessageWithAttachment(t *testing.T) {
	snd := &recordingSender{}
	svc := newTestService(t, snd)

	err := svc.SendPayslip(context.Background(), "ana@example.com", "Ana Pop", "2024-01", Attachment{
		Filename:    "payslip_2024-01.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.3"),
	})
	require.NoError(t, err)
	require.Len(t, snd.sent, 1)

	m := snd.sent[0]
	assert.Equal(t, []string{"Your Payslip for 2024-01"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"ana@example.com"}, m.GetHeader("To"))

	var raw bytes.Buffer
	_, err = m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "payslip_2024-01.pdf")
	assert.Contains(t, raw.String(), "Ana Pop")
}

func TestSendTeamSummary_Subject(t *testing.T) {
	snd := &recordingSender{}
	svc := newTestService(t, snd)

	err := svc.SendTeamSummary(context.Background(), "boss@example.com", "Maria Ionescu", "2024-02", Attachment{
		Filename:    "salary_report_2024-02.csv",
		ContentType: "text/csv",
		Data:        []byte("employee_id,name\n"),
	})
	require.NoError(t, err)
	require.Len(t, snd.sent, 1)
	assert.Equal(t, []string{"Salary Report - 2024-02"}, snd.sent[0].GetHeader("Subject"))
}

func TestSend_ClassifiesFailures(t *testing.T) {
	ctx := context.Background()
	att := Attachment{Filename: "a.pdf", ContentType: "application/pdf"}

	rejected := newTestService(t, &recordingSender{err: &textproto.Error{Code: 550, Msg: "mailbox unavailable"}})
	err := rejected.SendPayslip(ctx, "x@example.com", "X", "2024-01", att)
	assert.ErrorIs(t, err, ErrPermanent)

	transient := newTestService(t, &recordingSender{err: errors.New("connection refused")})
	err = transient.SendPayslip(ctx, "x@example.com", "X", "2024-01", att)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermanent)

	unconfigured := newTestService(t, nil)
	err = unconfigured.SendPayslip(ctx, "x@example.com", "X", "2024-01", att)
	assert.ErrorIs(t, err, ErrPermanent)
}
