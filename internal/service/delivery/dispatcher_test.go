package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	calls int
	fail  func(call int) error
}

func (m *fakeMailer) deliver(to string, attachment email.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		if err := m.fail(m.calls); err != nil {
			return err
		}
	}
	if len(attachment.Data) == 0 {
		return fmt.Errorf("%w: empty attachment", email.ErrPermanent)
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *fakeMailer) SendPayslip(ctx context.Context, to, employeeName, periodLabel string, attachment email.Attachment) error {
	return m.deliver(to, attachment)
}

func (m *fakeMailer) SendTeamSummary(ctx context.Context, to, managerName, periodLabel string, attachment email.Attachment) error {
	return m.deliver(to, attachment)
}

func (m *fakeMailer) setFail(fn func(call int) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

func (m *fakeMailer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type harness struct {
	org        *fixtures.Org
	dispatcher *Dispatcher
	mailer     *fakeMailer
	hub        *sse.Hub
	artifact   report.Artifact
}

func newHarness(t *testing.T, cfg config.DeliveryConfig) *harness {
	t.Helper()
	ctx := context.Background()
	org := fixtures.NewOrg(t)
	period := org.Period(t, 2024, 1)

	fs, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	name := report.FileName(report.KindPayslip, period.Label(), org.Report.ID, report.FormatPDF)
	path := report.StoragePath(period.Label(), report.KindPayslip, report.SubjectOf(report.KindPayslip, org.Report.ID), name)
	key, err := fs.Upload(ctx, bytes.NewReader([]byte("%PDF-1.3 test")), path, "application/pdf")
	require.NoError(t, err)

	artifact, err := org.Repos.Artifacts.Upsert(ctx, report.Artifact{
		Kind:        report.KindPayslip,
		Format:      report.FormatPDF,
		PeriodID:    period.ID,
		PeriodLabel: period.Label(),
		SubjectID:   org.Report.ID,
		Path:        key,
		ContentType: report.FormatPDF.ContentType(),
	})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	hub := sse.NewHub()
	d := NewDispatcher(cfg, org.Repos.Tickets, org.Repos.Artifacts, fs, mailer, hub)
	d.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	t.Cleanup(d.Stop)

	return &harness{org: org, dispatcher: d, mailer: mailer, hub: hub, artifact: artifact}
}

func defaultConfig() config.DeliveryConfig {
	return config.DeliveryConfig{Workers: 2, QueueSize: 16, MaxAttempts: 3, Backoff: time.Millisecond}
}

func (h *harness) request() Request {
	return Request{
		ArtifactID:    h.artifact.ID,
		PeriodID:      h.artifact.PeriodID,
		Recipient:     h.org.Report.Email,
		RecipientName: h.org.Report.FullName(),
		RequestedBy:   h.org.Manager.ID,
	}
}

func (h *harness) waitFor(t *testing.T, id string, state delivery.State) delivery.Ticket {
	t.Helper()
	var last delivery.Ticket
	require.Eventually(t, func() bool {
		tk, err := h.org.Repos.Tickets.GetByID(context.Background(), id)
		if err != nil {
			return false
		}
		last = tk
		return tk.State == state
	}, 2*time.Second, 5*time.Millisecond, "ticket never reached %s", state)
	return last
}

func TestDispatch_SendsOnce(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)

	sent := h.waitFor(t, ticket.ID, delivery.StateSent)
	assert.Equal(t, 1, sent.Attempts)
	assert.NotNil(t, sent.SentAt)

	again, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, again.ID)
	assert.Equal(t, delivery.StateSent, again.State)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.mailer.callCount())

	artifact, err := h.org.Repos.Artifacts.GetByID(ctx, h.artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, report.DeliverySent, artifact.DeliveryState)
}

func TestDispatch_SentKeyRestoresArtifactState(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)
	h.waitFor(t, ticket.ID, delivery.StateSent)

	// the artifact drifted away from its ticket
	require.NoError(t, h.org.Repos.Artifacts.SetDeliveryState(ctx, h.artifact.ID, report.DeliveryPending))

	again, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)
	assert.Equal(t, delivery.StateSent, again.State)

	artifact, err := h.org.Repos.Artifacts.GetByID(ctx, h.artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, report.DeliverySent, artifact.DeliveryState)
	assert.Equal(t, 1, h.mailer.callCount())
}

func TestDispatch_ConcurrentSameKey(t *testing.T) {
	h := newHarness(t, config.DeliveryConfig{Workers: 4, QueueSize: 64, MaxAttempts: 3, Backoff: time.Millisecond})
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk, err := h.dispatcher.Dispatch(ctx, h.request())
			assert.NoError(t, err)
			ids[i] = tk.ID
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	h.waitFor(t, ids[0], delivery.StateSent)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.mailer.callCount())
}

func TestDispatch_RecipientIsNormalised(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()

	req := h.request()
	first, err := h.dispatcher.Dispatch(ctx, req)
	require.NoError(t, err)

	req.Recipient = "  ANDREI@example.com "
	second, err := h.dispatcher.Dispatch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	req.Recipient = " "
	_, err = h.dispatcher.Dispatch(ctx, req)
	assert.ErrorIs(t, err, report.ErrNoRecipient)
}

func TestDispatch_TransientFailuresExhaustAttempts(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.mailer.setFail(func(int) error { return errors.New("dial tcp: connection refused") })
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)

	failed := h.waitFor(t, ticket.ID, delivery.StateFailed)
	assert.Equal(t, 3, failed.Attempts)
	assert.Contains(t, failed.LastError, "connection refused")
	assert.Equal(t, 3, h.mailer.callCount())

	artifact, err := h.org.Repos.Artifacts.GetByID(ctx, h.artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, report.DeliveryFailed, artifact.DeliveryState)
}

func TestDispatch_RetryThenSuccess(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.mailer.setFail(func(call int) error {
		if call == 1 {
			return errors.New("421 try again later")
		}
		return nil
	})
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)

	sent := h.waitFor(t, ticket.ID, delivery.StateSent)
	assert.Equal(t, 2, sent.Attempts)
	assert.Empty(t, sent.LastError)
}

func TestDispatch_PermanentFailureStopsImmediately(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.mailer.setFail(func(int) error { return fmt.Errorf("%w: 550 mailbox unavailable", email.ErrPermanent) })
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)

	failed := h.waitFor(t, ticket.ID, delivery.StateFailed)
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, 1, h.mailer.callCount())
}

func TestDispatch_FailedKeyIsRedispatched(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.mailer.setFail(func(int) error { return fmt.Errorf("%w: rejected", email.ErrPermanent) })
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))

	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)
	h.waitFor(t, ticket.ID, delivery.StateFailed)

	h.mailer.setFail(nil)
	again, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, again.ID)
	assert.Equal(t, delivery.StatePending, again.State)
	assert.Zero(t, again.Attempts)

	sent := h.waitFor(t, ticket.ID, delivery.StateSent)
	assert.Equal(t, 1, sent.Attempts)
}

func TestCancel(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()

	// not started: the ticket waits in the queue
	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)

	cancelled, err := h.dispatcher.Cancel(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StateCancelled, cancelled.State)

	// cancelling twice returns the terminal ticket as is
	again, err := h.dispatcher.Cancel(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StateCancelled, again.State)

	require.NoError(t, h.dispatcher.Start(ctx))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, h.mailer.callCount())

	_, err = h.dispatcher.Cancel(ctx, "missing")
	assert.ErrorIs(t, err, delivery.ErrTicketNotFound)
}

func TestCancel_InFlightAndSent(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()
	tickets := h.org.Repos.Tickets

	ticket, err := tickets.Create(ctx, delivery.Ticket{ArtifactID: h.artifact.ID, Recipient: "a@example.com", PeriodID: h.artifact.PeriodID})
	require.NoError(t, err)
	ticket.State = delivery.StateSending
	_, err = tickets.Transition(ctx, ticket, delivery.StatePending)
	require.NoError(t, err)

	_, err = h.dispatcher.Cancel(ctx, ticket.ID)
	assert.ErrorIs(t, err, delivery.ErrTicketInFlight)

	ticket.State = delivery.StateSent
	_, err = tickets.Transition(ctx, ticket, delivery.StateSending)
	require.NoError(t, err)

	_, err = h.dispatcher.Cancel(ctx, ticket.ID)
	assert.ErrorIs(t, err, delivery.ErrTicketAlreadySent)
}

func TestStart_RecoversLeftoverTickets(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()
	tickets := h.org.Repos.Tickets

	interrupted, err := tickets.Create(ctx, delivery.Ticket{ArtifactID: h.artifact.ID, Recipient: "a@example.com", PeriodID: h.artifact.PeriodID})
	require.NoError(t, err)
	interrupted.State = delivery.StateSending
	interrupted.Attempts = 1
	_, err = tickets.Transition(ctx, interrupted, delivery.StatePending)
	require.NoError(t, err)

	pending, err := tickets.Create(ctx, delivery.Ticket{ArtifactID: h.artifact.ID, Recipient: "b@example.com", PeriodID: h.artifact.PeriodID})
	require.NoError(t, err)

	require.NoError(t, h.dispatcher.Start(ctx))

	failed, err := tickets.GetByID(ctx, interrupted.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StateFailed, failed.State)
	assert.Equal(t, interruptedError, failed.LastError)

	h.waitFor(t, pending.ID, delivery.StateSent)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, h.mailer.callCount())
}

func TestDispatch_FullQueueLeavesTicketPending(t *testing.T) {
	h := newHarness(t, config.DeliveryConfig{Workers: 1, QueueSize: 1, MaxAttempts: 3, Backoff: time.Millisecond})
	ctx := context.Background()

	req := h.request()
	first, err := h.dispatcher.Dispatch(ctx, req)
	require.NoError(t, err)
	req.Recipient = "second@example.com"
	second, err := h.dispatcher.Dispatch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatePending, second.State)

	require.NoError(t, h.dispatcher.Start(ctx))
	h.waitFor(t, first.ID, delivery.StateSent)

	// the sweep picks up what the queue could not hold
	require.Eventually(t, func() bool {
		if _, err := h.dispatcher.RequeuePending(ctx); err != nil {
			return false
		}
		tk, err := h.org.Repos.Tickets.GetByID(ctx, second.ID)
		return err == nil && tk.State == delivery.StateSent
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, h.mailer.callCount())
}

func TestDispatch_PublishesTicketEvents(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()
	events, cleanup := h.hub.Subscribe(h.org.Manager.ID)
	defer cleanup()

	require.NoError(t, h.dispatcher.Start(ctx))
	ticket, err := h.dispatcher.Dispatch(ctx, h.request())
	require.NoError(t, err)

	var states []delivery.State
	timeout := time.After(2 * time.Second)
	for len(states) == 0 || states[len(states)-1] != delivery.StateSent {
		select {
		case ev := <-events:
			assert.Equal(t, delivery.EventTicketUpdated, ev.Event)
			resp, ok := ev.Data.(delivery.TicketResponse)
			require.True(t, ok)
			assert.Equal(t, ticket.ID, resp.ID)
			states = append(states, resp.State)
		case <-timeout:
			t.Fatalf("no SENT event, got %v", states)
		}
	}
	assert.Equal(t, []delivery.State{delivery.StatePending, delivery.StateSending, delivery.StateSent}, states)
}

func TestDispatch_AfterStop(t *testing.T) {
	h := newHarness(t, defaultConfig())
	ctx := context.Background()
	require.NoError(t, h.dispatcher.Start(ctx))
	h.dispatcher.Stop()

	_, err := h.dispatcher.Dispatch(ctx, h.request())
	assert.ErrorIs(t, err, delivery.ErrDispatcherStopped)

	_, err = h.dispatcher.RequeuePending(ctx)
	assert.ErrorIs(t, err, delivery.ErrDispatcherStopped)
}

func TestBackoff(t *testing.T) {
	d := NewDispatcher(config.DeliveryConfig{Backoff: 2 * time.Second}, nil, nil, nil, nil, nil)
	assert.Equal(t, 2*time.Second, d.Backoff(1))
	assert.Equal(t, 4*time.Second, d.Backoff(2))
	assert.Equal(t, 8*time.Second, d.Backoff(3))
	assert.Equal(t, 2*time.Second, d.Backoff(0))
}
