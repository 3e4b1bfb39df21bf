package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/config"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/storage"
)

const interruptedError = "interrupted: process stopped while sending"

// Request names one delivery: an artifact mailed to one recipient.
type Request struct {
	ArtifactID    string
	PeriodID      string
	Recipient     string
	RecipientName string
	RequestedBy   string
}

// Dispatcher owns the delivery worker pool. Tickets are persisted first and
// only then handed to the in-process queue, so a full queue or a restart
// never loses a delivery; the requeue sweep picks PENDING tickets back up.
type Dispatcher struct {
	tickets   delivery.TicketRepository
	artifacts report.ArtifactRepository
	storage   storage.FileStorage
	mailer    email.EmailService
	hub       *sse.Hub
	cfg       config.DeliveryConfig

	queue  chan string
	wg     sync.WaitGroup
	mu     sync.Mutex
	cancel context.CancelFunc
	state  dispatcherState

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type dispatcherState int

const (
	dispatcherIdle dispatcherState = iota
	dispatcherRunning
	dispatcherStopped
)

func NewDispatcher(
	cfg config.DeliveryConfig,
	tickets delivery.TicketRepository,
	artifacts report.ArtifactRepository,
	fileStorage storage.FileStorage,
	mailer email.EmailService,
	hub *sse.Hub,
) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Dispatcher{
		tickets:   tickets,
		artifacts: artifacts,
		storage:   fileStorage,
		mailer:    mailer,
		hub:       hub,
		cfg:       cfg,
		queue:     make(chan string, cfg.QueueSize),
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ========== LIFECYCLE ==========

// Start recovers tickets left over by a previous process and launches the
// workers. Tickets found SENDING may or may not have reached the recipient,
// so they fail instead of being sent twice.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.state != dispatcherIdle {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already started")
	}
	workerCtx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.state = dispatcherRunning
	d.mu.Unlock()

	if err := d.recoverInterrupted(ctx); err != nil {
		return err
	}

	for range d.cfg.Workers {
		d.wg.Add(1)
		go d.worker(workerCtx)
	}
	slog.Info("Delivery dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)

	if _, err := d.RequeuePending(ctx); err != nil {
		slog.Error("Failed to requeue pending deliveries on startup", "error", err)
	}
	return nil
}

// Stop cancels in-flight backoffs and waits for workers to exit. Tickets
// still PENDING stay persisted for the next start.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.state != dispatcherRunning {
		d.state = dispatcherStopped
		d.mu.Unlock()
		return
	}
	d.state = dispatcherStopped
	cancel := d.cancel
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
	slog.Info("Delivery dispatcher stopped")
}

func (d *Dispatcher) stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == dispatcherStopped
}

func (d *Dispatcher) recoverInterrupted(ctx context.Context) error {
	sending, err := d.tickets.ListByState(ctx, delivery.StateSending)
	if err != nil {
		return fmt.Errorf("failed to list interrupted deliveries: %w", err)
	}
	for _, t := range sending {
		t.State = delivery.StateFailed
		t.LastError = interruptedError
		t.NextAttemptAt = nil
		updated, err := d.tickets.Transition(ctx, t, delivery.StateSending)
		if err != nil {
			if errors.Is(err, delivery.ErrStateConflict) {
				continue
			}
			return fmt.Errorf("failed to fail interrupted delivery: %w", err)
		}
		slog.Warn("Delivery interrupted by restart, marked failed", "ticket_id", t.ID, "recipient", t.Recipient)
		d.publish(ctx, updated)
	}
	return nil
}

// RequeuePending hands every due PENDING ticket back to the queue. Tickets
// waiting out a backoff are left to the worker that owns them.
func (d *Dispatcher) RequeuePending(ctx context.Context) (int, error) {
	if d.stopped() {
		return 0, delivery.ErrDispatcherStopped
	}
	pending, err := d.tickets.ListByState(ctx, delivery.StatePending)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending deliveries: %w", err)
	}

	now := d.now()
	queued := 0
	for _, t := range pending {
		if t.NextAttemptAt != nil && t.NextAttemptAt.After(now) {
			continue
		}
		if !d.enqueue(t.ID) {
			break
		}
		queued++
	}
	return queued, nil
}

func (d *Dispatcher) enqueue(ticketID string) bool {
	select {
	case d.queue <- ticketID:
		return true
	default:
		slog.Warn("Delivery queue full, ticket left pending", "ticket_id", ticketID)
		return false
	}
}

// ========== DISPATCH ==========

// Dispatch creates or reuses the ticket for (artifact, recipient, period).
// A key that is pending, sending or sent comes back unchanged; a failed or
// cancelled key is reset and sent again.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (delivery.Ticket, error) {
	if d.stopped() {
		return delivery.Ticket{}, delivery.ErrDispatcherStopped
	}
	req.Recipient = strings.ToLower(strings.TrimSpace(req.Recipient))
	if req.Recipient == "" {
		return delivery.Ticket{}, report.ErrNoRecipient
	}

	ticket, err := d.tickets.Create(ctx, delivery.Ticket{
		ArtifactID:    req.ArtifactID,
		Recipient:     req.Recipient,
		RecipientName: req.RecipientName,
		PeriodID:      req.PeriodID,
		RequestedBy:   req.RequestedBy,
	})
	switch {
	case err == nil:
		slog.Info("Delivery dispatched", "ticket_id", ticket.ID, "artifact_id", ticket.ArtifactID, "recipient", ticket.Recipient)
	case errors.Is(err, delivery.ErrTicketExists):
		var reset bool
		ticket, reset, err = d.redispatch(ctx, delivery.Key{ArtifactID: req.ArtifactID, Recipient: req.Recipient, PeriodID: req.PeriodID})
		if err != nil {
			return delivery.Ticket{}, err
		}
		if !reset {
			d.syncArtifact(ctx, ticket)
			return ticket, nil
		}
	default:
		return delivery.Ticket{}, fmt.Errorf("failed to create delivery ticket: %w", err)
	}

	d.publish(ctx, ticket)
	d.enqueue(ticket.ID)
	return ticket, nil
}

// redispatch returns the ticket for an existing key, resetting it to
// PENDING when its previous run ended in FAILED or CANCELLED.
func (d *Dispatcher) redispatch(ctx context.Context, key delivery.Key) (delivery.Ticket, bool, error) {
	existing, err := d.tickets.GetByKey(ctx, key)
	if err != nil {
		return delivery.Ticket{}, false, err
	}
	if !existing.State.Redispatchable() {
		return existing, false, nil
	}

	previous := existing.State
	existing.State = delivery.StatePending
	existing.Attempts = 0
	existing.LastError = ""
	existing.NextAttemptAt = nil
	existing.SentAt = nil
	reset, err := d.tickets.Transition(ctx, existing, delivery.StateFailed, delivery.StateCancelled)
	if err != nil {
		if errors.Is(err, delivery.ErrStateConflict) {
			// someone else re-dispatched first
			current, err := d.tickets.GetByKey(ctx, key)
			return current, false, err
		}
		return delivery.Ticket{}, false, err
	}
	slog.Info("Delivery re-dispatched", "ticket_id", reset.ID, "previous_state", previous)
	return reset, true, nil
}

// Cancel stops a ticket that has not reached the mail transport yet.
func (d *Dispatcher) Cancel(ctx context.Context, ticketID string) (delivery.Ticket, error) {
	for {
		t, err := d.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return delivery.Ticket{}, err
		}

		switch t.State {
		case delivery.StateSending:
			return t, delivery.ErrTicketInFlight
		case delivery.StateSent:
			return t, delivery.ErrTicketAlreadySent
		case delivery.StateFailed, delivery.StateCancelled:
			return t, nil
		}

		t.State = delivery.StateCancelled
		t.NextAttemptAt = nil
		cancelled, err := d.tickets.Transition(ctx, t, delivery.StatePending)
		if errors.Is(err, delivery.ErrStateConflict) {
			// a worker picked it up; report what it became
			continue
		}
		if err != nil {
			return delivery.Ticket{}, err
		}

		slog.Info("Delivery cancelled", "ticket_id", cancelled.ID)
		d.publish(ctx, cancelled)
		return cancelled, nil
	}
}

// ========== WORKERS ==========

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-d.queue:
			d.process(ctx, id)
		}
	}
}

// process runs the attempts of one ticket. Every state change is a
// compare-and-set, so duplicate queue entries and concurrent cancels
// resolve to a single send.
func (d *Dispatcher) process(ctx context.Context, ticketID string) {
	retrying := false
	for {
		t, err := d.tickets.GetByID(ctx, ticketID)
		if err != nil {
			slog.Error("Failed to load delivery ticket", "ticket_id", ticketID, "error", err)
			return
		}
		if t.State != delivery.StatePending {
			return
		}
		if !retrying && t.NextAttemptAt != nil && t.NextAttemptAt.After(d.now()) {
			return
		}

		t.State = delivery.StateSending
		t.Attempts++
		t.NextAttemptAt = nil
		sending, err := d.tickets.Transition(ctx, t, delivery.StatePending)
		if err != nil {
			if !errors.Is(err, delivery.ErrStateConflict) {
				slog.Error("Failed to claim delivery ticket", "ticket_id", ticketID, "error", err)
			}
			return
		}
		d.publish(ctx, sending)

		sendErr := d.send(ctx, sending)
		next, retryAfter := d.outcome(sending, sendErr)
		updated, err := d.tickets.Transition(context.WithoutCancel(ctx), next, delivery.StateSending)
		if err != nil {
			slog.Error("Failed to record delivery outcome", "ticket_id", ticketID, "state", next.State, "error", err)
			return
		}
		d.publish(ctx, updated)

		if updated.State != delivery.StatePending {
			return
		}
		if err := d.sleep(ctx, retryAfter); err != nil {
			return
		}
		retrying = true
	}
}

// outcome maps a send result onto the next ticket state and the backoff
// before the following attempt.
func (d *Dispatcher) outcome(t delivery.Ticket, sendErr error) (delivery.Ticket, time.Duration) {
	now := d.now()
	if sendErr == nil {
		t.State = delivery.StateSent
		t.LastError = ""
		t.SentAt = &now
		slog.Info("Delivery sent", "ticket_id", t.ID, "recipient", t.Recipient, "attempts", t.Attempts)
		return t, 0
	}

	t.LastError = sendErr.Error()
	if errors.Is(sendErr, email.ErrPermanent) || t.Attempts >= d.cfg.MaxAttempts {
		t.State = delivery.StateFailed
		slog.Error("Delivery failed", "ticket_id", t.ID, "recipient", t.Recipient, "attempts", t.Attempts, "error", sendErr)
		return t, 0
	}

	backoff := d.Backoff(t.Attempts)
	retryAt := now.Add(backoff)
	t.State = delivery.StatePending
	t.NextAttemptAt = &retryAt
	slog.Warn("Delivery attempt failed, retrying", "ticket_id", t.ID, "attempt", t.Attempts, "backoff", backoff, "error", sendErr)
	return t, backoff
}

// Backoff is base * 2^(attempt-1).
func (d *Dispatcher) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return d.cfg.Backoff * time.Duration(1<<uint(attempt-1))
}

func (d *Dispatcher) send(ctx context.Context, t delivery.Ticket) error {
	artifact, err := d.artifacts.GetByID(ctx, t.ArtifactID)
	if err != nil {
		if errors.Is(err, report.ErrArtifactNotFound) {
			return fmt.Errorf("%w: %v", email.ErrPermanent, err)
		}
		return err
	}
	data, err := storage.ReadAll(ctx, d.storage, artifact.Path)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return fmt.Errorf("%w: artifact file missing", email.ErrPermanent)
		}
		return err
	}

	attachment := email.Attachment{
		Filename:    artifact.FileName(),
		ContentType: artifact.ContentType,
		Data:        data,
	}

	sendCtx := ctx
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}

	switch artifact.Kind {
	case report.KindPayslip:
		return d.mailer.SendPayslip(sendCtx, t.Recipient, t.RecipientName, artifact.PeriodLabel, attachment)
	case report.KindTeamSummary:
		return d.mailer.SendTeamSummary(sendCtx, t.Recipient, t.RecipientName, artifact.PeriodLabel, attachment)
	}
	return fmt.Errorf("%w: %s artifacts are not mailed", email.ErrPermanent, artifact.Kind)
}

// publish mirrors the ticket onto its artifact and streams it to the requester.
// syncArtifact mirrors the ticket state onto its artifact.
func (d *Dispatcher) syncArtifact(ctx context.Context, t delivery.Ticket) {
	if err := d.artifacts.SetDeliveryState(context.WithoutCancel(ctx), t.ArtifactID, report.DeliveryStateOf(t.State)); err != nil {
		slog.Warn("Failed to sync artifact delivery state", "artifact_id", t.ArtifactID, "error", err)
	}
}

func (d *Dispatcher) publish(ctx context.Context, t delivery.Ticket) {
	d.syncArtifact(ctx, t)
	if d.hub != nil && t.RequestedBy != "" {
		d.hub.Publish(sse.Event{
			Event: delivery.EventTicketUpdated,
			Data:  delivery.NewTicketResponse(t),
		}, t.RequestedBy)
	}
}
