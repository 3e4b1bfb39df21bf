package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const ticketColumns = `id, artifact_id, recipient, recipient_name, period_id, requested_by, state, attempts,
	last_error, next_attempt_at, sent_at, created_at, updated_at`

type ticketRepositoryImpl struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) delivery.TicketRepository {
	return &ticketRepositoryImpl{db: db}
}

func scanTicket(row pgx.Row) (delivery.Ticket, error) {
	var t delivery.Ticket
	err := row.Scan(
		&t.ID, &t.ArtifactID, &t.Recipient, &t.RecipientName, &t.PeriodID, &t.RequestedBy, &t.State, &t.Attempts,
		&t.LastError, &t.NextAttemptAt, &t.SentAt, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (r *ticketRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]delivery.Ticket, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery tickets: %w", err)
	}
	defer rows.Close()

	var list []delivery.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Create implements delivery.TicketRepository.
func (r *ticketRepositoryImpl) Create(ctx context.Context, t delivery.Ticket) (delivery.Ticket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO delivery_tickets (artifact_id, recipient, recipient_name, period_id, requested_by, state)
		VALUES ($1, $2, $3, $4, $5, 'PENDING')
		RETURNING ` + ticketColumns

	created, err := scanTicket(q.QueryRow(ctx, query, t.ArtifactID, t.Recipient, t.RecipientName, t.PeriodID, t.RequestedBy))
	if err != nil {
		if uniqueConstraint(err) != "" {
			return delivery.Ticket{}, delivery.ErrTicketExists
		}
		return delivery.Ticket{}, fmt.Errorf("failed to create delivery ticket: %w", err)
	}
	return created, nil
}

// GetByID implements delivery.TicketRepository.
func (r *ticketRepositoryImpl) GetByID(ctx context.Context, id string) (delivery.Ticket, error) {
	q := GetQuerier(ctx, r.db)

	t, err := scanTicket(q.QueryRow(ctx, `SELECT `+ticketColumns+` FROM delivery_tickets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return delivery.Ticket{}, delivery.ErrTicketNotFound
		}
		return delivery.Ticket{}, fmt.Errorf("failed to get delivery ticket: %w", err)
	}
	return t, nil
}

// GetByKey implements delivery.TicketRepository.
func (r *ticketRepositoryImpl) GetByKey(ctx context.Context, key delivery.Key) (delivery.Ticket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + ticketColumns + `
		FROM delivery_tickets
		WHERE artifact_id = $1 AND recipient = $2 AND period_id = $3
	`
	t, err := scanTicket(q.QueryRow(ctx, query, key.ArtifactID, key.Recipient, key.PeriodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return delivery.Ticket{}, delivery.ErrTicketNotFound
		}
		return delivery.Ticket{}, fmt.Errorf("failed to get delivery ticket: %w", err)
	}
	return t, nil
}

// Transition implements delivery.TicketRepository as a compare-and-set on state.
func (r *ticketRepositoryImpl) Transition(ctx context.Context, next delivery.Ticket, from ...delivery.State) (delivery.Ticket, error) {
	q := GetQuerier(ctx, r.db)

	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	query := `
		UPDATE delivery_tickets
		SET state = $2, attempts = $3, last_error = $4, next_attempt_at = $5, sent_at = $6, updated_at = NOW()
		WHERE id = $1 AND state = ANY($7)
		RETURNING ` + ticketColumns

	t, err := scanTicket(q.QueryRow(ctx, query,
		next.ID, next.State, next.Attempts, next.LastError, next.NextAttemptAt, next.SentAt, states,
	))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return delivery.Ticket{}, fmt.Errorf("failed to transition delivery ticket: %w", err)
	}
	if _, getErr := r.GetByID(ctx, next.ID); getErr != nil {
		return delivery.Ticket{}, getErr
	}
	return delivery.Ticket{}, delivery.ErrStateConflict
}

// ListByState implements delivery.TicketRepository.
func (r *ticketRepositoryImpl) ListByState(ctx context.Context, states ...delivery.State) ([]delivery.Ticket, error) {
	values := make([]string, len(states))
	for i, s := range states {
		values[i] = string(s)
	}
	return r.list(ctx, `SELECT `+ticketColumns+` FROM delivery_tickets WHERE state = ANY($1) ORDER BY created_at, id`, values)
}

// ListByArtifact implements delivery.TicketRepository.
func (r *ticketRepositoryImpl) ListByArtifact(ctx context.Context, artifactID string) ([]delivery.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM delivery_tickets WHERE artifact_id = $1 ORDER BY created_at, id`, artifactID)
}
