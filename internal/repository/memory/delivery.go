package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
)

type ticketRepository struct {
	s *Store
}

func NewTicketRepository(s *Store) delivery.TicketRepository {
	return &ticketRepository{s: s}
}

func copyTicket(t delivery.Ticket) delivery.Ticket {
	t.NextAttemptAt = cloneTimePtr(t.NextAttemptAt)
	t.SentAt = cloneTimePtr(t.SentAt)
	return t
}

func (r *ticketRepository) Create(ctx context.Context, t delivery.Ticket) (delivery.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.tickets {
		if existing.Key() == t.Key() {
			return delivery.Ticket{}, delivery.ErrTicketExists
		}
	}
	if t.ID == "" {
		t.ID = newID()
	}
	now := r.s.now()
	t.State = delivery.StatePending
	t.CreatedAt = now
	t.UpdatedAt = now
	r.s.tickets[t.ID] = copyTicket(t)
	return copyTicket(t), nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (delivery.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tickets[id]
	if !ok {
		return delivery.Ticket{}, delivery.ErrTicketNotFound
	}
	return copyTicket(t), nil
}

func (r *ticketRepository) GetByKey(ctx context.Context, key delivery.Key) (delivery.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tickets {
		if t.Key() == key {
			return copyTicket(t), nil
		}
	}
	return delivery.Ticket{}, delivery.ErrTicketNotFound
}

func (r *ticketRepository) Transition(ctx context.Context, next delivery.Ticket, from ...delivery.State) (delivery.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.tickets[next.ID]
	if !ok {
		return delivery.Ticket{}, delivery.ErrTicketNotFound
	}
	allowed := false
	for _, s := range from {
		if current.State == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return delivery.Ticket{}, delivery.ErrStateConflict
	}

	// identity and key columns are immutable
	next.ArtifactID = current.ArtifactID
	next.Recipient = current.Recipient
	next.RecipientName = current.RecipientName
	next.PeriodID = current.PeriodID
	next.RequestedBy = current.RequestedBy
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = r.s.now()
	r.s.tickets[next.ID] = copyTicket(next)
	return copyTicket(next), nil
}

func (r *ticketRepository) ListByState(ctx context.Context, states ...delivery.State) ([]delivery.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []delivery.Ticket
	for _, t := range r.s.tickets {
		for _, s := range states {
			if t.State == s {
				list = append(list, copyTicket(t))
				break
			}
		}
	}
	sortTickets(list)
	return list, nil
}

func (r *ticketRepository) ListByArtifact(ctx context.Context, artifactID string) ([]delivery.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []delivery.Ticket
	for _, t := range r.s.tickets {
		if t.ArtifactID == artifactID {
			list = append(list, copyTicket(t))
		}
	}
	sortTickets(list)
	return list, nil
}

func sortTickets(list []delivery.Ticket) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
