package delivery

import "context"

type TicketRepository interface {
	// Create inserts a PENDING ticket; an existing key yields ErrTicketExists.
	Create(ctx context.Context, t Ticket) (Ticket, error)
	GetByID(ctx context.Context, id string) (Ticket, error)
	GetByKey(ctx context.Context, key Key) (Ticket, error)
	// Transition is a compare-and-set: next is written only while the stored
	// state is one of from, otherwise ErrStateConflict.
	Transition(ctx context.Context, next Ticket, from ...State) (Ticket, error)
	ListByState(ctx context.Context, states ...State) ([]Ticket, error)
	ListByArtifact(ctx context.Context, artifactID string) ([]Ticket, error)
}
