package delivery

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
)

type DeliveryService interface {
	GetTicket(ctx context.Context, id string) (TicketResponse, error)
	ListTickets(ctx context.Context, artifactID string) ([]TicketResponse, error)
	CancelTicket(ctx context.Context, id string) (TicketResponse, error)
	// Subscribe streams ticket events for the employee named by a verified
	// stream token until cleanup is called.
	Subscribe(ctx context.Context, employeeID string) (<-chan sse.Event, func(), error)
}
