package delivery

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/sse"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
)

type DeliveryServiceImpl struct {
	ticketRepo delivery.TicketRepository
	dispatcher *Dispatcher
	hub        *sse.Hub
	resolver   *accessservice.Resolver
}

func NewDeliveryService(
	ticketRepo delivery.TicketRepository,
	dispatcher *Dispatcher,
	hub *sse.Hub,
	resolver *accessservice.Resolver,
) delivery.DeliveryService {
	return &DeliveryServiceImpl{
		ticketRepo: ticketRepo,
		dispatcher: dispatcher,
		hub:        hub,
		resolver:   resolver,
	}
}

// visible: the requester who dispatched the ticket, or anyone with the
// view-all capability.
func visible(req access.Requester, t delivery.Ticket) bool {
	return t.RequestedBy == req.ID() || req.Can(access.CapViewAll)
}

func (s *DeliveryServiceImpl) lookup(ctx context.Context, req access.Requester, id string) (delivery.Ticket, error) {
	t, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return delivery.Ticket{}, err
	}
	if !visible(req, t) {
		return delivery.Ticket{}, delivery.ErrTicketNotFound
	}
	return t, nil
}

// GetTicket implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) GetTicket(ctx context.Context, id string) (delivery.TicketResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return delivery.TicketResponse{}, err
	}
	t, err := s.lookup(ctx, req, id)
	if err != nil {
		return delivery.TicketResponse{}, err
	}
	return delivery.NewTicketResponse(t), nil
}

// ListTickets implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) ListTickets(ctx context.Context, artifactID string) ([]delivery.TicketResponse, error) {
	req, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ticketRepo.ListByArtifact(ctx, artifactID)
	if err != nil {
		return nil, err
	}

	responses := make([]delivery.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		if visible(req, t) {
			responses = append(responses, delivery.NewTicketResponse(t))
		}
	}
	return responses, nil
}

// CancelTicket implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) CancelTicket(ctx context.Context, id string) (delivery.TicketResponse, error) {
	req, err := s.resolver.Require(ctx, access.CapDeliveryManage)
	if err != nil {
		return delivery.TicketResponse{}, err
	}
	if _, err := s.lookup(ctx, req, id); err != nil {
		return delivery.TicketResponse{}, err
	}

	t, err := s.dispatcher.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, delivery.ErrTicketInFlight) || errors.Is(err, delivery.ErrTicketAlreadySent) {
			return delivery.NewTicketResponse(t), err
		}
		return delivery.TicketResponse{}, err
	}
	return delivery.NewTicketResponse(t), nil
}

// Subscribe implements delivery.DeliveryService.
func (s *DeliveryServiceImpl) Subscribe(ctx context.Context, employeeID string) (<-chan sse.Event, func(), error) {
	req, err := s.resolver.RequesterByID(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	ch, cleanup := s.hub.Subscribe(req.ID())
	return ch, cleanup, nil
}
