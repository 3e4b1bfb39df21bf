package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/fixtures"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryService_Visibility(t *testing.T) {
	h := newHarness(t, defaultConfig())
	svc := NewDeliveryService(h.org.Repos.Tickets, h.dispatcher, h.hub, accessservice.NewResolver(h.org.Repos.Employees))

	ticket, err := h.dispatcher.Dispatch(context.Background(), h.request())
	require.NoError(t, err)

	mgr := fixtures.ContextFor(t, h.org.Manager.ID)
	got, err := svc.GetTicket(mgr, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, h.org.Report.Email, got.Recipient)

	_, err = svc.GetTicket(fixtures.ContextFor(t, h.org.Top.ID), ticket.ID)
	assert.NoError(t, err)

	_, err = svc.GetTicket(fixtures.ContextFor(t, h.org.Peer.ID), ticket.ID)
	assert.ErrorIs(t, err, delivery.ErrTicketNotFound)

	list, err := svc.ListTickets(fixtures.ContextFor(t, h.org.Peer.ID), h.artifact.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.ListTickets(mgr, h.artifact.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDeliveryService_CancelTicket(t *testing.T) {
	h := newHarness(t, defaultConfig())
	svc := NewDeliveryService(h.org.Repos.Tickets, h.dispatcher, h.hub, accessservice.NewResolver(h.org.Repos.Employees))

	ticket, err := h.dispatcher.Dispatch(context.Background(), h.request())
	require.NoError(t, err)

	_, err = svc.CancelTicket(fixtures.ContextFor(t, h.org.Report.ID), ticket.ID)
	assert.ErrorIs(t, err, access.ErrInsufficientCapability)

	cancelled, err := svc.CancelTicket(fixtures.ContextFor(t, h.org.Manager.ID), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StateCancelled, cancelled.State)
}

func TestDeliveryService_Subscribe(t *testing.T) {
	h := newHarness(t, defaultConfig())
	svc := NewDeliveryService(h.org.Repos.Tickets, h.dispatcher, h.hub, accessservice.NewResolver(h.org.Repos.Employees))

	events, cleanup, err := svc.Subscribe(context.Background(), h.org.Manager.ID)
	require.NoError(t, err)
	defer cleanup()

	_, err = h.dispatcher.Dispatch(context.Background(), h.request())
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, delivery.EventTicketUpdated, ev.Event)
		assert.Equal(t, h.org.Manager.ID, ev.Topic)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	_, _, err = svc.Subscribe(context.Background(), "unknown")
	assert.ErrorIs(t, err, access.ErrUnauthenticated)

	_, _, err = svc.Subscribe(context.Background(), h.org.Inactive.ID)
	assert.ErrorIs(t, err, access.ErrInactiveRequester)
}
