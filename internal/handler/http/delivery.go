package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

const streamKeepalive = 30 * time.Second

type DeliveryHandler interface {
	GetTicket(w http.ResponseWriter, r *http.Request)
	ListTickets(w http.ResponseWriter, r *http.Request)
	CancelTicket(w http.ResponseWriter, r *http.Request)

	// SSE
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type deliveryHandlerImpl struct {
	deliveryService delivery.DeliveryService
	jwtService      jwt.Service
}

func NewDeliveryHandler(deliveryService delivery.DeliveryService, jwtService jwt.Service) DeliveryHandler {
	return &deliveryHandlerImpl{
		deliveryService: deliveryService,
		jwtService:      jwtService,
	}
}

// GetTicket implements DeliveryHandler
func (h *deliveryHandlerImpl) GetTicket(w http.ResponseWriter, r *http.Request) {
	result, err := h.deliveryService.GetTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListTickets implements DeliveryHandler
func (h *deliveryHandlerImpl) ListTickets(w http.ResponseWriter, r *http.Request) {
	results, err := h.deliveryService.ListTickets(r.Context(), chi.URLParam(r, "artifactID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// CancelTicket implements DeliveryHandler
func (h *deliveryHandlerImpl) CancelTicket(w http.ResponseWriter, r *http.Request) {
	result, err := h.deliveryService.CancelTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Delivery cancelled", result)
}

// GetSSEToken issues a short-lived token for the ticket event stream
func (h *deliveryHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	employeeID, err := jwt.EmployeeIDFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(employeeID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, delivery.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream pushes ticket state changes for the token's employee
func (h *deliveryHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the token rides in the query
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	employeeID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, cleanup, err := h.deliveryService.Subscribe(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"employee_id\":%q}\n\n", employeeID)
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Warn("dropping unencodable stream event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
