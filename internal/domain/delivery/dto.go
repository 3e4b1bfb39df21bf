package delivery

import "time"

const EventTicketUpdated = "delivery.ticket"

type TicketResponse struct {
	ID            string     `json:"id"`
	ArtifactID    string     `json:"artifact_id"`
	Recipient     string     `json:"recipient"`
	PeriodID      string     `json:"period_id"`
	RequestedBy   string     `json:"requested_by"`
	State         State      `json:"state"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"last_error,omitempty"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func NewTicketResponse(t Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		ArtifactID:    t.ArtifactID,
		Recipient:     t.Recipient,
		PeriodID:      t.PeriodID,
		RequestedBy:   t.RequestedBy,
		State:         t.State,
		Attempts:      t.Attempts,
		LastError:     t.LastError,
		NextAttemptAt: t.NextAttemptAt,
		SentAt:        t.SentAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
