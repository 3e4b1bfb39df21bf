package delivery

import (
	"fmt"
	"time"
)

type State string

const (
	StatePending   State = "PENDING"
	StateSending   State = "SENDING"
	StateSent      State = "SENT"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Terminal states never move again without an explicit re-dispatch.
func (s State) Terminal() bool {
	return s == StateSent || s == StateFailed || s == StateCancelled
}

// Redispatchable states are reset to PENDING when the same key is dispatched again.
func (s State) Redispatchable() bool {
	return s == StateFailed || s == StateCancelled
}

// Key identifies one logical delivery; at most one email is sent per key.
type Key struct {
	ArtifactID string
	Recipient  string
	PeriodID   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s", k.ArtifactID, k.Recipient, k.PeriodID)
}

type Ticket struct {
	ID            string
	ArtifactID    string
	Recipient     string
	RecipientName string
	PeriodID      string
	RequestedBy   string
	State         State
	Attempts      int
	LastError     string
	NextAttemptAt *time.Time
	SentAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Ticket) Key() Key {
	return Key{ArtifactID: t.ArtifactID, Recipient: t.Recipient, PeriodID: t.PeriodID}
}
