package delivery

import "errors"

var (
	ErrTicketNotFound    = errors.New("delivery ticket not found")
	ErrTicketExists      = errors.New("delivery ticket already exists for this key")
	ErrStateConflict     = errors.New("delivery ticket changed state concurrently")
	ErrTicketInFlight    = errors.New("delivery already handed to the mail transport")
	ErrTicketAlreadySent = errors.New("delivery already sent")
	ErrDispatcherStopped = errors.New("delivery dispatcher is stopped")
)
