package access

import "errors"

var (
	ErrUnauthenticated        = errors.New("requester is not authenticated")
	ErrInactiveRequester      = errors.New("requester account is inactive")
	ErrInsufficientCapability = errors.New("insufficient capability")
)
