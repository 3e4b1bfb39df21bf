package employee

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrEmailExists          = errors.New("email already registered")
	ErrNationalIDExists     = errors.New("national id already registered")
	ErrInvalidManager       = errors.New("assigned manager must be an active manager")
	ErrSelfManaged          = errors.New("employee cannot be their own manager")
	ErrManagerCycle         = errors.New("manager assignment would create a cycle")
	ErrManagerHasReports    = errors.New("employee still has direct reports")
	ErrCannotDeactivateSelf = errors.New("cannot deactivate your own employee record")
)
