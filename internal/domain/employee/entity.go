package employee

import (
	"strings"
	"time"
)

type Employee struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	NationalID string
	IsManager  bool
	ManagerID  *string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// IsTopManager reports a manager with nobody above them.
func (e Employee) IsTopManager() bool {
	return e.IsManager && e.ManagerID == nil
}

// ReportsTo reports whether managerID is this employee's direct manager.
func (e Employee) ReportsTo(managerID string) bool {
	return e.ManagerID != nil && *e.ManagerID == managerID
}
