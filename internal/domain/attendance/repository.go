package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// Create rejects a second record for the same (employee, date) with ErrDuplicateRecord.
	Create(ctx context.Context, r Record) (Record, error)
	// ListByEmployee returns records with from <= date <= to, ordered by date.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
}
