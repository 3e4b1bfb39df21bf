package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

type attendanceRepository struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

func (r *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec.Date = payroll.DateOf(rec.Date)
	for _, p := range r.s.periods {
		if p.Locked && p.Contains(rec.Date) {
			return attendance.Record{}, payroll.ErrPeriodLocked
		}
	}
	for _, existing := range r.s.attendance {
		if existing.EmployeeID == rec.EmployeeID && existing.Date.Equal(rec.Date) {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
	}
	if rec.ID == "" {
		rec.ID = newID()
	}
	rec.CreatedAt = r.s.now()
	r.s.attendance[rec.ID] = rec
	return rec, nil
}

func (r *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	from, to = payroll.DateOf(from), payroll.DateOf(to)
	var list []attendance.Record
	for _, rec := range r.s.attendance {
		if rec.EmployeeID != employeeID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Seed inserts records without the uniqueness check. Tests use it to stage
// data that predates the (employee, date) constraint.
func (r *attendanceRepository) Seed(records ...attendance.Record) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = newID()
		}
		rec.Date = payroll.DateOf(rec.Date)
		r.s.attendance[rec.ID] = rec
	}
}
