package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	// the insert is skipped when a locked period covers the date
	query := `
		INSERT INTO attendance_records (employee_id, date, status, hours_worked)
		SELECT $1, $2::date, $3, $4
		WHERE NOT EXISTS (
			SELECT 1 FROM payroll_periods p
			WHERE p.locked AND $2::date BETWEEN p.start_date AND p.end_date
		)
		RETURNING id, employee_id, date, status, hours_worked, created_at
	`

	var created attendance.Record
	err := q.QueryRow(ctx, query, rec.EmployeeID, payroll.DateOf(rec.Date), rec.Status, rec.HoursWorked).Scan(
		&created.ID, &created.EmployeeID, &created.Date, &created.Status, &created.HoursWorked, &created.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, payroll.ErrPeriodLocked
		}
		if uniqueConstraint(err) != "" {
			return attendance.Record{}, attendance.ErrDuplicateRecord
		}
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	created.Date = payroll.DateOf(created.Date)
	return created, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, date, status, hours_worked, created_at
		FROM attendance_records
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, id
	`
	rows, err := q.Query(ctx, query, employeeID, payroll.DateOf(from), payroll.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.HoursWorked, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Date = payroll.DateOf(rec.Date)
		records = append(records, rec)
	}
	return records, rows.Err()
}
