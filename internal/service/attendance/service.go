package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
)

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	periodRepo     payroll.PeriodRepository
	resolver       *accessservice.Resolver
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	periodRepo payroll.PeriodRepository,
	resolver *accessservice.Resolver,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		periodRepo:     periodRepo,
		resolver:       resolver,
	}
}

// CreateRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CreateRecord(ctx context.Context, req attendance.CreateRecordRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	requester, err := s.resolver.Require(ctx, access.CapAttendanceManage)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if _, err := s.resolver.Lookup(ctx, requester, req.EmployeeID); err != nil {
		return attendance.RecordResponse{}, err
	}

	date := req.RecordDate()
	period, err := s.periodRepo.GetByYearMonth(ctx, date.Year(), int(date.Month()))
	switch {
	case err == nil && period.Locked:
		return attendance.RecordResponse{}, fmt.Errorf("%w: %s", payroll.ErrPeriodLocked, period.Label())
	case err != nil && !errors.Is(err, payroll.ErrPeriodNotFound):
		return attendance.RecordResponse{}, fmt.Errorf("failed to check payroll period: %w", err)
	}

	created, err := s.attendanceRepo.Create(ctx, attendance.Record{
		EmployeeID:  req.EmployeeID,
		Date:        date,
		Status:      req.Status,
		HoursWorked: req.Hours(),
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	slog.Debug("Attendance recorded", "employee_id", created.EmployeeID, "date", created.Date.Format("2006-01-02"), "status", created.Status)
	return attendance.NewRecordResponse(created), nil
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.ListRecordsFilter) ([]attendance.RecordResponse, error) {
	from, to, err := filter.Validate()
	if err != nil {
		return nil, err
	}

	requester, err := s.resolver.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Lookup(ctx, requester, filter.EmployeeID); err != nil {
		return nil, err
	}

	records, err := s.attendanceRepo.ListByEmployee(ctx, filter.EmployeeID, from, to)
	if err != nil {
		return nil, err
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, attendance.NewRecordResponse(r))
	}
	return responses, nil
}

// MonthlySummary implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MonthlySummary(ctx context.Context, employeeID string, year, month int) (attendance.SummaryResponse, error) {
	bounds, err := payroll.NewPeriod(year, month)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}

	requester, err := s.resolver.Requester(ctx)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}
	if _, err := s.resolver.Lookup(ctx, requester, employeeID); err != nil {
		return attendance.SummaryResponse{}, err
	}

	records, err := s.attendanceRepo.ListByEmployee(ctx, employeeID, bounds.StartDate, bounds.EndDate)
	if err != nil {
		return attendance.SummaryResponse{}, err
	}

	return attendance.SummaryResponse{
		EmployeeID: employeeID,
		Period:     bounds.Label(),
		Summary:    attendance.Summarize(records),
	}, nil
}
