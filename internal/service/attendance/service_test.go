package attendance_test

import (
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/access"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/fixtures"
	accessservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/access"
	attendanceservice "github.com/cmlabs-hris/payroll-backend-go/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(org *fixtures.Org) attendance.AttendanceService {
	return attendanceservice.NewAttendanceService(org.Repos.Attendance, org.Repos.Periods, accessservice.NewResolver(org.Repos.Employees))
}

func hours(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateRecord(t *testing.T) {
	org := fixtures.NewOrg(t)
	svc := newService(org)
	ctx := fixtures.ContextFor(t, org.Manager.ID)

	rec, err := svc.CreateRecord(ctx, attendance.CreateRecordRequest{
		EmployeeID: org.Report.ID, Date: "2024-01-10", Status: "present", HoursWorked: hours("8"),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.Equal(t, "2024-01-10", rec.Date)

	_, err = svc.CreateRecord(ctx, attendance.CreateRecordRequest{
		EmployeeID: org.Report.ID, Date: "2024-01-10", Status: attendance.StatusUnpaidLeave,
	})
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)

	// peer is not a direct report of the manager
	_, err = svc.CreateRecord(ctx, attendance.CreateRecordRequest{
		EmployeeID: org.Peer.ID, Date: "2024-01-10", Status: attendance.StatusUnpaidLeave,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.CreateRecord(fixtures.ContextFor(t, org.Report.ID), attendance.CreateRecordRequest{
		EmployeeID: org.Report.ID, Date: "2024-01-11", Status: attendance.StatusUnpaidLeave,
	})
	assert.ErrorIs(t, err, access.ErrInsufficientCapability)
}

func TestCreateRecord_LockedPeriod(t *testing.T) {
	org := fixtures.NewOrg(t)
	svc := newService(org)
	period := org.Period(t, 2024, 2)
	org.Lock(t, period.ID)

	_, err := svc.CreateRecord(fixtures.ContextFor(t, org.Top.ID), attendance.CreateRecordRequest{
		EmployeeID: org.Peer.ID, Date: "2024-02-05", Status: attendance.StatusUnpaidLeave,
	})
	assert.ErrorIs(t, err, payroll.ErrPeriodLocked)
}

func TestListRecordsAndSummary(t *testing.T) {
	org := fixtures.NewOrg(t)
	svc := newService(org)
	ctx := fixtures.ContextFor(t, org.Top.ID)

	for _, req := range []attendance.CreateRecordRequest{
		{EmployeeID: org.Peer.ID, Date: "2024-03-01", Status: attendance.StatusPresent, HoursWorked: hours("7.5")},
		{EmployeeID: org.Peer.ID, Date: "2024-03-04", Status: attendance.StatusUnpaidLeave},
		{EmployeeID: org.Peer.ID, Date: "2024-03-05", Status: attendance.StatusPaidLeave},
		{EmployeeID: org.Peer.ID, Date: "2024-04-01", Status: attendance.StatusPresent, HoursWorked: hours("8")},
	} {
		_, err := svc.CreateRecord(ctx, req)
		require.NoError(t, err)
	}

	list, err := svc.ListRecords(ctx, attendance.ListRecordsFilter{EmployeeID: org.Peer.ID, From: "2024-03-01", To: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03-01", list[0].Date)

	summary, err := svc.MonthlySummary(ctx, org.Peer.ID, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Period)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 1, summary.UnpaidLeave)
	assert.Equal(t, 1, summary.PaidLeave)
	assert.True(t, summary.HoursWorked.Equal(decimal.RequireFromString("7.5")))

	_, err = svc.MonthlySummary(fixtures.ContextFor(t, org.Report.ID), org.Peer.ID, 2024, 3)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.MonthlySummary(ctx, org.Peer.ID, 2024, 13)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}
