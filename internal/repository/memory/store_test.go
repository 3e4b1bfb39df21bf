package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(NewStore())

	ana, err := repo.Create(ctx, employee.Employee{FirstName: "Ana", LastName: "Pop", Email: "ana@example.com", NationalID: "1900101123456", IsActive: true})
	require.NoError(t, err)
	assert.NotEmpty(t, ana.ID)

	_, err = repo.Create(ctx, employee.Employee{FirstName: "X", LastName: "Y", Email: "ANA@example.com", NationalID: "1900101999999"})
	assert.ErrorIs(t, err, employee.ErrEmailExists)

	_, err = repo.Create(ctx, employee.Employee{FirstName: "X", LastName: "Y", Email: "x@example.com", NationalID: "1900101123456"})
	assert.ErrorIs(t, err, employee.ErrNationalIDExists)

	// updating a record with its own email is not a conflict
	ana.FirstName = "Anca"
	updated, err := repo.Update(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, "Anca", updated.FirstName)
	assert.Equal(t, ana.CreatedAt, updated.CreatedAt)
}

func TestEmployeeRepository_ListDirectReports(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(NewStore())

	boss, err := repo.Create(ctx, employee.Employee{FirstName: "B", LastName: "Boss", Email: "b@example.com", NationalID: "1000000000001", IsManager: true, IsActive: true})
	require.NoError(t, err)
	for i, name := range []string{"Zed", "Abel"} {
		_, err := repo.Create(ctx, employee.Employee{FirstName: name, LastName: name, Email: name + "@example.com", NationalID: "100000000001" + string(rune('0'+i)), ManagerID: &boss.ID, IsActive: i == 0})
		require.NoError(t, err)
	}

	all, err := repo.ListDirectReports(ctx, boss.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Abel", all[0].LastName)

	active, err := repo.ListDirectReports(ctx, boss.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Zed", active[0].LastName)
}

func TestPayslipRepository_UpsertRespectsLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	periods := NewPeriodRepository(store)
	payslips := NewPayslipRepository(store)

	p, err := payroll.NewPeriod(2024, 1)
	require.NoError(t, err)
	period, err := periods.Create(ctx, p)
	require.NoError(t, err)

	first, err := payslips.Upsert(ctx, payroll.Payslip{EmployeeID: "e1", PeriodID: period.ID, NetPay: decimal.NewFromInt(100)})
	require.NoError(t, err)

	second, err := payslips.Upsert(ctx, payroll.Payslip{EmployeeID: "e1", PeriodID: period.ID, NetPay: decimal.NewFromInt(200)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	by := "top"
	_, err = periods.SetLocked(ctx, period.ID, true, &by, time.Now())
	require.NoError(t, err)

	_, err = payslips.Upsert(ctx, payroll.Payslip{EmployeeID: "e1", PeriodID: period.ID, NetPay: decimal.NewFromInt(300)})
	assert.ErrorIs(t, err, payroll.ErrPeriodLocked)

	stored, err := payslips.Get(ctx, "e1", period.ID)
	require.NoError(t, err)
	assert.True(t, stored.NetPay.Equal(decimal.NewFromInt(200)))
}

func TestPeriodRepository_UniqueAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewPeriodRepository(NewStore())

	for _, m := range []int{1, 3, 2} {
		p, err := payroll.NewPeriod(2024, m)
		require.NoError(t, err)
		_, err = repo.Create(ctx, p)
		require.NoError(t, err)
	}
	dup, _ := payroll.NewPeriod(2024, 2)
	_, err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, payroll.ErrPeriodExists)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03", list[0].Label())
	assert.Equal(t, "2024-01", list[2].Label())
}

func TestCompensationRepository_GetActive(t *testing.T) {
	ctx := context.Background()
	repo := NewCompensationRepository(NewStore())

	_, err := repo.Create(ctx, payroll.Compensation{EmployeeID: "e1", BaseAmount: decimal.NewFromInt(1000), EffectiveFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = repo.Create(ctx, payroll.Compensation{EmployeeID: "e1", BaseAmount: decimal.NewFromInt(2000), EffectiveFrom: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	c, err := repo.GetActive(ctx, "e1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, c.BaseAmount.Equal(decimal.NewFromInt(1000)))

	_, err = repo.GetActive(ctx, "e1", time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, payroll.ErrCompensationNotFound)
}

func TestBonusRepository_RejectsDuplicateReason(t *testing.T) {
	ctx := context.Background()
	repo := NewBonusRepository(NewStore())

	_, err := repo.Create(ctx, payroll.Bonus{EmployeeID: "e1", PeriodID: "p1", Amount: decimal.NewFromInt(50), Reason: "q1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, payroll.Bonus{EmployeeID: "e1", PeriodID: "p1", Amount: decimal.NewFromInt(70), Reason: "q1"})
	assert.ErrorIs(t, err, payroll.ErrBonusExists)
}

func TestAttendanceRepository_DuplicateAndRange(t *testing.T) {
	ctx := context.Background()
	repo := NewAttendanceRepository(NewStore())
	day := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, attendance.Record{EmployeeID: "e1", Date: day, Status: attendance.StatusUnpaidLeave})
	require.NoError(t, err)
	_, err = repo.Create(ctx, attendance.Record{EmployeeID: "e1", Date: day.Add(2 * time.Hour), Status: attendance.StatusPresent})
	assert.ErrorIs(t, err, attendance.ErrDuplicateRecord)

	list, err := repo.ListByEmployee(ctx, "e1", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAttendanceRepository_CreateRespectsLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	periods := NewPeriodRepository(store)
	repo := NewAttendanceRepository(store)

	p, err := payroll.NewPeriod(2024, 1)
	require.NoError(t, err)
	period, err := periods.Create(ctx, p)
	require.NoError(t, err)

	_, err = repo.Create(ctx, attendance.Record{EmployeeID: "e1", Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Status: attendance.StatusPresent})
	require.NoError(t, err)

	by := "top"
	_, err = periods.SetLocked(ctx, period.ID, true, &by, time.Now())
	require.NoError(t, err)

	_, err = repo.Create(ctx, attendance.Record{EmployeeID: "e1", Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Status: attendance.StatusUnpaidLeave})
	assert.ErrorIs(t, err, payroll.ErrPeriodLocked)

	// days outside the locked period are still accepted
	_, err = repo.Create(ctx, attendance.Record{EmployeeID: "e1", Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Status: attendance.StatusPresent})
	require.NoError(t, err)

	list, err := repo.ListByEmployee(ctx, "e1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestArtifactRepository_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewArtifactRepository(NewStore())

	first, err := repo.Upsert(ctx, report.Artifact{Kind: report.KindPayslip, PeriodID: "p1", SubjectID: "e1", Path: "a.pdf"})
	require.NoError(t, err)
	require.NoError(t, repo.SetDeliveryState(ctx, first.ID, report.DeliverySent))

	second, err := repo.Upsert(ctx, report.Artifact{Kind: report.KindPayslip, PeriodID: "p1", SubjectID: "e1", Path: "b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, report.DeliveryPending, second.DeliveryState)

	// archived artifacts no longer occupy the active slot
	require.NoError(t, repo.MarkArchived(ctx, []string{second.ID}, time.Now()))
	third, err := repo.Upsert(ctx, report.Artifact{Kind: report.KindPayslip, PeriodID: "p1", SubjectID: "e1", Path: "c.pdf"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestTicketRepository_TransitionIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(NewStore())

	ticket, err := repo.Create(ctx, delivery.Ticket{ArtifactID: "a1", Recipient: "x@example.com", PeriodID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, delivery.StatePending, ticket.State)

	_, err = repo.Create(ctx, delivery.Ticket{ArtifactID: "a1", Recipient: "x@example.com", PeriodID: "p1"})
	assert.ErrorIs(t, err, delivery.ErrTicketExists)

	sending := ticket
	sending.State = delivery.StateSending
	_, err = repo.Transition(ctx, sending, delivery.StatePending)
	require.NoError(t, err)

	// a second claim of the same PENDING ticket loses
	_, err = repo.Transition(ctx, sending, delivery.StatePending)
	assert.ErrorIs(t, err, delivery.ErrStateConflict)

	byKey, err := repo.GetByKey(ctx, ticket.Key())
	require.NoError(t, err)
	assert.Equal(t, delivery.StateSending, byKey.State)
}
