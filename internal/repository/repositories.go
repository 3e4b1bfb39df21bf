// Package repository bundles the repositories of one storage driver.
package repository

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/delivery"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/postgresql"
)

type Repositories struct {
	Employees     employee.EmployeeRepository
	Periods       payroll.PeriodRepository
	Compensations payroll.CompensationRepository
	Bonuses       payroll.BonusRepository
	Payslips      payroll.PayslipRepository
	Attendance    attendance.AttendanceRepository
	Artifacts     report.ArtifactRepository
	Tickets       delivery.TicketRepository
}

func NewPostgres(db *database.DB) Repositories {
	return Repositories{
		Employees:     postgresql.NewEmployeeRepository(db),
		Periods:       postgresql.NewPeriodRepository(db),
		Compensations: postgresql.NewCompensationRepository(db),
		Bonuses:       postgresql.NewBonusRepository(db),
		Payslips:      postgresql.NewPayslipRepository(db),
		Attendance:    postgresql.NewAttendanceRepository(db),
		Artifacts:     postgresql.NewArtifactRepository(db),
		Tickets:       postgresql.NewTicketRepository(db),
	}
}

func NewMemory(store *memory.Store) Repositories {
	return Repositories{
		Employees:     memory.NewEmployeeRepository(store),
		Periods:       memory.NewPeriodRepository(store),
		Compensations: memory.NewCompensationRepository(store),
		Bonuses:       memory.NewBonusRepository(store),
		Payslips:      memory.NewPayslipRepository(store),
		Attendance:    memory.NewAttendanceRepository(store),
		Artifacts:     memory.NewArtifactRepository(store),
		Tickets:       memory.NewTicketRepository(store),
	}
}
