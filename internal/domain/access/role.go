package access

import "github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"

type Role string

const (
	RoleTopManager Role = "top_manager"
	RoleManager    Role = "manager"
	RoleEmployee   Role = "employee"
)

type Capability string

const (
	// Scope
	CapViewAll Capability = "employee.view_all"

	// Directory and ledgers
	CapEmployeeManage     Capability = "employee.manage"
	CapCompensationManage Capability = "compensation.manage"
	CapAttendanceManage   Capability = "attendance.manage"

	// Payroll close
	CapPeriodManage Capability = "period.manage"

	// Payslips and reports
	CapPayslipGenerate Capability = "payslip.generate"
	CapReportExport    Capability = "report.export"
	CapDeliveryManage  Capability = "delivery.manage"
)

// RoleCapabilities maps roles to their capabilities
var RoleCapabilities = map[Role][]Capability{
	RoleTopManager: {
		CapViewAll,
		CapEmployeeManage,
		CapCompensationManage,
		CapAttendanceManage,
		CapPeriodManage,
		CapPayslipGenerate,
		CapReportExport,
		CapDeliveryManage,
	},
	RoleManager: {
		CapEmployeeManage,
		CapCompensationManage,
		CapAttendanceManage,
		CapPayslipGenerate,
		CapReportExport,
		CapDeliveryManage,
	},
	RoleEmployee: {},
}

// HasCapability checks if a role has a specific capability
func HasCapability(role Role, capability Capability) bool {
	for _, c := range RoleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// RoleOf derives the role from the directory record, never from token claims.
func RoleOf(e employee.Employee) Role {
	switch {
	case e.IsTopManager():
		return RoleTopManager
	case e.IsManager:
		return RoleManager
	default:
		return RoleEmployee
	}
}
