package access

import "github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"

// Requester is the acting employee resolved for one request.
type Requester struct {
	Employee employee.Employee
	Role     Role
}

func NewRequester(e employee.Employee) Requester {
	return Requester{Employee: e, Role: RoleOf(e)}
}

func (r Requester) ID() string {
	return r.Employee.ID
}

func (r Requester) Can(c Capability) bool {
	return HasCapability(r.Role, c)
}

// Allows is the scope predicate: everyone for CapViewAll holders, otherwise
// self and direct reports, one level deep.
func (r Requester) Allows(target employee.Employee) bool {
	if r.Can(CapViewAll) {
		return true
	}
	return target.ID == r.Employee.ID || target.ReportsTo(r.Employee.ID)
}
