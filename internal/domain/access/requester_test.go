package access

import (
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestRoleOf(t *testing.T) {
	assert.Equal(t, RoleTopManager, RoleOf(employee.Employee{IsManager: true}))
	assert.Equal(t, RoleManager, RoleOf(employee.Employee{IsManager: true, ManagerID: ptr("top")}))
	assert.Equal(t, RoleEmployee, RoleOf(employee.Employee{ManagerID: ptr("mgr")}))
	// a non-manager without a manager is still just an employee
	assert.Equal(t, RoleEmployee, RoleOf(employee.Employee{}))
}

func TestRequester_Allows(t *testing.T) {
	top := NewRequester(employee.Employee{ID: "top", IsManager: true})
	mgr := NewRequester(employee.Employee{ID: "a", IsManager: true, ManagerID: ptr("top")})
	worker := NewRequester(employee.Employee{ID: "b", ManagerID: ptr("a")})

	b := employee.Employee{ID: "b", ManagerID: ptr("a")}
	c := employee.Employee{ID: "c", ManagerID: ptr("top")}
	grandchild := employee.Employee{ID: "d", ManagerID: ptr("b")}

	assert.True(t, top.Allows(b))
	assert.True(t, top.Allows(c))

	assert.True(t, mgr.Allows(mgr.Employee))
	assert.True(t, mgr.Allows(b))
	assert.False(t, mgr.Allows(c))
	assert.False(t, mgr.Allows(grandchild))

	assert.True(t, worker.Allows(b))
	assert.False(t, worker.Allows(c))
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, HasCapability(RoleTopManager, CapPeriodManage))
	assert.False(t, HasCapability(RoleManager, CapPeriodManage))
	assert.False(t, HasCapability(RoleManager, CapViewAll))
	assert.True(t, HasCapability(RoleManager, CapPayslipGenerate))
	assert.False(t, HasCapability(RoleEmployee, CapPayslipGenerate))
	assert.False(t, HasCapability(Role("unknown"), CapViewAll))
}
