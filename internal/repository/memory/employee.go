package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func copyEmployee(e employee.Employee) employee.Employee {
	e.ManagerID = cloneStringPtr(e.ManagerID)
	return e
}

func sortEmployees(list []employee.Employee) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastName != list[j].LastName {
			return list[i].LastName < list[j].LastName
		}
		if list[i].FirstName != list[j].FirstName {
			return list[i].FirstName < list[j].FirstName
		}
		return list[i].ID < list[j].ID
	})
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return copyEmployee(e), nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.employees {
		if strings.EqualFold(e.Email, email) {
			return copyEmployee(e), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) GetByNationalID(ctx context.Context, nationalID string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.employees {
		if e.NationalID == nationalID {
			return copyEmployee(e), nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]employee.Employee, 0, len(r.s.employees))
	for _, e := range r.s.employees {
		if activeOnly && !e.IsActive {
			continue
		}
		list = append(list, copyEmployee(e))
	}
	sortEmployees(list)
	return list, nil
}

func (r *employeeRepository) ListDirectReports(ctx context.Context, managerID string, activeOnly bool) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []employee.Employee
	for _, e := range r.s.employees {
		if !e.ReportsTo(managerID) || (activeOnly && !e.IsActive) {
			continue
		}
		list = append(list, copyEmployee(e))
	}
	sortEmployees(list)
	return list, nil
}

func (r *employeeRepository) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUniqueLocked(newEmployee); err != nil {
		return employee.Employee{}, err
	}
	if newEmployee.ID == "" {
		newEmployee.ID = newID()
	}
	now := r.s.now()
	newEmployee.CreatedAt = now
	newEmployee.UpdatedAt = now
	r.s.employees[newEmployee.ID] = copyEmployee(newEmployee)
	return copyEmployee(newEmployee), nil
}

func (r *employeeRepository) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.employees[e.ID]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	if err := r.checkUniqueLocked(e); err != nil {
		return employee.Employee{}, err
	}
	e.CreatedAt = current.CreatedAt
	e.UpdatedAt = r.s.now()
	r.s.employees[e.ID] = copyEmployee(e)
	return copyEmployee(e), nil
}

func (r *employeeRepository) checkUniqueLocked(candidate employee.Employee) error {
	for id, e := range r.s.employees {
		if id == candidate.ID {
			continue
		}
		if strings.EqualFold(e.Email, candidate.Email) {
			return employee.ErrEmailExists
		}
		if e.NationalID == candidate.NationalID {
			return employee.ErrNationalIDExists
		}
	}
	return nil
}
