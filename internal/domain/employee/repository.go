package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	GetByNationalID(ctx context.Context, nationalID string) (Employee, error)
	// List returns employees ordered by last name, first name.
	List(ctx context.Context, activeOnly bool) ([]Employee, error)
	ListDirectReports(ctx context.Context, managerID string, activeOnly bool) ([]Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)
}
