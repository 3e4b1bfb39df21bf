package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employeeColumns = `id, first_name, last_name, email, national_id, is_manager, manager_id, is_active, created_at, updated_at`

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.NationalID,
		&e.IsManager, &e.ManagerID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *employeeRepositoryImpl) getOne(ctx context.Context, where string, arg any) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE ` + where
	e, err := scanEmployee(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

// GetByNationalID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByNationalID(ctx context.Context, nationalID string) (employee.Employee, error) {
	return r.getOne(ctx, "national_id = $1", nationalID)
}

func (r *employeeRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, activeOnly bool) ([]employee.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE ($1 = FALSE OR is_active)
		ORDER BY last_name, first_name, id
	`
	return r.list(ctx, query, activeOnly)
}

// ListDirectReports implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListDirectReports(ctx context.Context, managerID string, activeOnly bool) ([]employee.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE manager_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY last_name, first_name, id
	`
	return r.list(ctx, query, managerID, activeOnly)
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (first_name, last_name, email, national_id, is_manager, manager_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newEmployee.FirstName, newEmployee.LastName, newEmployee.Email, newEmployee.NationalID,
		newEmployee.IsManager, newEmployee.ManagerID, newEmployee.IsActive,
	))
	if err != nil {
		return employee.Employee{}, mapEmployeeError(err)
	}
	return created, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, national_id = $5,
			is_manager = $6, manager_id = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + employeeColumns

	updated, err := scanEmployee(q.QueryRow(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Email, e.NationalID, e.IsManager, e.ManagerID, e.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, mapEmployeeError(err)
	}
	return updated, nil
}

func mapEmployeeError(err error) error {
	switch uniqueConstraint(err) {
	case "employees_email_key":
		return employee.ErrEmailExists
	case "employees_national_id_key":
		return employee.ErrNationalIDExists
	}
	return fmt.Errorf("failed to write employee: %w", err)
}
