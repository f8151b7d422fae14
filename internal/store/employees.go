package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/assetdesk/assetdesk/internal/model"
)

// CreateEmployee creates a new employee.
func CreateEmployee(ctx context.Context, db *sql.DB, name, email string) (*model.Employee, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO employees (name, email) VALUES (?, ?)`,
		name, email,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("employee with email %q already exists", email)
		}
		return nil, fmt.Errorf("creating employee: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting employee id: %w", err)
	}

	return GetEmployee(ctx, db, id)
}

// GetEmployee returns an employee by ID.
func GetEmployee(ctx context.Context, db Querier, id int64) (*model.Employee, error) {
	e := &model.Employee{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, deleted_at
		 FROM employees WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Email, &e.CreatedAt, &e.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns all non-deleted employees.
func ListEmployees(ctx context.Context, db *sql.DB) ([]model.Employee, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, email, created_at, deleted_at
		 FROM employees WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.CreatedAt, &e.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// UpdateEmployee updates an employee's name and email.
func UpdateEmployee(ctx context.Context, db *sql.DB, id int64, name, email string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE employees SET name = ?, email = ? WHERE id = ? AND deleted_at IS NULL`,
		name, email, id,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("employee with email %q already exists", email)
		}
		return fmt.Errorf("updating employee: %w", err)
	}
	return nil
}

// DeleteEmployee soft-deletes an employee. Fails if the employee still
// holds any assignments.
func DeleteEmployee(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE employee_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking employee assignments: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete employee: still holds %d assignments", count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE employees SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting employee: %w", err)
	}
	return nil
}
