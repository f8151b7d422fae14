package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/assetdesk/assetdesk/internal/model"
)

// GetAssignment returns the assignment row for one (item, employee) pair.
func GetAssignment(ctx context.Context, db Querier, itemID, employeeID int64) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := db.QueryRowContext(ctx,
		`SELECT item_id, employee_id, quantity, status, assigned_at
		 FROM assignments WHERE item_id = ? AND employee_id = ?`,
		itemID, employeeID,
	).Scan(&a.ItemID, &a.EmployeeID, &a.Quantity, &a.Status, &a.AssignedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting assignment: %w", err)
	}
	return a, nil
}

// ListEmployeeAssignments returns all assignments held by an employee.
func ListEmployeeAssignments(ctx context.Context, db *sql.DB, employeeID int64) ([]model.Assignment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.item_id, a.employee_id, a.quantity, a.status, a.assigned_at,
		        i.name AS item_name, i.kind AS item_kind
		 FROM assignments a
		 JOIN items i ON i.id = a.item_id
		 WHERE a.employee_id = ?
		 ORDER BY i.name`, employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing employee assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ItemID, &a.EmployeeID, &a.Quantity, &a.Status, &a.AssignedAt,
			&a.ItemName, &a.ItemKind); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// GetItemDistribution returns who holds an item and in what quantity.
func GetItemDistribution(ctx context.Context, db *sql.DB, itemID int64) ([]model.Assignment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.item_id, a.employee_id, a.quantity, a.status, a.assigned_at,
		        e.name AS employee_name, e.email AS employee_email
		 FROM assignments a
		 JOIN employees e ON e.id = a.employee_id
		 WHERE a.item_id = ?
		 ORDER BY e.name`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item distribution: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ItemID, &a.EmployeeID, &a.Quantity, &a.Status, &a.AssignedAt,
			&a.EmployeeName, &a.EmployeeEmail); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// AssignedTotal returns the sum of units handed out across all holders of
// an item, in any assignment status.
func AssignedTotal(ctx context.Context, db Querier, itemID int64) (int, error) {
	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM assignments WHERE item_id = ?`, itemID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing assigned quantity: %w", err)
	}
	return total, nil
}

// UpsertAssignment adds quantity to the pair's row, creating it in
// reserved status if absent. Adding to an existing row drops it back to
// reserved: the new units need acceptance again.
func UpsertAssignment(ctx context.Context, db Querier, itemID, employeeID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO assignments (item_id, employee_id, quantity, status)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (item_id, employee_id)
		 DO UPDATE SET quantity = quantity + ?, status = ?`,
		itemID, employeeID, quantity, model.AssignmentReserved,
		quantity, model.AssignmentReserved,
	)
	if err != nil {
		return fmt.Errorf("upserting assignment: %w", err)
	}
	return nil
}

// DecrementAssignment lowers the pair's held quantity, deleting the row
// when it reaches zero. Returns true when the row was fully removed.
func DecrementAssignment(ctx context.Context, db Querier, itemID, employeeID int64, quantity int) (bool, error) {
	a, err := GetAssignment(ctx, db, itemID, employeeID)
	if err != nil {
		return false, err
	}
	if a == nil {
		return false, fmt.Errorf("no assignment for item %d and employee %d", itemID, employeeID)
	}

	if quantity <= 0 || quantity >= a.Quantity {
		if err := DeleteAssignment(ctx, db, itemID, employeeID); err != nil {
			return false, err
		}
		return true, nil
	}

	_, err = db.ExecContext(ctx,
		`UPDATE assignments SET quantity = quantity - ? WHERE item_id = ? AND employee_id = ?`,
		quantity, itemID, employeeID,
	)
	if err != nil {
		return false, fmt.Errorf("decrementing assignment: %w", err)
	}
	return false, nil
}

// DeleteAssignment removes the pair's row entirely.
func DeleteAssignment(ctx context.Context, db Querier, itemID, employeeID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM assignments WHERE item_id = ? AND employee_id = ?`,
		itemID, employeeID,
	)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	return nil
}

// MarkAssignmentStatus flips a pair's status (reserved <-> assigned).
func MarkAssignmentStatus(ctx context.Context, db Querier, itemID, employeeID int64, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assignments SET status = ? WHERE item_id = ? AND employee_id = ?`,
		status, itemID, employeeID,
	)
	if err != nil {
		return fmt.Errorf("marking assignment status: %w", err)
	}
	return nil
}
