package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/model"
)

// AppendActivity records a workflow state change. Entries are append-only.
func AppendActivity(ctx context.Context, db Querier, entryType string, employeeID, itemID int64, detail string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO activity_log (id, type, employee_id, item_id, detail) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), entryType, employeeID, itemID, detail,
	)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

// ListActivity returns activity entries, newest first, optionally
// filtered by employee and/or item. Limit <= 0 means no limit.
func ListActivity(ctx context.Context, db *sql.DB, employeeID, itemID int64, limit int) ([]model.ActivityEntry, error) {
	query := `SELECT id, type, employee_id, item_id, detail, created_at
	          FROM activity_log WHERE 1=1`
	var args []any

	if employeeID > 0 {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	if itemID > 0 {
		query += ` AND item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Type, &e.EmployeeID, &e.ItemID, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
