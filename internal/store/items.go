package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/assetdesk/assetdesk/internal/model"
)

// CreateItem creates a new item with its total owned quantity.
func CreateItem(ctx context.Context, db *sql.DB, name, description, kind string, quantity int) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, kind, quantity) VALUES (?, ?, ?, ?)`,
		name, description, kind, quantity,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%s named %q already exists", kind, name)
		}
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db Querier, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, kind, quantity, status, created_at, updated_at, deleted_at
		 FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &description, &item.Kind, &item.Quantity,
		&item.Status, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	return item, nil
}

// ListItems returns all non-deleted items, optionally filtered by kind
// and/or status.
func ListItems(ctx context.Context, db *sql.DB, kind, status string) ([]model.Item, error) {
	query := `SELECT id, name, description, kind, quantity, status, created_at, updated_at, deleted_at
	          FROM items WHERE deleted_at IS NULL`
	var args []any

	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &item.Kind, &item.Quantity,
			&item.Status, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's metadata and total quantity. The new total
// may not undercut units already handed out.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, name, description, status string, quantity int) error {
	assigned, err := AssignedTotal(ctx, db, id)
	if err != nil {
		return err
	}
	if quantity < assigned {
		return fmt.Errorf("total quantity %d is below the %d units already assigned or reserved", quantity, assigned)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, status = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, description, status, quantity, id,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("item named %q already exists", name)
		}
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem soft-deletes an item. Fails while any employee still holds it.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE item_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking item assignments: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete item: %d employees still hold it", count)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
