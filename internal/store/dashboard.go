package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// KindSummary aggregates the catalog and assignment state for one item
// kind.
type KindSummary struct {
	Kind          string `json:"kind"`
	Items         int    `json:"items"`
	TotalUnits    int    `json:"totalUnits"`
	AssignedUnits int    `json:"assignedUnits"`
	ReservedUnits int    `json:"reservedUnits"`
	FreeUnits     int    `json:"freeUnits"`
}

// SummarizeKinds returns per-kind unit totals across active items.
func SummarizeKinds(ctx context.Context, db *sql.DB) ([]KindSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT i.kind, COUNT(DISTINCT i.id), COALESCE(SUM(i.quantity), 0),
			COALESCE((SELECT SUM(a.quantity) FROM assignments a
				JOIN items x ON x.id = a.item_id
				WHERE x.kind = i.kind AND a.status = 'assigned'), 0),
			COALESCE((SELECT SUM(a.quantity) FROM assignments a
				JOIN items x ON x.id = a.item_id
				WHERE x.kind = i.kind AND a.status = 'reserved'), 0)
		FROM items i
		WHERE i.deleted_at IS NULL
		GROUP BY i.kind
		ORDER BY i.kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize kinds: %w", err)
	}
	defer rows.Close()

	var summaries []KindSummary
	for rows.Next() {
		var s KindSummary
		var items, total int
		if err := rows.Scan(&s.Kind, &items, &total, &s.AssignedUnits, &s.ReservedUnits); err != nil {
			return nil, fmt.Errorf("failed to scan kind summary: %w", err)
		}
		s.Items = items
		s.TotalUnits = total
		s.FreeUnits = total - s.AssignedUnits - s.ReservedUnits
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CountPendingReservations returns the number of reservations still
// awaiting a response at the given time.
func CountPendingReservations(ctx context.Context, db *sql.DB, now time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE status = 'pending' AND expires_at > ?",
		now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending reservations: %w", err)
	}
	return count, nil
}
