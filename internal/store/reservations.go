package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/assetdesk/assetdesk/internal/model"
)

// CreateReservation persists a newly issued acceptance token. Must run in
// the same transaction as the assignment upserts it backs.
func CreateReservation(ctx context.Context, db Querier, token string, employeeID int64, itemIDs []int64, quantities map[int64]int, kind string, expiresAt time.Time) (int64, error) {
	ids, err := json.Marshal(itemIDs)
	if err != nil {
		return 0, fmt.Errorf("encoding item ids: %w", err)
	}

	var qty any
	if len(quantities) > 0 {
		data, err := json.Marshal(quantities)
		if err != nil {
			return 0, fmt.Errorf("encoding quantities: %w", err)
		}
		qty = string(data)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO reservations (token, employee_id, item_ids, quantities, kind, expires_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token, employeeID, string(ids), qty, kind, expiresAt, model.ReservationPending,
	)
	if err != nil {
		return 0, fmt.Errorf("creating reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting reservation id: %w", err)
	}
	return id, nil
}

// GetReservationByToken returns the reservation backing a token string.
func GetReservationByToken(ctx context.Context, db Querier, token string) (*model.Reservation, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, token, employee_id, item_ids, quantities, kind, issued_at, expires_at, status, used_at
		 FROM reservations WHERE token = ?`, token,
	)
	return scanReservation(row)
}

// IsConsumed reports whether a token has left the pending state. Unknown
// tokens are treated as consumed so callers fail closed.
func IsConsumed(ctx context.Context, db Querier, token string) (bool, error) {
	var status string
	err := db.QueryRowContext(ctx,
		`SELECT status FROM reservations WHERE token = ?`, token,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking reservation status: %w", err)
	}
	return status != model.ReservationPending, nil
}

// MarkReservationStatus transitions a pending reservation to a terminal
// status and stamps used_at. The write is conditional on the row still
// being pending; false means a concurrent transition won.
func MarkReservationStatus(ctx context.Context, db Querier, token, status string, now time.Time) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, used_at = ?
		 WHERE token = ? AND status = ?`,
		status, now, token, model.ReservationPending,
	)
	if err != nil {
		return false, fmt.Errorf("marking reservation status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking reservation status: %w", err)
	}
	return n == 1, nil
}

// UpdateReservationItems rewrites a pending reservation's item set after
// a partial removal pruned some of its items.
func UpdateReservationItems(ctx context.Context, db Querier, token string, itemIDs []int64, quantities map[int64]int) error {
	ids, err := json.Marshal(itemIDs)
	if err != nil {
		return fmt.Errorf("encoding item ids: %w", err)
	}

	var qty any
	if len(quantities) > 0 {
		data, err := json.Marshal(quantities)
		if err != nil {
			return fmt.Errorf("encoding quantities: %w", err)
		}
		qty = string(data)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE reservations SET item_ids = ?, quantities = ?
		 WHERE token = ? AND status = ?`,
		string(ids), qty, token, model.ReservationPending,
	)
	if err != nil {
		return fmt.Errorf("updating reservation items: %w", err)
	}
	return nil
}

// FindPendingExpired returns all pending reservations past their expiry.
func FindPendingExpired(ctx context.Context, db *sql.DB, now time.Time) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, token, employee_id, item_ids, quantities, kind, issued_at, expires_at, status, used_at
		 FROM reservations WHERE status = ? AND expires_at < ?
		 ORDER BY expires_at`,
		model.ReservationPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("finding expired reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservationRow(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

// FindPendingCovering returns the employee's unexpired pending
// reservations whose item set includes itemID.
func FindPendingCovering(ctx context.Context, db Querier, employeeID, itemID int64, now time.Time) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, token, employee_id, item_ids, quantities, kind, issued_at, expires_at, status, used_at
		 FROM reservations WHERE employee_id = ? AND status = ? AND expires_at >= ?
		 ORDER BY issued_at`,
		employeeID, model.ReservationPending, now,
	)
	if err != nil {
		return nil, fmt.Errorf("finding pending reservations: %w", err)
	}
	defer rows.Close()

	var matches []model.Reservation
	for rows.Next() {
		r, err := scanReservationRow(rows)
		if err != nil {
			return nil, err
		}
		for _, id := range r.ItemIDs {
			if id == itemID {
				matches = append(matches, *r)
				break
			}
		}
	}
	return matches, rows.Err()
}

func scanReservation(row *sql.Row) (*model.Reservation, error) {
	r := &model.Reservation{}
	var ids string
	var qty sql.NullString
	err := row.Scan(&r.ID, &r.Token, &r.EmployeeID, &ids, &qty, &r.Kind,
		&r.IssuedAt, &r.ExpiresAt, &r.Status, &r.UsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	return decodeReservation(r, ids, qty)
}

func scanReservationRow(rows *sql.Rows) (*model.Reservation, error) {
	r := &model.Reservation{}
	var ids string
	var qty sql.NullString
	if err := rows.Scan(&r.ID, &r.Token, &r.EmployeeID, &ids, &qty, &r.Kind,
		&r.IssuedAt, &r.ExpiresAt, &r.Status, &r.UsedAt); err != nil {
		return nil, fmt.Errorf("scanning reservation: %w", err)
	}
	return decodeReservation(r, ids, qty)
}

func decodeReservation(r *model.Reservation, ids string, qty sql.NullString) (*model.Reservation, error) {
	if err := json.Unmarshal([]byte(ids), &r.ItemIDs); err != nil {
		return nil, fmt.Errorf("decoding item ids: %w", err)
	}
	if qty.Valid {
		if err := json.Unmarshal([]byte(qty.String), &r.Quantities); err != nil {
			return nil, fmt.Errorf("decoding quantities: %w", err)
		}
	}
	return r, nil
}
