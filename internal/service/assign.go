package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
	"github.com/assetdesk/assetdesk/internal/token"
)

// Assignments reserves inventory units to employees and is the single
// writer of assignment quantities. Every multi-row mutation runs in one
// transaction on the tenant's database.
type Assignments struct {
	DBs     *db.Registry
	Mailer  Mailer
	Secret  string
	TTL     time.Duration
	BaseURL string

	// Now is the clock; tests override it.
	Now func() time.Time
}

func (s *Assignments) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AssignResult reports the outcome of an assign call.
type AssignResult struct {
	Employee        *model.Employee `json:"employee"`
	ReservedItemIDs []int64         `json:"reservedItemIds"`
	SkippedItemIDs  []int64         `json:"skippedItemIds,omitempty"`
	Token           string          `json:"-"`
	ExpiresAt       time.Time       `json:"expiresAt"`
	EmailSent       bool            `json:"emailSent"`
}

// Assign reserves the requested items to an employee, issues one
// acceptance token covering them, and emails the invitation. Unknown or
// inactive items are skipped rather than failing the call; insufficient
// quantity or an overlapping pending reservation fails the whole call.
func (s *Assignments) Assign(ctx context.Context, selector string, employeeID int64, itemIDs []int64, quantities map[int64]int) (*AssignResult, error) {
	database, err := s.DBs.Get(selector)
	if err != nil {
		return nil, &NotFoundError{What: "tenant"}
	}

	employee, err := store.GetEmployee(ctx, database, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil || employee.DeletedAt != nil {
		return nil, &NotFoundError{What: "employee"}
	}

	now := s.now()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var reserved []int64
	var skipped []int64
	var items []model.Item
	reservedQty := make(map[int64]int)
	kind := ""

	for _, itemID := range dedupe(itemIDs) {
		item, err := store.GetItem(ctx, tx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil || item.DeletedAt != nil || item.Status != model.ItemStatusActive {
			slog.Warn("skipping unassignable item", "tenant", selector, "item_id", itemID)
			skipped = append(skipped, itemID)
			continue
		}

		// One token covers one kind; a mixed request is a caller bug.
		if kind == "" {
			kind = item.Kind
		} else if item.Kind != kind {
			return nil, &ConflictError{Reason: "cannot mix assets and licenses in one assignment"}
		}

		// Refuse to stack a second pending reservation on the same pair.
		overlapping, err := store.FindPendingCovering(ctx, tx, employeeID, itemID, now)
		if err != nil {
			return nil, err
		}
		if len(overlapping) > 0 {
			return nil, &ConflictError{Reason: fmt.Sprintf("a pending reservation already covers %q", item.Name)}
		}

		qty := 1
		if q, ok := quantities[itemID]; ok && q > 0 {
			qty = q
		}

		assigned, err := store.AssignedTotal(ctx, tx, itemID)
		if err != nil {
			return nil, err
		}
		if assigned+qty > item.Quantity {
			return nil, &ConflictError{Reason: fmt.Sprintf(
				"%q has %d of %d units already out; cannot reserve %d more",
				item.Name, assigned, item.Quantity, qty)}
		}

		if err := store.UpsertAssignment(ctx, tx, itemID, employeeID, qty); err != nil {
			return nil, err
		}
		if err := store.AppendActivity(ctx, tx, model.ActivityAssigned, employeeID, itemID,
			fmt.Sprintf("reserved %d units", qty)); err != nil {
			return nil, err
		}

		reserved = append(reserved, itemID)
		reservedQty[itemID] = qty
		items = append(items, *item)
	}

	if len(reserved) == 0 {
		return nil, &NotFoundError{What: "assignable items"}
	}

	tokenStr, expiresAt, err := token.Issue(s.Secret, employeeID, reserved, reservedQty, kind, selector, s.TTL)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	if _, err := store.CreateReservation(ctx, tx, tokenStr, employeeID, reserved, reservedQty, kind, expiresAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing assignment: %w", err)
	}

	result := &AssignResult{
		Employee:        employee,
		ReservedItemIDs: reserved,
		SkippedItemIDs:  skipped,
		Token:           tokenStr,
		ExpiresAt:       expiresAt,
	}

	// Delivery is best effort; the reservation stands either way.
	if err := s.Mailer.SendInvitation(ctx, employee, items, AcceptURL(s.BaseURL, tokenStr)); err != nil {
		slog.Error("invitation mail failed", "tenant", selector, "employee", employee.Email, "error", err)
	} else {
		result.EmailSent = true
	}

	return result, nil
}

// Remove takes units back from an employee. An absent or over-large
// quantity removes the pair's row entirely; otherwise the held quantity
// is decremented in place. Pending reservations covering a fully removed
// reserved row are rejected (single-item) or pruned (multi-item).
func (s *Assignments) Remove(ctx context.Context, selector string, employeeID int64, itemIDs []int64, quantities map[int64]int, reason string) ([]int64, error) {
	database, err := s.DBs.Get(selector)
	if err != nil {
		return nil, &NotFoundError{What: "tenant"}
	}

	employee, err := store.GetEmployee(ctx, database, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil || employee.DeletedAt != nil {
		return nil, &NotFoundError{What: "employee"}
	}

	now := s.now()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var removed []int64
	for _, itemID := range dedupe(itemIDs) {
		assignment, err := store.GetAssignment(ctx, tx, itemID, employeeID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			continue
		}

		wasReserved := assignment.Status == model.AssignmentReserved

		fullyRemoved, err := store.DecrementAssignment(ctx, tx, itemID, employeeID, quantities[itemID])
		if err != nil {
			return nil, err
		}

		if fullyRemoved && wasReserved {
			if err := s.pruneReservations(ctx, tx, employeeID, itemID, now); err != nil {
				return nil, err
			}
		}

		if reason != "" {
			if err := store.AppendActivity(ctx, tx, model.ActivityRemoved, employeeID, itemID, reason); err != nil {
				return nil, err
			}
		}

		removed = append(removed, itemID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing removal: %w", err)
	}
	return removed, nil
}

// pruneReservations drops itemID from every pending reservation covering
// it. A reservation left with no items is rejected outright; it survives
// for its remaining items otherwise.
func (s *Assignments) pruneReservations(ctx context.Context, tx *sql.Tx, employeeID, itemID int64, now time.Time) error {
	covering, err := store.FindPendingCovering(ctx, tx, employeeID, itemID, now)
	if err != nil {
		return err
	}

	for _, r := range covering {
		var remaining []int64
		for _, id := range r.ItemIDs {
			if id != itemID {
				remaining = append(remaining, id)
			}
		}

		if len(remaining) == 0 {
			if _, err := store.MarkReservationStatus(ctx, tx, r.Token, model.ReservationRejected, now); err != nil {
				return err
			}
			continue
		}

		quantities := r.Quantities
		if quantities != nil {
			delete(quantities, itemID)
		}
		if err := store.UpdateReservationItems(ctx, tx, r.Token, remaining, quantities); err != nil {
			return err
		}
	}
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
