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

// Acceptance drives the employee-facing half of the workflow: validating
// an inbound acceptance token and finalizing or reversing its
// reservation. Each token is processed at most once.
type Acceptance struct {
	DBs     *db.Registry
	Mailer  Mailer
	Secret  string
	BaseURL string

	Now func() time.Time
}

func (s *Acceptance) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AssignmentView is what the acceptance page shows before the employee
// decides.
type AssignmentView struct {
	Employee  *model.Employee `json:"employee"`
	Items     []ViewItem      `json:"items"`
	Kind      string          `json:"kind"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// ViewItem pairs an item with the units reserved under the token.
type ViewItem struct {
	Item     model.Item `json:"item"`
	Quantity int        `json:"quantity"`
}

// Confirmation reports a finished accept or reject.
type Confirmation struct {
	ItemIDs   []int64 `json:"itemIds"`
	EmailSent bool    `json:"emailSent"`
}

// Validate decodes a token and checks that its reservation is still
// actionable, returning the view to render. It does not mutate anything.
// The stored reservation row, not the claim, names the covered items:
// partial removal prunes ids from the row while the signed token stays
// valid for the rest.
func (s *Acceptance) Validate(ctx context.Context, tokenStr string) (*AssignmentView, error) {
	claim, reservation, database, err := s.resolve(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	if reservation.Consumed() {
		return nil, ErrAlreadyUsed
	}

	employee, err := store.GetEmployee(ctx, database, claim.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil || employee.DeletedAt != nil {
		return nil, &NotFoundError{What: "employee"}
	}

	view := &AssignmentView{Employee: employee, Kind: reservation.Kind, ExpiresAt: claim.ExpiresAt.Time}
	var missing, notReserved []int64

	for _, itemID := range reservation.ItemIDs {
		assignment, err := store.GetAssignment(ctx, database, itemID, claim.EmployeeID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			missing = append(missing, itemID)
			continue
		}
		if assignment.Status != model.AssignmentReserved {
			notReserved = append(notReserved, itemID)
		}

		item, err := store.GetItem(ctx, database, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			missing = append(missing, itemID)
			continue
		}
		view.Items = append(view.Items, ViewItem{Item: *item, Quantity: reservation.QuantityFor(itemID)})
	}

	// The token must still match its assignment rows one to one.
	if len(missing) > 0 {
		return nil, &StaleAssignmentError{MissingItemIDs: missing}
	}
	if len(notReserved) > 0 {
		return nil, &NoLongerReservedError{ItemIDs: notReserved}
	}

	return view, nil
}

// Accept confirms the reservation: every covered assignment row moves
// from reserved to assigned and the token is retired, all in one
// transaction. The only path that creates assigned rows.
func (s *Acceptance) Accept(ctx context.Context, tokenStr string, acceptTerms bool) (*Confirmation, error) {
	if !acceptTerms {
		return nil, ErrMissingConsent
	}

	claim, reservation, database, err := s.resolve(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	// State may have drifted since the page was rendered; re-check.
	if _, err := s.Validate(ctx, tokenStr); err != nil {
		return nil, err
	}

	employee, err := store.GetEmployee(ctx, database, claim.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, &NotFoundError{What: "employee"}
	}

	now := s.now()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Conditional transition; losing means accept or reject or the
	// reaper got here first.
	won, err := store.MarkReservationStatus(ctx, tx, tokenStr, model.ReservationAccepted, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyUsed
	}

	var items []model.Item
	for _, itemID := range reservation.ItemIDs {
		if err := store.MarkAssignmentStatus(ctx, tx, itemID, claim.EmployeeID, model.AssignmentAssigned); err != nil {
			return nil, err
		}
		if err := store.AppendActivity(ctx, tx, model.ActivityAccepted, claim.EmployeeID, itemID, "acceptance confirmed"); err != nil {
			return nil, err
		}
		item, err := store.GetItem(ctx, tx, itemID)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing acceptance: %w", err)
	}

	confirmation := &Confirmation{ItemIDs: reservation.ItemIDs}
	if err := s.Mailer.SendConfirmation(ctx, employee, items); err != nil {
		slog.Error("confirmation mail failed", "employee", employee.Email, "error", err)
	} else {
		confirmation.EmailSent = true
	}
	return confirmation, nil
}

// Reject declines the reservation: covered assignment rows are deleted
// entirely and the token is retired. Runs with looser checks than
// Accept; a reject still succeeds after state drift.
func (s *Acceptance) Reject(ctx context.Context, tokenStr, reason string) (*Confirmation, error) {
	claim, reservation, database, err := s.resolve(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	now := s.now()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	won, err := store.MarkReservationStatus(ctx, tx, tokenStr, model.ReservationRejected, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyUsed
	}

	detail := "invitation declined"
	if reason != "" {
		detail = reason
	}

	for _, itemID := range reservation.ItemIDs {
		if err := store.DeleteAssignment(ctx, tx, itemID, claim.EmployeeID); err != nil {
			return nil, err
		}
		if err := store.AppendActivity(ctx, tx, model.ActivityRejected, claim.EmployeeID, itemID, detail); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rejection: %w", err)
	}
	return &Confirmation{ItemIDs: reservation.ItemIDs}, nil
}

// ResendResult reports a re-sent invitation.
type ResendResult struct {
	EmailSent bool `json:"emailSent"`
}

// Resend re-sends the still-valid existing invitation covering an item.
// It refuses when no pending reservation covers the pair or the
// assignment is no longer awaiting acceptance.
func (s *Acceptance) Resend(ctx context.Context, selector string, employeeID, itemID int64) (*ResendResult, error) {
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

	covering, err := store.FindPendingCovering(ctx, database, employeeID, itemID, s.now())
	if err != nil {
		return nil, err
	}
	if len(covering) == 0 {
		return nil, &NotFoundError{What: "pending reservation"}
	}
	reservation := covering[0]

	var items []model.Item
	for _, id := range reservation.ItemIDs {
		assignment, err := store.GetAssignment(ctx, database, id, employeeID)
		if err != nil {
			return nil, err
		}
		if assignment == nil || assignment.Status != model.AssignmentReserved {
			return nil, &NoLongerReservedError{ItemIDs: []int64{id}}
		}
		item, err := store.GetItem(ctx, database, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}

	result := &ResendResult{}
	if err := s.Mailer.SendInvitation(ctx, employee, items, AcceptURL(s.BaseURL, reservation.Token)); err != nil {
		slog.Error("resend mail failed", "employee", employee.Email, "error", err)
	} else {
		result.EmailSent = true
	}
	return result, nil
}

// resolve decodes the token, routes to the tenant it names, and loads
// the stored reservation row. Unknown tenants and tokens with no row
// fail closed as an invalid token.
func (s *Acceptance) resolve(ctx context.Context, tokenStr string) (*token.Claim, *model.Reservation, *sql.DB, error) {
	claim, err := token.Decode(s.Secret, tokenStr)
	if err != nil {
		return nil, nil, nil, ErrInvalidToken
	}
	database, err := s.DBs.Get(claim.Tenant)
	if err != nil {
		return nil, nil, nil, ErrInvalidToken
	}
	reservation, err := store.GetReservationByToken(ctx, database, tokenStr)
	if err != nil {
		return nil, nil, nil, err
	}
	if reservation == nil {
		return nil, nil, nil, ErrInvalidToken
	}
	return claim, reservation, database, nil
}
