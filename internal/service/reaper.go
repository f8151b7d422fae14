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
)

// Reaper periodically force-expires pending reservations whose tokens
// have lapsed, releasing their held quantity. It runs concurrently with
// live requests; the conditional status write resolves races with an
// in-flight accept or reject.
type Reaper struct {
	DBs      *db.Registry
	Interval time.Duration

	Now func() time.Time
}

func (r *Reaper) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Start sweeps on a fixed interval until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	slog.Info("expiry reaper started", "interval", r.Interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("expiry reaper stopped")
			return
		case <-ticker.C:
			r.SweepAll(ctx, r.now())
		}
	}
}

// SweepAll sweeps every tenant partition independently. A failing tenant
// does not stop the others.
func (r *Reaper) SweepAll(ctx context.Context, now time.Time) {
	for _, selector := range r.DBs.Selectors() {
		expired, err := r.Sweep(ctx, selector, now)
		if err != nil {
			slog.Error("expiry sweep failed", "tenant", selector, "error", err)
			continue
		}
		if expired > 0 {
			slog.Info("expired stale reservations", "tenant", selector, "count", expired)
		}
	}
}

// Sweep expires all lapsed pending reservations in one tenant, returning
// how many it transitioned. Each reservation is reversed in its own
// transaction, mirroring a reject: assignment rows deleted, activity
// recorded, token marked expired.
func (r *Reaper) Sweep(ctx context.Context, selector string, now time.Time) (int, error) {
	database, err := r.DBs.Get(selector)
	if err != nil {
		return 0, err
	}

	stale, err := store.FindPendingExpired(ctx, database, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, reservation := range stale {
		if err := r.expire(ctx, database, &reservation, now); err != nil {
			slog.Error("failed to expire reservation", "tenant", selector, "reservation_id", reservation.ID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (r *Reaper) expire(ctx context.Context, database *sql.DB, reservation *model.Reservation, now time.Time) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// An accept or reject racing this sweep wins by flipping the status
	// first; losing here means there is nothing left to release.
	won, err := store.MarkReservationStatus(ctx, tx, reservation.Token, model.ReservationExpired, now)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	for _, itemID := range reservation.ItemIDs {
		if err := store.DeleteAssignment(ctx, tx, itemID, reservation.EmployeeID); err != nil {
			return err
		}
		if err := store.AppendActivity(ctx, tx, model.ActivityExpired, reservation.EmployeeID, itemID,
			"reservation expired without response"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing expiry: %w", err)
	}
	return nil
}
