package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

func TestSweepExpiresStaleReservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 2)

	result, err := env.assignments.Assign(ctx, testTenant, employee.ID,
		[]int64{laptop.ID}, map[int64]int{laptop.ID: 2})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// Eight days later, one day past the seven-day TTL.
	future := time.Now().Add(8 * 24 * time.Hour)
	expired, err := env.reaper.Sweep(ctx, testTenant, future)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired reservation, got %d", expired)
	}

	// The assignment row is gone and the quantity is reservable again.
	a, _ := store.GetAssignment(ctx, env.db, laptop.ID, employee.ID)
	if a != nil {
		t.Error("expected the assignment row to be deleted")
	}
	total, _ := store.AssignedTotal(ctx, env.db, laptop.ID)
	if total != 0 {
		t.Errorf("expected 0 units out, got %d", total)
	}

	reservation, _ := store.GetReservationByToken(ctx, env.db, result.Token)
	if reservation.Status != model.ReservationExpired {
		t.Errorf("expected expired reservation, got %q", reservation.Status)
	}
	if reservation.UsedAt == nil {
		t.Error("expected used_at to be set by the sweep")
	}

	entries, _ := store.ListActivity(ctx, env.db, employee.ID, laptop.ID, 0)
	found := false
	for _, e := range entries {
		if e.Type == model.ActivityExpired {
			found = true
		}
	}
	if !found {
		t.Error("expected an expiry activity entry")
	}
}

func TestSweepLeavesFreshReservationsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 2)

	result, _ := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)

	expired, err := env.reaper.Sweep(ctx, testTenant, time.Now())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if expired != 0 {
		t.Errorf("expected 0 expirations, got %d", expired)
	}

	reservation, _ := store.GetReservationByToken(ctx, env.db, result.Token)
	if reservation.Status != model.ReservationPending {
		t.Errorf("expected pending reservation, got %q", reservation.Status)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 2)
	env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)

	future := time.Now().Add(8 * 24 * time.Hour)
	first, _ := env.reaper.Sweep(ctx, testTenant, future)
	second, _ := env.reaper.Sweep(ctx, testTenant, future)

	if first != 1 || second != 0 {
		t.Errorf("expected sweeps (1, 0), got (%d, %d)", first, second)
	}
}

func TestSweepDoesNotTouchResolvedReservations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 2)

	result, _ := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)
	if _, err := env.acceptance.Accept(ctx, result.Token, true); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	future := time.Now().Add(8 * 24 * time.Hour)
	expired, _ := env.reaper.Sweep(ctx, testTenant, future)
	if expired != 0 {
		t.Errorf("expected 0 expirations for an accepted reservation, got %d", expired)
	}

	// Accepted rows stay assigned.
	a, _ := store.GetAssignment(ctx, env.db, laptop.ID, employee.ID)
	if a == nil || a.Status != model.AssignmentAssigned {
		t.Errorf("expected the accepted assignment to survive, got %+v", a)
	}
}

func TestAcceptAfterSweepReportsAlreadyUsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 2)
	result, _ := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)

	future := time.Now().Add(8 * 24 * time.Hour)
	env.reaper.Sweep(ctx, testTenant, future)

	// The swept token is spent even though its signature may still
	// verify at the real clock.
	_, err := env.acceptance.Accept(ctx, result.Token, true)
	if !errors.Is(err, ErrAlreadyUsed) && !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrAlreadyUsed or ErrInvalidToken, got %v", err)
	}
}

func TestSweepAllCoversEveryTenant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 2)
	env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)

	future := time.Now().Add(8 * 24 * time.Hour)
	env.reaper.SweepAll(ctx, future)

	total, _ := store.AssignedTotal(ctx, env.db, laptop.ID)
	if total != 0 {
		t.Errorf("expected the sweep to release all units, got %d", total)
	}
}
