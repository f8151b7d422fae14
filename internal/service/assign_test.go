package service

import (
	"context"
	"testing"
	"time"

	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
	"github.com/assetdesk/assetdesk/internal/token"
)

func TestAssignReservesAndIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 5)
	monitor := env.newItem(t, "Monitor", model.KindAsset, 3)

	result, err := env.assignments.Assign(ctx, testTenant, employee.ID,
		[]int64{laptop.ID, monitor.ID}, map[int64]int{laptop.ID: 2})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if len(result.ReservedItemIDs) != 2 {
		t.Fatalf("expected 2 reserved items, got %v", result.ReservedItemIDs)
	}
	if !result.EmailSent {
		t.Error("expected emailSent true")
	}
	if env.mailer.invitations != 1 {
		t.Errorf("expected 1 invitation mail, got %d", env.mailer.invitations)
	}

	// Assignment rows are reserved with the requested quantities.
	a, _ := store.GetAssignment(ctx, env.db, laptop.ID, employee.ID)
	if a == nil || a.Quantity != 2 || a.Status != model.AssignmentReserved {
		t.Errorf("unexpected laptop assignment: %+v", a)
	}
	a, _ = store.GetAssignment(ctx, env.db, monitor.ID, employee.ID)
	if a == nil || a.Quantity != 1 {
		t.Errorf("unexpected monitor assignment: %+v", a)
	}

	// The persisted reservation and the token agree.
	reservation, _ := store.GetReservationByToken(ctx, env.db, result.Token)
	if reservation == nil {
		t.Fatal("expected a persisted reservation")
	}
	if reservation.Status != model.ReservationPending {
		t.Errorf("expected pending reservation, got %q", reservation.Status)
	}
	claim, err := token.Decode(testSecret, result.Token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claim.EmployeeID != employee.ID || claim.Tenant != testTenant || claim.Kind != model.KindAsset {
		t.Errorf("unexpected claim: %+v", claim)
	}
	if len(claim.ItemIDs) != 2 {
		t.Errorf("expected 2 item ids in claim, got %v", claim.ItemIDs)
	}

	env.checkQuantityInvariant(t, laptop.ID)
	env.checkQuantityInvariant(t, monitor.ID)
}

func TestAssignSkipsMissingAndInactiveItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 5)
	broken := env.newItem(t, "Broken Dock", model.KindAsset, 2)
	store.UpdateItem(ctx, env.db, broken.ID, broken.Name, "", model.ItemStatusMaintenance, 2)

	result, err := env.assignments.Assign(ctx, testTenant, employee.ID,
		[]int64{laptop.ID, broken.ID, 9999}, nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if len(result.ReservedItemIDs) != 1 || result.ReservedItemIDs[0] != laptop.ID {
		t.Errorf("expected only the laptop to be reserved, got %v", result.ReservedItemIDs)
	}
	if len(result.SkippedItemIDs) != 2 {
		t.Errorf("expected 2 skipped items, got %v", result.SkippedItemIDs)
	}
}

func TestAssignAllItemsUnassignable(t *testing.T) {
	env := newTestEnv(t)

	employee := env.newEmployee(t, "alice")

	_, err := env.assignments.Assign(context.Background(), testTenant, employee.ID, []int64{9999}, nil)
	if !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestAssignInsufficientQuantityFailsWholeCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	bob := env.newEmployee(t, "bob")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 3)
	monitor := env.newItem(t, "Monitor", model.KindAsset, 2)

	// Two units already out to bob leaves one reservable.
	if _, err := env.assignments.Assign(ctx, testTenant, bob.ID, []int64{laptop.ID}, map[int64]int{laptop.ID: 2}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	_, err := env.assignments.Assign(ctx, testTenant, employee.ID,
		[]int64{monitor.ID, laptop.ID}, map[int64]int{laptop.ID: 2})
	if !isConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// The whole call rolled back: no monitor row either.
	a, _ := store.GetAssignment(ctx, env.db, monitor.ID, employee.ID)
	if a != nil {
		t.Error("expected rollback to remove the monitor assignment")
	}
	env.checkQuantityInvariant(t, laptop.ID)
}

func TestAssignRejectsOverlappingPendingReservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 5)

	if _, err := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	_, err := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)
	if !isConflict(err) {
		t.Errorf("expected ConflictError for overlapping reservation, got %v", err)
	}
}

func TestAssignRejectsMixedKinds(t *testing.T) {
	env := newTestEnv(t)

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 5)
	office := env.newItem(t, "Office Suite", model.KindLicense, 5)

	_, err := env.assignments.Assign(context.Background(), testTenant, employee.ID,
		[]int64{laptop.ID, office.ID}, nil)
	if !isConflict(err) {
		t.Errorf("expected ConflictError for mixed kinds, got %v", err)
	}
}

func TestAssignEmailFailureDoesNotRollBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 5)
	env.mailer.fail = true

	result, err := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if result.EmailSent {
		t.Error("expected emailSent false")
	}

	// The reservation stands regardless.
	a, _ := store.GetAssignment(ctx, env.db, laptop.ID, employee.ID)
	if a == nil {
		t.Error("expected the assignment to survive the mail failure")
	}
}

func TestAssignUnknownTenant(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newEmployee(t, "alice")

	_, err := env.assignments.Assign(context.Background(), "nope", employee.ID, []int64{1}, nil)
	if !isNotFound(err) {
		t.Errorf("expected NotFoundError for unknown tenant, got %v", err)
	}
}

func TestRemovePartialQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	licenses := env.newItem(t, "IDE License", model.KindLicense, 5)

	if _, err := env.assignments.Assign(ctx, testTenant, employee.ID,
		[]int64{licenses.ID}, map[int64]int{licenses.ID: 5}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	removed, err := env.assignments.Remove(ctx, testTenant, employee.ID,
		[]int64{licenses.ID}, map[int64]int{licenses.ID: 2}, "")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("expected 1 removed item, got %v", removed)
	}

	a, _ := store.GetAssignment(ctx, env.db, licenses.ID, employee.ID)
	if a == nil {
		t.Fatal("expected the row to survive a partial removal")
	}
	if a.Quantity != 3 {
		t.Errorf("expected remaining quantity 3, got %d", a.Quantity)
	}
	env.checkQuantityInvariant(t, licenses.ID)
}

func TestRemoveFullReleaseRejectsSingleItemToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 5)

	result, err := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, err := env.assignments.Remove(ctx, testTenant, employee.ID, []int64{laptop.ID}, nil, "returned"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	reservation, _ := store.GetReservationByToken(ctx, env.db, result.Token)
	if reservation.Status != model.ReservationRejected {
		t.Errorf("expected the single-item token to be rejected, got %q", reservation.Status)
	}

	entries, _ := store.ListActivity(ctx, env.db, employee.ID, laptop.ID, 0)
	found := false
	for _, e := range entries {
		if e.Type == model.ActivityRemoved && e.Detail == "returned" {
			found = true
		}
	}
	if !found {
		t.Error("expected a removal activity entry with the given reason")
	}
}

func TestRemovePrunesMultiItemToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	employee := env.newEmployee(t, "alice")
	dock := env.newItem(t, "Dock", model.KindAsset, 2)
	headset := env.newItem(t, "Headset", model.KindAsset, 2)

	result, err := env.assignments.Assign(ctx, testTenant, employee.ID, []int64{dock.ID, headset.ID}, nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, err := env.assignments.Remove(ctx, testTenant, employee.ID, []int64{dock.ID}, nil, ""); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// The token survives for the remaining item.
	reservation, _ := store.GetReservationByToken(ctx, env.db, result.Token)
	if reservation.Status != model.ReservationPending {
		t.Errorf("expected the token to stay pending, got %q", reservation.Status)
	}
	if len(reservation.ItemIDs) != 1 || reservation.ItemIDs[0] != headset.ID {
		t.Errorf("expected item ids pruned to the headset, got %v", reservation.ItemIDs)
	}
}

func TestRemoveUnknownItemIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	employee := env.newEmployee(t, "alice")

	removed, err := env.assignments.Remove(context.Background(), testTenant, employee.ID, []int64{9999}, nil, "")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("expected no removed items, got %v", removed)
	}
}

func TestQuantityInvariantAcrossWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newEmployee(t, "alice")
	bob := env.newEmployee(t, "bob")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 4)

	r1, err := env.assignments.Assign(ctx, testTenant, alice.ID, []int64{laptop.ID}, map[int64]int{laptop.ID: 2})
	if err != nil {
		t.Fatalf("Assign alice: %v", err)
	}
	if _, err := env.assignments.Assign(ctx, testTenant, bob.ID, []int64{laptop.ID}, map[int64]int{laptop.ID: 2}); err != nil {
		t.Fatalf("Assign bob: %v", err)
	}
	env.checkQuantityInvariant(t, laptop.ID)

	if _, err := env.acceptance.Accept(ctx, r1.Token, true); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	env.checkQuantityInvariant(t, laptop.ID)

	if _, err := env.assignments.Remove(ctx, testTenant, bob.ID, []int64{laptop.ID}, map[int64]int{laptop.ID: 1}, ""); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	env.checkQuantityInvariant(t, laptop.ID)
}

func TestAssignAfterExpiryRestoresCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.newEmployee(t, "alice")
	bob := env.newEmployee(t, "bob")
	laptop := env.newItem(t, "Laptop", model.KindAsset, 1)

	if _, err := env.assignments.Assign(ctx, testTenant, alice.ID, []int64{laptop.ID}, nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// No capacity left for bob.
	if _, err := env.assignments.Assign(ctx, testTenant, bob.ID, []int64{laptop.ID}, nil); !isConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// Expire alice's reservation; the unit frees up.
	future := time.Now().Add(8 * 24 * time.Hour)
	if _, err := env.reaper.Sweep(ctx, testTenant, future); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if _, err := env.assignments.Assign(ctx, testTenant, bob.ID, []int64{laptop.ID}, nil); err != nil {
		t.Fatalf("Assign after expiry: %v", err)
	}
	env.checkQuantityInvariant(t, laptop.ID)
}
