package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

const (
	testSecret = "test-secret"
	testTenant = "default"
)

// recordingMailer captures sends instead of delivering them.
type recordingMailer struct {
	invitations   int
	confirmations int
	lastURL       string
	fail          bool
}

func (m *recordingMailer) SendInvitation(ctx context.Context, employee *model.Employee, items []model.Item, acceptURL string) error {
	if m.fail {
		return fmt.Errorf("relay unavailable")
	}
	m.invitations++
	m.lastURL = acceptURL
	return nil
}

func (m *recordingMailer) SendConfirmation(ctx context.Context, employee *model.Employee, items []model.Item) error {
	if m.fail {
		return fmt.Errorf("relay unavailable")
	}
	m.confirmations++
	return nil
}

type testEnv struct {
	db          *sql.DB
	mailer      *recordingMailer
	assignments *Assignments
	acceptance  *Acceptance
	reaper      *Reaper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := db.NewTestDB(t)
	registry := db.NewTestRegistry(map[string]*sql.DB{testTenant: database})
	mailer := &recordingMailer{}

	return &testEnv{
		db:     database,
		mailer: mailer,
		assignments: &Assignments{
			DBs:     registry,
			Mailer:  mailer,
			Secret:  testSecret,
			TTL:     7 * 24 * time.Hour,
			BaseURL: "http://localhost:8080",
		},
		acceptance: &Acceptance{
			DBs:     registry,
			Mailer:  mailer,
			Secret:  testSecret,
			BaseURL: "http://localhost:8080",
		},
		reaper: &Reaper{DBs: registry, Interval: time.Hour},
	}
}

func (env *testEnv) newEmployee(t *testing.T, name string) *model.Employee {
	t.Helper()
	e, err := store.CreateEmployee(context.Background(), env.db, name, name+"@example.com")
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return e
}

func (env *testEnv) newItem(t *testing.T, name, kind string, quantity int) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), env.db, name, "", kind, quantity)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

// checkQuantityInvariant asserts that handed-out units never exceed an
// item's total quantity.
func (env *testEnv) checkQuantityInvariant(t *testing.T, itemID int64) {
	t.Helper()
	ctx := context.Background()

	item, err := store.GetItem(ctx, env.db, itemID)
	if err != nil || item == nil {
		t.Fatalf("GetItem: %v", err)
	}
	total, err := store.AssignedTotal(ctx, env.db, itemID)
	if err != nil {
		t.Fatalf("AssignedTotal: %v", err)
	}
	if total > item.Quantity {
		t.Errorf("quantity invariant violated for item %d: %d assigned of %d total", itemID, total, item.Quantity)
	}
}

func isConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

func isNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
