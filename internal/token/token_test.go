package token

import (
	"errors"
	"testing"
	"time"

	"github.com/assetdesk/assetdesk/internal/model"
)

func TestIssueAndDecode(t *testing.T) {
	secret := "test-secret-key"
	quantities := map[int64]int{4: 2, 9: 1}

	tok, expiresAt, err := Issue(secret, 7, []int64{4, 9}, quantities, model.KindAsset, "acme", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok == "" {
		t.Fatal("expected non-empty token")
	}

	claim, err := Decode(secret, tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if claim.EmployeeID != 7 {
		t.Errorf("expected employee_id 7, got %d", claim.EmployeeID)
	}
	if len(claim.ItemIDs) != 2 || claim.ItemIDs[0] != 4 || claim.ItemIDs[1] != 9 {
		t.Errorf("unexpected item ids: %v", claim.ItemIDs)
	}
	if claim.Quantities[4] != 2 || claim.Quantities[9] != 1 {
		t.Errorf("unexpected quantities: %v", claim.Quantities)
	}
	if claim.Kind != model.KindAsset {
		t.Errorf("expected kind 'asset', got %q", claim.Kind)
	}
	if claim.Tenant != "acme" {
		t.Errorf("expected tenant 'acme', got %q", claim.Tenant)
	}

	// Embedded expiry should match the returned one.
	diff := claim.ExpiresAt.Time.Sub(expiresAt)
	if diff < -time.Second || diff > time.Second {
		t.Errorf("claim expiry too far from returned expiry: diff=%v", diff)
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	tok, _, _ := Issue("secret1", 1, []int64{1}, nil, model.KindLicense, "default", time.Hour)

	_, err := Decode("secret2", tok)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for wrong secret, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("secret", "not-a-token")
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for garbage, got %v", err)
	}
}

func TestDecodeExpired(t *testing.T) {
	tok, _, _ := Issue("secret", 1, []int64{1}, nil, model.KindAsset, "default", -time.Minute)

	_, err := Decode("secret", tok)
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for expired token, got %v", err)
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	if _, _, err := Issue("secret", 1, []int64{1}, nil, "vehicle", "default", time.Hour); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, _, err := Issue("secret", 1, nil, nil, model.KindAsset, "default", time.Hour); err == nil {
		t.Error("expected error for empty item ids")
	}
}
