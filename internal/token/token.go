// Package token implements the signed acceptance claim: the opaque string
// emailed to an employee that identifies a pending reservation.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/model"
)

// ErrInvalid is returned for any token that cannot be trusted: bad
// signature, malformed claims, or past expiry. Callers must not
// distinguish these cases to the end user.
var ErrInvalid = errors.New("invalid or expired token")

// Claim is the payload of an acceptance token. Tenant routes storage
// lookups to the right partition, so it must survive decode exactly.
type Claim struct {
	EmployeeID int64         `json:"employee_id"`
	ItemIDs    []int64       `json:"item_ids"`
	Quantities map[int64]int `json:"quantities,omitempty"`
	Kind       string        `json:"kind"`
	Tenant     string        `json:"tenant"`
	jwt.RegisteredClaims
}

// Issue signs a new acceptance token. The embedded expiry must match the
// expires_at persisted alongside the reservation so both layers agree.
func Issue(secret string, employeeID int64, itemIDs []int64, quantities map[int64]int, kind, tenant string, ttl time.Duration) (string, time.Time, error) {
	if !model.ValidKind(kind) {
		return "", time.Time{}, fmt.Errorf("unknown item kind %q", kind)
	}
	if len(itemIDs) == 0 {
		return "", time.Time{}, fmt.Errorf("no item ids to issue token for")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claim := Claim{
		EmployeeID: employeeID,
		ItemIDs:    itemIDs,
		Quantities: quantities,
		Kind:       kind,
		Tenant:     tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Decode parses and verifies an acceptance token. It fails closed: any
// signature mismatch, structural problem or expiry yields ErrInvalid.
func Decode(secret, tokenStr string) (*Claim, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claim{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalid
	}

	claim, ok := tok.Claims.(*Claim)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if claim.EmployeeID == 0 || len(claim.ItemIDs) == 0 || !model.ValidKind(claim.Kind) {
		return nil, ErrInvalid
	}

	return claim, nil
}
