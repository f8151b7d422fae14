// Package service orchestrates the assignment and acceptance workflow:
// reserving units to an employee, issuing the signed acceptance token,
// reconciling accept/reject/expiry against shared quantities.
package service

import (
	"errors"
	"fmt"
)

// Workflow errors surfaced to the request boundary. Token signature
// failures and expiry both map to ErrInvalidToken so the end user cannot
// distinguish a tampered link from a stale one.
var (
	ErrInvalidToken   = errors.New("invalid or expired link")
	ErrAlreadyUsed    = errors.New("this invitation has already been used")
	ErrMissingConsent = errors.New("terms must be accepted")
)

// NotFoundError reports a missing employee, item or tenant.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}

// ConflictError reports a request that contradicts current inventory
// state (insufficient quantity, overlapping reservation, ...).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// StaleAssignmentError means items covered by the token were removed or
// reassigned after issuance.
type StaleAssignmentError struct {
	MissingItemIDs []int64
}

func (e *StaleAssignmentError) Error() string {
	return fmt.Sprintf("assignment changed since the invitation was sent (%d items missing)", len(e.MissingItemIDs))
}

// NoLongerReservedError means some covered assignment rows left the
// reserved state, so the invitation can no longer be confirmed.
type NoLongerReservedError struct {
	ItemIDs []int64
}

func (e *NoLongerReservedError) Error() string {
	return fmt.Sprintf("%d items are no longer awaiting acceptance", len(e.ItemIDs))
}
