package model

import "time"

// Reservation is the persisted record of one issued acceptance token.
// Rows are never deleted; terminal statuses are kept as an audit trail.
type Reservation struct {
	ID         int64         `json:"id"`
	Token      string        `json:"-"`
	EmployeeID int64         `json:"employee_id"`
	ItemIDs    []int64       `json:"item_ids"`
	Quantities map[int64]int `json:"quantities,omitempty"`
	Kind       string        `json:"kind"`
	IssuedAt   time.Time     `json:"issued_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	Status     string        `json:"status"`
	UsedAt     *time.Time    `json:"used_at,omitempty"`
}

// Reservation statuses. Pending is the only non-terminal status; a
// reservation never re-enters it.
const (
	ReservationPending  = "pending"
	ReservationAccepted = "accepted"
	ReservationRejected = "rejected"
	ReservationExpired  = "expired"
)

// Consumed reports whether the reservation has left the pending state.
func (r *Reservation) Consumed() bool {
	return r.Status != ReservationPending
}

// QuantityFor returns the units reserved for itemID, defaulting to one
// unit when no explicit quantity was recorded.
func (r *Reservation) QuantityFor(itemID int64) int {
	if q, ok := r.Quantities[itemID]; ok && q > 0 {
		return q
	}
	return 1
}
