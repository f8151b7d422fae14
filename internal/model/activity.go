package model

import "time"

// ActivityEntry is an append-only record of a workflow state change.
type ActivityEntry struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	EmployeeID int64     `json:"employee_id"`
	ItemID     int64     `json:"item_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Activity entry types.
const (
	ActivityAssigned = "assigned"
	ActivityRemoved  = "removed"
	ActivityAccepted = "accepted"
	ActivityRejected = "rejected"
	ActivityExpired  = "expired"
)
