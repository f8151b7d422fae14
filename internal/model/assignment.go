package model

import "time"

// Assignment represents the units of an item held by one employee.
// One row per (item, employee) pair; the row is deleted when the held
// quantity drops to zero.
type Assignment struct {
	ItemID     int64     `json:"item_id"`
	EmployeeID int64     `json:"employee_id"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	AssignedAt time.Time `json:"assigned_at"`

	// Joined fields (not always populated).
	ItemName      string `json:"item_name,omitempty"`
	ItemKind      string `json:"item_kind,omitempty"`
	EmployeeName  string `json:"employee_name,omitempty"`
	EmployeeEmail string `json:"employee_email,omitempty"`
}

// Assignment statuses. Reserved means the employee has not yet confirmed
// the acceptance email; Assigned means they have.
const (
	AssignmentReserved = "reserved"
	AssignmentAssigned = "assigned"
)
