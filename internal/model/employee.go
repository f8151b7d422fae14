package model

import "time"

// Employee represents a person items can be assigned to. Employees are not
// login users; they only receive acceptance emails.
type Employee struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
