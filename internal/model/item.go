package model

import "time"

// Item represents an inventory item type (quantity-based, not per-unit
// serial tracking). Assets and licenses share the same shape and differ
// only in kind.
type Item struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Kind        string     `json:"kind"`
	Quantity    int        `json:"quantity"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Item kinds.
const (
	KindAsset   = "asset"
	KindLicense = "license"
)

// Item statuses (global lifecycle, independent of any one holder).
const (
	ItemStatusActive      = "active"
	ItemStatusMaintenance = "maintenance"
	ItemStatusRetired     = "retired"
)

// ValidKind reports whether kind is a known item kind.
func ValidKind(kind string) bool {
	return kind == KindAsset || kind == KindLicense
}

// ValidItemStatus reports whether status is a known item status.
func ValidItemStatus(status string) bool {
	switch status {
	case ItemStatusActive, ItemStatusMaintenance, ItemStatusRetired:
		return true
	}
	return false
}
