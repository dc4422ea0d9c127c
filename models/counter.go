package models

// Counter is a named sequence row. The order-number sequence increments it
// under a row lock inside the placement transaction, so concurrent
// placements can never read the same value.
type Counter struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value uint64 `gorm:"not null;default:0"`
}
