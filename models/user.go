package models

import "time"

// Role is the capability tier of an account. Kept as a typed string so the
// compiler can force every capability switch to handle all three tiers.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Capability is what an endpoint requires, independent of any concrete role.
type Capability int

const (
	CapAnyAuthenticated Capability = iota
	CapStaffOrAdmin
	CapAdminOnly
)

// Can reports whether the role satisfies the required capability.
func (r Role) Can(c Capability) bool {
	switch c {
	case CapAnyAuthenticated:
		return r.Valid()
	case CapStaffOrAdmin:
		return r == RoleStaff || r == RoleAdmin
	case CapAdminOnly:
		return r == RoleAdmin
	}
	return false
}

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Email     string `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password  string `gorm:"type:varchar(255);not null" json:"-"`
	Role      Role   `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	StudentID string `gorm:"type:varchar(50)" json:"student_id,omitempty"`
	Phone     string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	// Deactivation is a soft flag; users are never physically deleted.
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
