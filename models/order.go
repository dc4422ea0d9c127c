package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	return t == OrderTypePickup || t == OrderTypeDelivery
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodWallet:
		return true
	}
	return false
}

type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Human-readable sequential identifier, ORD + zero-padded count.
	OrderNumber string `gorm:"type:varchar(20);unique;not null;index" json:"order_number"`

	CustomerID uint        `gorm:"not null;index" json:"customer_id"`
	Customer   *User       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items      []OrderItem `gorm:"foreignKey:OrderID" json:"items"`

	// Frozen sum of snapshotted line-item prices; never derived from the
	// current menu prices after placement.
	TotalAmount float64 `gorm:"type:decimal(10,2);not null" json:"total_amount"`

	Status    OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	OrderType OrderType   `gorm:"type:varchar(20);not null;index" json:"order_type"`

	// Required iff OrderType is delivery.
	DeliveryAddress string `gorm:"type:text" json:"delivery_address,omitempty"`

	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	PaymentRef    string        `gorm:"type:varchar(64)" json:"payment_ref,omitempty"`

	// Set once at the transition into confirmed, never recomputed.
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time,omitempty"`
	// Stamped exactly once at the transition into delivered.
	ActualDeliveryTime *time.Time `json:"actual_delivery_time,omitempty"`

	SpecialInstructions string `gorm:"type:text" json:"special_instructions,omitempty"`
	StaffNotes          string `gorm:"type:text" json:"staff_notes,omitempty"`

	// First staff member to touch the order; never reassigned.
	AssignedToID *uint `gorm:"index" json:"assigned_to_id,omitempty"`
	AssignedTo   *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`

	// Settable once, only after delivery, only by the owner.
	Rating *int   `json:"rating,omitempty"`
	Review string `gorm:"type:text" json:"review,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Duration returns the order's fulfillment time in minutes, or -1 when the
// order has not been delivered.
func (o *Order) Duration() int {
	if o.ActualDeliveryTime == nil {
		return -1
	}
	return int(o.ActualDeliveryTime.Sub(o.CreatedAt).Minutes())
}
