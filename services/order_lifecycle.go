package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/realtime"
)

// orderSequence is the counter row backing order numbering.
const orderSequence = "orders"

// transitions is the complete set of legal status edges. Transitions are
// data, not behavior: legality is a single table lookup.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusDelivered},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

// CanTransition reports whether from -> to is a permitted edge.
func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderLifecycle owns the order status state machine and its side effects.
// All order mutation goes through its operations; writes are committed
// before any notification is attempted.
type OrderLifecycle struct {
	db *gorm.DB
}

func NewOrderLifecycle(db *gorm.DB) *OrderLifecycle {
	return &OrderLifecycle{db: db}
}

// SeedSequences makes sure the counter rows exist. Called once after
// migration so concurrent placements only ever update, never insert.
func SeedSequences(db *gorm.DB) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Counter{Name: orderSequence, Value: 0}).Error
}

type LineItemRequest struct {
	MenuItemID          uint   `json:"menu_item_id" binding:"required"`
	Quantity            int    `json:"quantity" binding:"required,min=1"`
	SpecialInstructions string `json:"special_instructions"`
}

type PlaceOrderRequest struct {
	CustomerID          uint
	Items               []LineItemRequest
	OrderType           models.OrderType
	DeliveryAddress     string
	PaymentMethod       models.PaymentMethod
	SpecialInstructions string
}

// PlaceOrder validates the request, snapshots current menu prices, assigns
// the next sequential order number and persists the order as pending.
func (e *OrderLifecycle) PlaceOrder(req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, Errorf(KindValidation, "at least one item is required")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, Errorf(KindValidation, "quantity must be at least 1")
		}
	}
	if !req.OrderType.Valid() {
		return nil, Errorf(KindValidation, "order type must be pickup or delivery")
	}
	if !req.PaymentMethod.Valid() {
		return nil, Errorf(KindValidation, "invalid payment method")
	}
	if req.OrderType == models.OrderTypeDelivery && strings.TrimSpace(req.DeliveryAddress) == "" {
		return nil, Errorf(KindValidation, "delivery address is required for delivery orders")
	}

	// Availability is checked by set equality between the requested item
	// keys and the available items found; any mismatch rejects the whole
	// order, never a partial one.
	idSet := make(map[uint]bool)
	var ids []uint
	for _, item := range req.Items {
		if !idSet[item.MenuItemID] {
			idSet[item.MenuItemID] = true
			ids = append(ids, item.MenuItemID)
		}
	}

	var menuItems []models.MenuItem
	if err := e.db.Where("id IN ? AND is_available = ?", ids, true).Find(&menuItems).Error; err != nil {
		return nil, err
	}
	if len(menuItems) != len(ids) {
		return nil, Errorf(KindValidation, "some menu items are not available or invalid")
	}
	byID := make(map[uint]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	var total float64
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		menuItem := byID[item.MenuItemID]
		total += menuItem.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:          menuItem.ID,
			Quantity:            item.Quantity,
			Price:               menuItem.Price,
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	order := models.Order{
		CustomerID:          req.CustomerID,
		Items:               orderItems,
		TotalAmount:         total,
		Status:              models.OrderStatusPending,
		OrderType:           req.OrderType,
		DeliveryAddress:     req.DeliveryAddress,
		PaymentStatus:       models.PaymentStatusPending,
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	var customer models.User
	customerName := ""
	if err := e.db.First(&customer, order.CustomerID).Error; err == nil {
		customerName = customer.Name
	}

	realtime.Publish(realtime.RoomStaff, realtime.EventNewOrder, map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"customer":     customerName,
		"total_amount": order.TotalAmount,
		"order_type":   order.OrderType,
	})

	return e.getOrder(order.ID)
}

// nextOrderNumber atomically increments the order counter within tx. The
// incremented row stays locked until the surrounding transaction commits,
// so two concurrent placements can never observe the same value.
func nextOrderNumber(tx *gorm.DB) (string, error) {
	res := tx.Model(&models.Counter{}).
		Where("name = ?", orderSequence).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// Sequence row missing (fresh store without SeedSequences).
		if err := tx.Create(&models.Counter{Name: orderSequence, Value: 1}).Error; err != nil {
			return "", err
		}
		return fmt.Sprintf("ORD%06d", 1), nil
	}

	var counter models.Counter
	if err := tx.Where("name = ?", orderSequence).First(&counter).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD%06d", counter.Value), nil
}

// RequestTransition applies a staff-requested status change. The update is
// conditional on the status that was read, so a concurrent transition on
// the same order surfaces as a Conflict instead of a lost update.
func (e *OrderLifecycle) RequestTransition(orderID uint, target models.OrderStatus, actor *models.User, notes string, expected *models.OrderStatus) (*models.Order, error) {
	if actor == nil || !actor.Role.Can(models.CapStaffOrAdmin) {
		return nil, Errorf(KindForbidden, "staff access required")
	}
	if !target.Valid() {
		return nil, Errorf(KindValidation, "invalid status %q", target)
	}

	order, err := e.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if expected != nil && *expected != order.Status {
		return nil, Errorf(KindConflict, "order status changed since read (now %s)", order.Status)
	}
	if !CanTransition(order.Status, target) {
		return nil, Errorf(KindInvalidTransition, "cannot change status from %s to %s", order.Status, target)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}
	if order.AssignedToID == nil {
		updates["assigned_to_id"] = actor.ID
	}
	if target == models.OrderStatusConfirmed && order.EstimatedDeliveryTime == nil {
		updates["estimated_delivery_time"] = estimatedDeliveryTime(order, now)
	}
	if target == models.OrderStatusDelivered && order.ActualDeliveryTime == nil {
		updates["actual_delivery_time"] = now
	}
	if strings.TrimSpace(notes) != "" {
		updates["staff_notes"] = appendNote(order.StaffNotes, notes)
	}

	res := e.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, Errorf(KindConflict, "order status changed since read")
	}

	order, err = e.getOrder(order.ID)
	if err != nil {
		return nil, err
	}

	realtime.Publish(realtime.OrderRoom(order.ID), realtime.EventOrderStatus, map[string]interface{}{
		"order_id":                order.ID,
		"order_number":            order.OrderNumber,
		"status":                  order.Status,
		"estimated_delivery_time": order.EstimatedDeliveryTime,
		"actual_delivery_time":    order.ActualDeliveryTime,
	})

	return order, nil
}

// ApplyPayment records a payment outcome. A completed payment on a pending
// order auto-confirms it; this is the one transition not requested by a
// staff actor, and the point where the delivery estimate is first computed.
func (e *OrderLifecycle) ApplyPayment(orderID uint, outcome models.PaymentStatus, ref string) (*models.Order, error) {
	if outcome != models.PaymentStatusCompleted && outcome != models.PaymentStatusFailed {
		return nil, Errorf(KindValidation, "payment outcome must be completed or failed")
	}

	order, err := e.getOrder(orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{
		"payment_status": outcome,
		"updated_at":     now,
	}
	if ref != "" {
		updates["payment_ref"] = ref
	}

	autoConfirm := outcome == models.PaymentStatusCompleted && order.Status == models.OrderStatusPending
	if autoConfirm {
		updates["status"] = models.OrderStatusConfirmed
		if order.EstimatedDeliveryTime == nil {
			updates["estimated_delivery_time"] = estimatedDeliveryTime(order, now)
		}
	}

	res := e.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, Errorf(KindConflict, "order status changed since read")
	}

	order, err = e.getOrder(order.ID)
	if err != nil {
		return nil, err
	}

	realtime.Publish(realtime.OrderRoom(order.ID), realtime.EventPaymentUpdated, map[string]interface{}{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
		"status":         order.Status,
	})
	if outcome == models.PaymentStatusCompleted {
		realtime.Publish(realtime.RoomStaff, realtime.EventPaymentReceived, map[string]interface{}{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"amount":       order.TotalAmount,
		})
	}

	return order, nil
}

// SubmitReview records the customer's rating exactly once, and feeds the
// running rating counters of every item on the order.
func (e *OrderLifecycle) SubmitReview(orderID uint, actor *models.User, rating int, review string) (*models.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, Errorf(KindValidation, "rating must be between 1 and 5")
	}

	order, err := e.getOrder(orderID)
	if err != nil {
		return nil, err
	}
	if actor == nil || order.CustomerID != actor.ID {
		return nil, Errorf(KindForbidden, "only the order owner can review it")
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, Errorf(KindInvalidState, "can only review delivered orders")
	}
	if order.Rating != nil {
		return nil, Errorf(KindAlreadyReviewed, "order already reviewed")
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		// Conditional on rating still being unset, so a racing double
		// submit cannot overwrite the first review.
		res := tx.Model(&models.Order{}).
			Where("id = ? AND rating IS NULL", order.ID).
			Updates(map[string]interface{}{
				"rating":     rating,
				"review":     review,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return Errorf(KindAlreadyReviewed, "order already reviewed")
		}

		ids := make([]uint, 0, len(order.Items))
		for _, item := range order.Items {
			ids = append(ids, item.MenuItemID)
		}
		return tx.Model(&models.MenuItem{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"rating":       gorm.Expr("rating + ?", rating),
				"review_count": gorm.Expr("review_count + 1"),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return e.getOrder(order.ID)
}

// GetOrder loads an order with its items and references.
func (e *OrderLifecycle) GetOrder(orderID uint) (*models.Order, error) {
	return e.getOrder(orderID)
}

func (e *OrderLifecycle) getOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := e.db.
		Preload("Items").
		Preload("Items.MenuItem").
		Preload("Customer").
		Preload("AssignedTo").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Errorf(KindNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}

// estimatedDeliveryTime applies the delivery estimate formula: preparation
// is the slowest item on the order with a 15 minute floor, plus 20 minutes
// for delivery or 5 for pickup.
func estimatedDeliveryTime(order *models.Order, now time.Time) time.Time {
	prep := 15
	for _, item := range order.Items {
		if item.MenuItem != nil && item.MenuItem.PreparationTime > prep {
			prep = item.MenuItem.PreparationTime
		}
	}

	handoff := 5
	if order.OrderType == models.OrderTypeDelivery {
		handoff = 20
	}
	return now.Add(time.Duration(prep+handoff) * time.Minute)
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
