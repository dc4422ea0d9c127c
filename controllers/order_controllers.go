package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/middlewares"
	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/services"
	"github.com/gauravbhatt9854/Foody/utils"
)

type OrderController struct {
	DB       *gorm.DB
	Engine   *services.OrderLifecycle
	Payments *services.PaymentProcessor
}

func NewOrderController(db *gorm.DB, engine *services.OrderLifecycle, payments *services.PaymentProcessor) *OrderController {
	return &OrderController{DB: db, Engine: engine, Payments: payments}
}

// GetAllOrders lists orders. Students only ever see their own; staff see
// everything, optionally filtered by status, type and date range.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	query := oc.DB.Model(&models.Order{}).
		Preload("Items").
		Preload("Items.MenuItem").
		Preload("Customer").
		Preload("AssignedTo")

	if !user.Role.Can(models.CapStaffOrAdmin) {
		query = query.Where("customer_id = ?", user.ID)
	}
	if status := c.Query("status"); status != "" {
		if !models.OrderStatus(status).Valid() {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "invalid status %q", status))
			return
		}
		query = query.Where("status = ?", status)
	}
	if orderType := c.Query("order_type"); orderType != "" {
		if !models.OrderType(orderType).Valid() {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "invalid order type %q", orderType))
			return
		}
		query = query.Where("order_type = ?", orderType)
	}
	if startDate := c.Query("start_date"); startDate != "" {
		t, err := time.Parse(time.RFC3339, startDate)
		if err != nil {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "start_date must be RFC3339"))
			return
		}
		query = query.Where("created_at >= ?", t)
	}
	if endDate := c.Query("end_date"); endDate != "" {
		t, err := time.Parse(time.RFC3339, endDate)
		if err != nil {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "end_date must be RFC3339"))
			return
		}
		query = query.Where("created_at <= ?", t)
	}

	page, limit := pagination(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var orders []models.Order
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Orders", gin.H{
		"orders":     orders,
		"pagination": paginationMeta(page, limit, total),
	})
}

// GetOrderByID returns one order, visible to its owner or staff.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.GetOrder(uint(id))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if order.CustomerID != user.ID && !user.Role.Can(models.CapStaffOrAdmin) {
		utils.RespondAppError(c, services.Errorf(services.KindForbidden, "access denied"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// CreateOrder places an order for the authenticated customer.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var req struct {
		Items               []services.LineItemRequest `json:"items" binding:"required"`
		OrderType           models.OrderType           `json:"order_type" binding:"required"`
		DeliveryAddress     string                     `json:"delivery_address"`
		PaymentMethod       models.PaymentMethod       `json:"payment_method" binding:"required"`
		SpecialInstructions string                     `json:"special_instructions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.PlaceOrder(services.PlaceOrderRequest{
		CustomerID:          user.ID,
		Items:               req.Items,
		OrderType:           req.OrderType,
		DeliveryAddress:     req.DeliveryAddress,
		PaymentMethod:       req.PaymentMethod,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.InfoLogger.Printf("Order %s placed by %s (total %.2f)", order.OrderNumber, user.Email, order.TotalAmount)
	utils.RespondJSON(c, http.StatusCreated, "Order placed successfully", order)
}

// UpdateStatus applies a staff-requested lifecycle transition. The caller
// may supply the status it last read; a mismatch is a conflict instead of
// a silent overwrite.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Status         models.OrderStatus  `json:"status" binding:"required"`
		StaffNotes     string              `json:"staff_notes"`
		ExpectedStatus *models.OrderStatus `json:"expected_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.RequestTransition(uint(id), req.Status, user, req.StaffNotes, req.ExpectedStatus)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated successfully", order)
}

// ProcessPayment starts the mock payment flow: the outcome is applied by a
// deferred job, never inside this handler.
func (oc *OrderController) ProcessPayment(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.GetOrder(uint(id))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if order.CustomerID != user.ID && !user.Role.Can(models.CapStaffOrAdmin) {
		utils.RespondAppError(c, services.Errorf(services.KindForbidden, "access denied"))
		return
	}

	ref, err := oc.Payments.Enqueue(order.ID, req.PaymentStatus)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Payment processing initiated", gin.H{
		"payment_status": "processing",
		"payment_ref":    ref,
	})
}

// SubmitReview records the customer's rating for a delivered order.
func (oc *OrderController) SubmitReview(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	id, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Rating int    `json:"rating" binding:"required"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Engine.SubmitReview(uint(id), user, req.Rating, req.Review)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Review added successfully", order)
}

// StatsSummary returns order counts and revenue for the staff dashboard.
func (oc *OrderController) StatsSummary(c *gin.Context) {
	type bucket struct {
		Count   int64
		Revenue float64
	}

	today := time.Now().Truncate(24 * time.Hour)

	var todayStats, totalStats bucket
	if err := oc.DB.Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("created_at >= ?", today).
		Scan(&todayStats).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := oc.DB.Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Scan(&totalStats).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type statusCount struct {
		Status models.OrderStatus `json:"status"`
		Count  int64              `json:"count"`
	}
	var byStatus []statusCount
	if err := oc.DB.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var pending int64
	if err := oc.DB.Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{
			models.OrderStatusPending,
			models.OrderStatusConfirmed,
			models.OrderStatusPreparing,
		}).
		Count(&pending).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order statistics", gin.H{
		"today_orders":     todayStats.Count,
		"today_revenue":    todayStats.Revenue,
		"total_orders":     totalStats.Count,
		"total_revenue":    totalStats.Revenue,
		"pending_orders":   pending,
		"status_breakdown": byStatus,
	})
}
