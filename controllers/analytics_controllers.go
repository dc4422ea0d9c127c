package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/services"
	"github.com/gauravbhatt9854/Foody/utils"
)

type AnalyticsController struct {
	DB *gorm.DB
}

func NewAnalyticsController(db *gorm.DB) *AnalyticsController {
	return &AnalyticsController{DB: db}
}

type itemSales struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

// Dashboard returns the admin overview: order volume, revenue and the best
// selling items over the requested number of days (default 30).
func (ac *AnalyticsController) Dashboard(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	type totals struct {
		Orders  int64
		Revenue float64
	}
	var t totals
	if err := ac.DB.Model(&models.Order{}).
		Select("COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("created_at >= ? AND status != ?", since, models.OrderStatusCancelled).
		Scan(&t).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var topItems []itemSales
	err := ac.DB.Model(&models.OrderItem{}).
		Select("order_items.menu_item_id, menu_items.name, SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.status != ?", since, models.OrderStatusCancelled).
		Group("order_items.menu_item_id, menu_items.name").
		Order("quantity DESC").
		Limit(10).
		Scan(&topItems).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var activeUsers int64
	if err := ac.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	avgOrder := 0.0
	if t.Orders > 0 {
		avgOrder = t.Revenue / float64(t.Orders)
	}

	utils.RespondJSON(c, http.StatusOK, "Analytics dashboard", gin.H{
		"period_days":   days,
		"total_orders":  t.Orders,
		"total_revenue": t.Revenue,
		"average_order": avgOrder,
		"active_users":  activeUsers,
		"top_items":     topItems,
	})
}

// Export streams a CSV download of orders or per-item revenue.
func (ac *AnalyticsController) Export(c *gin.Context) {
	exportType := c.DefaultQuery("type", "orders")
	filename := fmt.Sprintf("%s-export-%s.csv", exportType, time.Now().Format("2006-01-02"))

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	switch exportType {
	case "orders":
		var orders []models.Order
		if err := ac.DB.Preload("Customer").Order("created_at DESC").Find(&orders).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}

		w.Write([]string{"order_number", "customer", "status", "order_type", "payment_status", "total_amount", "created_at"})
		for _, o := range orders {
			customer := ""
			if o.Customer != nil {
				customer = o.Customer.Name
			}
			w.Write([]string{
				o.OrderNumber,
				customer,
				string(o.Status),
				string(o.OrderType),
				string(o.PaymentStatus),
				fmt.Sprintf("%.2f", o.TotalAmount),
				o.CreatedAt.Format(time.RFC3339),
			})
		}

	case "revenue":
		var rows []itemSales
		err := ac.DB.Model(&models.OrderItem{}).
			Select("order_items.menu_item_id, menu_items.name, SUM(order_items.quantity) AS quantity, SUM(order_items.price * order_items.quantity) AS revenue").
			Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
			Group("order_items.menu_item_id, menu_items.name").
			Order("revenue DESC").
			Scan(&rows).Error
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}

		w.Write([]string{"menu_item_id", "name", "quantity", "revenue"})
		for _, r := range rows {
			w.Write([]string{
				strconv.FormatUint(uint64(r.MenuItemID), 10),
				r.Name,
				strconv.FormatInt(r.Quantity, 10),
				fmt.Sprintf("%.2f", r.Revenue),
			})
		}

	default:
		utils.RespondAppError(c, services.Errorf(services.KindValidation, "export type must be orders or revenue"))
	}
}
