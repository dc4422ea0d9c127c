package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/middlewares"
	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/services"
	"github.com/gauravbhatt9854/Foody/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenuItems lists the menu with filters and pagination.
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	query := mc.DB.Model(&models.MenuItem{})

	if category := c.Query("category"); category != "" {
		if !models.Category(category).Valid() {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "invalid category %q", category))
			return
		}
		query = query.Where("category = ?", category)
	}
	if available := c.Query("available"); available != "" {
		query = query.Where("is_available = ?", available == "true")
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ? OR ingredients LIKE ?", like, like, like)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		query = query.Where("price <= ?", maxPrice)
	}

	sortBy := c.DefaultQuery("sort_by", "created_at")
	switch sortBy {
	case "name", "price", "rating", "created_at":
	default:
		sortBy = "created_at"
	}
	order := "DESC"
	if c.DefaultQuery("sort_order", "desc") == "asc" {
		order = "ASC"
	}

	page, limit := pagination(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var items []models.MenuItem
	err := query.Order(sortBy + " " + order).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu items", gin.H{
		"menu_items": items,
		"pagination": paginationMeta(page, limit, total),
	})
}

// GetCategories returns per-category item counts.
func (mc *MenuController) GetCategories(c *gin.Context) {
	type categorySummary struct {
		Category       models.Category `json:"category"`
		Count          int64           `json:"count"`
		AvailableCount int64           `json:"available_count"`
	}

	var summaries []categorySummary
	err := mc.DB.Model(&models.MenuItem{}).
		Select("category, COUNT(*) AS count, SUM(CASE WHEN is_available THEN 1 ELSE 0 END) AS available_count").
		Group("category").
		Order("category").
		Scan(&summaries).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Categories", summaries)
}

// GetMenuItemByID returns a single menu item.
func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.Preload("CreatedBy").First(&item, id).Error; err != nil {
		utils.RespondAppError(c, services.Errorf(services.KindNotFound, "menu item not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item", item)
}

type menuItemRequest struct {
	Name            string          `json:"name" binding:"required,min=2"`
	Description     string          `json:"description" binding:"required,min=10"`
	Price           *float64        `json:"price" binding:"required"`
	Category        models.Category `json:"category" binding:"required"`
	Image           string          `json:"image"`
	Ingredients     string          `json:"ingredients"`
	IsVegetarian    bool            `json:"is_vegetarian"`
	IsVegan         bool            `json:"is_vegan"`
	IsGlutenFree    bool            `json:"is_gluten_free"`
	PreparationTime int             `json:"preparation_time"`
}

// CreateMenuItem adds a menu item, staff/admin only.
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !req.Category.Valid() {
		utils.RespondAppError(c, services.Errorf(services.KindValidation, "invalid category %q", req.Category))
		return
	}
	if *req.Price < 0 {
		utils.RespondAppError(c, services.Errorf(services.KindValidation, "price must be non-negative"))
		return
	}

	item := models.MenuItem{
		Name:            req.Name,
		Description:     req.Description,
		Price:           *req.Price,
		Category:        req.Category,
		Ingredients:     req.Ingredients,
		IsVegetarian:    req.IsVegetarian,
		IsVegan:         req.IsVegan,
		IsGlutenFree:    req.IsGlutenFree,
		IsAvailable:     true,
		PreparationTime: req.PreparationTime,
		CreatedByID:     user.ID,
	}
	if req.Image != "" {
		item.Image = req.Image
	}
	if item.PreparationTime <= 0 {
		item.PreparationTime = 15
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenuItem edits a menu item, staff/admin only. Editing the price
// never touches existing orders: their line items carry snapshotted prices.
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondAppError(c, services.Errorf(services.KindNotFound, "menu item not found"))
		return
	}

	var req struct {
		Name            *string          `json:"name"`
		Description     *string          `json:"description"`
		Price           *float64         `json:"price"`
		Category        *models.Category `json:"category"`
		Image           *string          `json:"image"`
		Ingredients     *string          `json:"ingredients"`
		IsVegetarian    *bool            `json:"is_vegetarian"`
		IsVegan         *bool            `json:"is_vegan"`
		IsGlutenFree    *bool            `json:"is_gluten_free"`
		PreparationTime *int             `json:"preparation_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "price must be non-negative"))
			return
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			utils.RespondAppError(c, services.Errorf(services.KindValidation, "invalid category %q", *req.Category))
			return
		}
		item.Category = *req.Category
	}
	if req.Image != nil {
		item.Image = *req.Image
	}
	if req.Ingredients != nil {
		item.Ingredients = *req.Ingredients
	}
	if req.IsVegetarian != nil {
		item.IsVegetarian = *req.IsVegetarian
	}
	if req.IsVegan != nil {
		item.IsVegan = *req.IsVegan
	}
	if req.IsGlutenFree != nil {
		item.IsGlutenFree = *req.IsGlutenFree
	}
	if req.PreparationTime != nil && *req.PreparationTime > 0 {
		item.PreparationTime = *req.PreparationTime
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// ToggleAvailability flips purchasability without deleting the item.
func (mc *MenuController) ToggleAvailability(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondAppError(c, services.Errorf(services.KindNotFound, "menu item not found"))
		return
	}

	item.IsAvailable = !item.IsAvailable
	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Availability updated", item)
}

// DeleteMenuItem removes an item entirely, admin only.
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res := mc.DB.Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondAppError(c, services.Errorf(services.KindNotFound, "menu item not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"item_id": id})
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) gin.H {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return gin.H{
		"current_page":   page,
		"total_pages":    totalPages,
		"total_items":    total,
		"items_per_page": limit,
	}
}
