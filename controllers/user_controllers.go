package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/services"
	"github.com/gauravbhatt9854/Foody/utils"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// GetAllUsers lists accounts, admin only (enforced by the router).
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	query := uc.DB.Order("created_at DESC")

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	if err := query.Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}

// UpdateRole changes an account's capability tier.
func (uc *UserController) UpdateRole(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !req.Role.Valid() {
		utils.RespondAppError(c, services.Errorf(services.KindValidation, "invalid role %q", req.Role))
		return
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		utils.RespondAppError(c, services.Errorf(services.KindNotFound, "user not found"))
		return
	}

	user.Role = req.Role
	if err := uc.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Role of %s changed to %s", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusOK, "Role updated", user)
}

// UpdateStatus soft-deactivates or reactivates an account. Users are never
// physically deleted.
func (uc *UserController) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.First(&user, id).Error; err != nil {
		utils.RespondAppError(c, services.Errorf(services.KindNotFound, "user not found"))
		return
	}

	user.IsActive = *req.IsActive
	if err := uc.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "User status updated", user)
}
