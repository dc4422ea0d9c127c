package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/utils"
)

// RequireCapability gates a route on the role's capability tier.
func RequireCapability(cap models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authentication required"))
			c.Abort()
			return
		}

		if !user.Role.Can(cap) {
			utils.RespondError(c, http.StatusForbidden, errors.New("insufficient permissions"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func RequireStaff() gin.HandlerFunc {
	return RequireCapability(models.CapStaffOrAdmin)
}

func RequireAdmin() gin.HandlerFunc {
	return RequireCapability(models.CapAdminOnly)
}
