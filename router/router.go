package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/controllers"
	"github.com/gauravbhatt9854/Foody/middlewares"
	"github.com/gauravbhatt9854/Foody/services"
)

// SetupRouter wires the full route table over the lifecycle engine and the
// deferred payment processor.
func SetupRouter(db *gorm.DB, engine *services.OrderLifecycle, payments *services.PaymentProcessor) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	authCtrl := controllers.NewAuthController(db)
	userCtrl := controllers.NewUserController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(db, engine, payments)
	analyticsCtrl := controllers.NewAnalyticsController(db)
	wsCtrl := controllers.NewWSController(db)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "Foody API is running!",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public auth endpoints, throttled.
	auth := api.Group("/auth")
	auth.Use(middlewares.NewStrictRateLimiter())
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
	}
	api.GET("/auth/me", middlewares.AuthMiddleware(db), authCtrl.Me)

	// Menu browsing is public; managing it is not.
	menu := api.Group("/menu")
	{
		menu.GET("", menuCtrl.GetAllMenuItems)
		menu.GET("/categories", menuCtrl.GetCategories)
		menu.GET("/:item_id", menuCtrl.GetMenuItemByID)

		staff := menu.Group("")
		staff.Use(middlewares.AuthMiddleware(db), middlewares.RequireStaff())
		{
			staff.POST("", menuCtrl.CreateMenuItem)
			staff.PUT("/:item_id", menuCtrl.UpdateMenuItem)
			staff.PATCH("/:item_id/availability", menuCtrl.ToggleAvailability)
		}
		menu.DELETE("/:item_id", middlewares.AuthMiddleware(db), middlewares.RequireAdmin(), menuCtrl.DeleteMenuItem)
	}

	orders := api.Group("/orders")
	orders.Use(middlewares.AuthMiddleware(db))
	{
		orders.GET("", orderCtrl.GetAllOrders)
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("/stats/summary", middlewares.RequireStaff(), orderCtrl.StatsSummary)
		orders.GET("/:order_id", orderCtrl.GetOrderByID)
		orders.PUT("/:order_id/status", middlewares.RequireStaff(), orderCtrl.UpdateStatus)
		orders.POST("/:order_id/payment", orderCtrl.ProcessPayment)
		orders.POST("/:order_id/review", orderCtrl.SubmitReview)
	}

	users := api.Group("/users")
	users.Use(middlewares.AuthMiddleware(db), middlewares.RequireAdmin())
	{
		users.GET("", userCtrl.GetAllUsers)
		users.PUT("/:user_id/role", userCtrl.UpdateRole)
		users.PUT("/:user_id/status", userCtrl.UpdateStatus)
	}

	analytics := api.Group("/analytics")
	analytics.Use(middlewares.AuthMiddleware(db), middlewares.RequireAdmin())
	{
		analytics.GET("/dashboard", analyticsCtrl.Dashboard)
		analytics.GET("/export", analyticsCtrl.Export)
	}

	// Realtime endpoint; the auth middleware accepts ?token= for sockets.
	api.GET("/ws", middlewares.AuthMiddleware(db), wsCtrl.Handle)

	return r
}
