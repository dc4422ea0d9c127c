package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/gauravbhatt9854/Foody/config"
	"github.com/gauravbhatt9854/Foody/models"
	"github.com/gauravbhatt9854/Foody/router"
	"github.com/gauravbhatt9854/Foody/services"
	"github.com/gauravbhatt9854/Foody/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	engine := services.NewOrderLifecycle(db)

	payments := services.NewPaymentProcessor(engine)
	payments.Delay = cfg.PaymentDelay
	payments.Start()
	defer payments.Stop()

	r := router.SetupRouter(db, engine, payments)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Counter{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	if err := services.SeedSequences(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed sequences: %v", err)
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
}
