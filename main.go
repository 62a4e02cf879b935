package main

import (
	"log"

	"clinic_backoffice/config"
	"clinic_backoffice/handlers"
	"clinic_backoffice/middleware"
	"clinic_backoffice/models"
	"clinic_backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func initDatabase() (*gorm.DB, error) {
	// TranslateError turns the sqlite unique-constraint violation into
	// gorm.ErrDuplicatedKey, which the check-in and device races rely on.
	db, err := gorm.Open(sqlite.Open(config.AppConfig.DBPath), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.AttendanceRecord{},
		&models.DeviceBinding{},
		&models.ProcedureType{},
		&models.ProcedureRecord{},
		&models.CompensationEntry{},
		&models.RevenueEntry{},
		&models.ExpenseEntry{},
		&models.LeaveRequest{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func setupRoutes(app *fiber.App) {
	attendance := app.Group("/attendance", middleware.RequireAuth)
	attendance.Post("/check-in", handlers.CheckIn)
	attendance.Post("/check-out", handlers.CheckOut)
	attendance.Get("/today", handlers.GetTodayAttendance)

	app.Get("/devices", middleware.RequireAuth, handlers.ListMyDevices)
	app.Get("/compensation/report", middleware.RequireAuth, handlers.GetCompensationReport)

	validations := app.Group("/validations", middleware.RequireAuth, middleware.RequireValidator)
	validations.Get("/", handlers.ListEntries)
	validations.Get("/stats", handlers.GetValidationStats)
	validations.Post("/:kind/:id/approve", handlers.ApproveEntry)
	validations.Post("/:kind/:id/reject", handlers.RejectEntry)

	app.Get("/dashboard/summary", middleware.RequireAuth, middleware.RequireValidator, handlers.GetDailySummary)
}

func main() {
	config.LoadConfig()
	utils.InitLogger()
	defer utils.Logger.Sync()

	db, err := initDatabase()
	if err != nil {
		utils.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	handlers.InitHandlers(db, config.AppConfig)

	app := fiber.New()
	setupRoutes(app)

	utils.Logger.Info("Starting server", zap.String("port", config.AppConfig.Port))
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
