package test

import (
	"log"
	"os"
	"time"

	"clinic_backoffice/config"
	"clinic_backoffice/handlers"
	"clinic_backoffice/models"
	"clinic_backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	testApp *fiber.App
	testDB  *gorm.DB
)

func init() {
	// The external configuration surface, seeded directly for tests.
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("CLINIC_LATITUDE", "0")
	os.Setenv("CLINIC_LONGITUDE", "0")
	os.Setenv("GEOFENCE_RADIUS_M", "100")
	os.Setenv("MAX_GPS_ACCURACY_M", "50")
	os.Setenv("LATE_CUTOFF", "23:59")
	os.Setenv("PHOTO_DIR", os.TempDir())

	config.LoadConfig()
	utils.InitLogger()

	var err error
	testDB, err = gorm.Open(sqlite.Open("file:handlers_test?mode=memory&cache=shared"),
		&gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to test database:", err)
	}

	err = testDB.AutoMigrate(
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
		log.Fatal("Failed to migrate test database:", err)
	}

	handlers.InitHandlers(testDB, config.AppConfig)
	testApp = fiber.New()
}

func SetupTest() (*fiber.App, *gorm.DB) {
	ResetTestDB()

	testApp = fiber.New()
	handlers.InitHandlers(testDB, config.AppConfig)

	return testApp, testDB
}

func ResetTestDB() {
	testDB.Exec("DELETE FROM attendance_records")
	testDB.Exec("DELETE FROM device_bindings")
	testDB.Exec("DELETE FROM procedure_records")
	testDB.Exec("DELETE FROM procedure_types")
	testDB.Exec("DELETE FROM compensation_entries")
	testDB.Exec("DELETE FROM revenue_entries")
	testDB.Exec("DELETE FROM expense_entries")
	testDB.Exec("DELETE FROM leave_requests")
	testDB.Exec("DELETE FROM users")
}

func createTestUser(db *gorm.DB, role string) models.User {
	user := models.User{
		ID:       uuid.New().String(),
		FullName: "Test " + role,
		Role:     role,
		Status:   "active",
	}
	db.Create(&user)
	return user
}

// createTestToken mimics the external auth service's bearer tokens.
func createTestToken(userID string, role string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		log.Printf("Error creating test token: %v", err)
		return ""
	}
	return tokenString
}
