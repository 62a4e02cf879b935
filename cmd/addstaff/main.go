package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"clinic_backoffice/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Seeds a staff user. Password verification is owned by the external auth
// service; we only store the hash it expects.
func main() {
	name := flag.String("name", "", "full name")
	role := flag.String("role", "doctor", "role: doctor, nurse, midwife, admin, validator")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	if *name == "" || *password == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "clinic.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		FullName:     *name,
		Role:         *role,
		PasswordHash: string(hash),
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Created %s (%s) with id %s\n", user.FullName, user.Role, user.ID)
}
