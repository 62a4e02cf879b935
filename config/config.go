package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	DBPath        string
	PhotoDir      string
	FaceVerifyURL string

	// Geofence: the clinic reference coordinate and the inclusion radius
	// around it. Captures with a GPS accuracy worse than MaxGPSAccuracyM
	// are rejected before the radius is even considered.
	ClinicLatitude  float64
	ClinicLongitude float64
	GeofenceRadiusM float64
	MaxGPSAccuracyM float64

	// LateCutoff is the daily check-in deadline in HH:MM clinic-local time.
	// Checking in at the cutoff exactly still counts as present.
	LateCutoff string

	// DeviceAutoApprove makes first-seen devices approved instead of pending.
	DeviceAutoApprove bool

	// FallbackFeePercent maps a staff role to the service-fee percentage
	// applied when a procedure type carries no fee percentage of its own.
	FallbackFeePercent map[string]float64
}

var (
	AppConfig Config
)

func LoadConfig() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	AppConfig = Config{
		Port:               getEnvOrDefault("PORT", "3000"),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
		DBPath:             getEnvOrDefault("DB_PATH", "clinic.db"),
		PhotoDir:           getEnvOrDefault("PHOTO_DIR", "photos"),
		FaceVerifyURL:      os.Getenv("FACE_VERIFY_URL"),
		ClinicLatitude:     mustGetFloat("CLINIC_LATITUDE"),
		ClinicLongitude:    mustGetFloat("CLINIC_LONGITUDE"),
		GeofenceRadiusM:    getFloatOrDefault("GEOFENCE_RADIUS_M", 100),
		MaxGPSAccuracyM:    getFloatOrDefault("MAX_GPS_ACCURACY_M", 50),
		LateCutoff:         getEnvOrDefault("LATE_CUTOFF", "08:00"),
		DeviceAutoApprove:  getEnvOrDefault("DEVICE_AUTO_APPROVE", "false") == "true",
		FallbackFeePercent: mustParseFeeTable(getEnvOrDefault("FALLBACK_FEE_PERCENTS", "doctor:40,nurse:20,midwife:25")),
	}

	if err := validate(AppConfig); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
}

func validate(cfg Config) error {
	if cfg.ClinicLatitude < -90 || cfg.ClinicLatitude > 90 {
		return fmt.Errorf("CLINIC_LATITUDE %v outside [-90, 90]", cfg.ClinicLatitude)
	}
	if cfg.ClinicLongitude < -180 || cfg.ClinicLongitude > 180 {
		return fmt.Errorf("CLINIC_LONGITUDE %v outside [-180, 180]", cfg.ClinicLongitude)
	}
	if cfg.GeofenceRadiusM <= 0 {
		return fmt.Errorf("GEOFENCE_RADIUS_M must be positive")
	}
	if cfg.MaxGPSAccuracyM <= 0 {
		return fmt.Errorf("MAX_GPS_ACCURACY_M must be positive")
	}
	if _, err := time.Parse("15:04", cfg.LateCutoff); err != nil {
		return fmt.Errorf("LATE_CUTOFF %q is not HH:MM", cfg.LateCutoff)
	}
	return nil
}

// mustParseFeeTable parses "role:percent,role:percent" pairs.
func mustParseFeeTable(raw string) map[string]float64 {
	table := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			log.Fatalf("FALLBACK_FEE_PERCENTS entry %q is not role:percent", pair)
		}
		percent, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || percent <= 0 || percent > 100 {
			log.Fatalf("FALLBACK_FEE_PERCENTS entry %q has invalid percentage", pair)
		}
		table[strings.TrimSpace(parts[0])] = percent
	}
	return table
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

func mustGetFloat(key string) float64 {
	value, err := strconv.ParseFloat(mustGetEnv(key), 64)
	if err != nil {
		log.Fatalf("Environment variable %s must be a number", key)
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Fatalf("Environment variable %s must be a number", key)
	}
	return value
}
