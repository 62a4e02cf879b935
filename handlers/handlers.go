package handlers

import (
	"errors"

	"clinic_backoffice/config"
	"clinic_backoffice/services"
	"clinic_backoffice/storage"
	"clinic_backoffice/types"
	"clinic_backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	DB           *gorm.DB
	Attendance   *services.AttendanceService
	Compensation *services.CompensationService
	Validation   *services.ValidationService
	Devices      *services.DeviceTrustRegistry
)

func InitHandlers(db *gorm.DB, cfg config.Config) {
	DB = db

	geofence := &services.GeofenceValidator{
		CenterLat:         cfg.ClinicLatitude,
		CenterLng:         cfg.ClinicLongitude,
		RadiusMeters:      cfg.GeofenceRadiusM,
		MaxAccuracyMeters: cfg.MaxGPSAccuracyM,
	}
	Devices = services.NewDeviceTrustRegistry(storage.NewDeviceStore(db), cfg.DeviceAutoApprove)
	Attendance = services.NewAttendanceService(
		storage.NewAttendanceStore(db),
		Devices,
		geofence,
		&services.DiskPhotoStore{Dir: cfg.PhotoDir},
		services.NewFaceVerifyService(cfg.FaceVerifyURL),
		cfg.LateCutoff,
	)
	Compensation = services.NewCompensationService(
		storage.NewProcedureStore(db),
		storage.NewCompensationStore(db),
		cfg.FallbackFeePercent,
	)
	Validation = services.NewValidationService(storage.NewValidationStore(db))
}

// currentUser pulls the authenticated principal installed by the auth
// middleware. The core never authenticates; it only consumes the principal.
func currentUser(c *fiber.Ctx) (userID, role string, ok bool) {
	userID, _ = c.Locals("user_id").(string)
	role, _ = c.Locals("role").(string)
	return userID, role, userID != ""
}

// respondError maps a typed business failure to its HTTP status and echoes
// code plus context data. Anything else is logged and surfaced generically.
func respondError(c *fiber.Ctx, err error, op string) error {
	var appErr *types.Error
	if errors.As(err, &appErr) {
		return c.Status(statusForCode(appErr.Code)).JSON(types.APIResponse{
			Success:   false,
			Error:     appErr.Message,
			ErrorCode: appErr.Code,
			Data:      appErr.Data,
		})
	}

	utils.Logger.Error("Operation failed", zap.String("op", op), zap.Error(err))
	return c.Status(500).JSON(types.APIResponse{
		Success: false,
		Error:   types.ErrDatabaseError,
	})
}

func statusForCode(code string) int {
	switch code {
	case types.ErrCodeMissingLocation, types.ErrCodeInvalidCoordinate:
		return 400
	case types.ErrCodeOutOfRange, types.ErrCodeAccuracyTooLow:
		return 422
	case types.ErrCodeAlreadyCheckedIn, types.ErrCodeAlreadyCheckedOut,
		types.ErrCodeInvalidTransition, types.ErrCodeConflict:
		return 409
	case types.ErrCodeNoCheckInFound, types.ErrCodeNotFound:
		return 404
	default:
		return 400
	}
}
