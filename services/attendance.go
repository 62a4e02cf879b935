package services

import (
	"context"
	"errors"
	"time"

	"clinic_backoffice/models"
	"clinic_backoffice/types"
	"clinic_backoffice/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttendanceStore interface {
	// Create returns gorm.ErrDuplicatedKey when a record for the same
	// (user, date) already exists.
	Create(record *models.AttendanceRecord) error
	// FindByUserAndDate returns gorm.ErrRecordNotFound when absent.
	FindByUserAndDate(userID, date string) (*models.AttendanceRecord, error)
	SaveCheckOut(record *models.AttendanceRecord) error
}

// PhotoStore persists capture photos. It is a best-effort side channel: a
// failed write never rolls back the attendance transition.
type PhotoStore interface {
	Save(userID, leg string, photo []byte) (string, error)
}

// FaceVerifier is the optional external face-recognition capability.
type FaceVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, userID string, photo []byte) error
}

// CaptureInput is a check-in or check-out request after transport decoding.
type CaptureInput struct {
	Latitude       *float64
	Longitude      *float64
	AccuracyMeters *float64
	Device         DeviceInfo
	Photo          []byte
	Notes          string
}

// AttendanceService drives the per-user-per-day lifecycle:
// NoRecord -> CheckedIn -> CheckedOut.
type AttendanceService struct {
	store      AttendanceStore
	devices    *DeviceTrustRegistry
	geofence   *GeofenceValidator
	photos     PhotoStore
	faces      FaceVerifier
	lateCutoff string // HH:MM
	now        func() time.Time
}

func NewAttendanceService(store AttendanceStore, devices *DeviceTrustRegistry, geofence *GeofenceValidator, photos PhotoStore, faces FaceVerifier, lateCutoff string) *AttendanceService {
	return &AttendanceService{
		store:      store,
		devices:    devices,
		geofence:   geofence,
		photos:     photos,
		faces:      faces,
		lateCutoff: lateCutoff,
		now:        time.Now,
	}
}

// CheckIn validates the location, creates today's record and classifies it
// against the late cutoff. Device registration and photo/face side channels
// run after the record is committed and never fail the capture.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string, in CaptureInput) (*models.AttendanceRecord, error) {
	now := s.now()
	date := now.Format(models.DateLayout)

	if _, err := s.store.FindByUserAndDate(userID, date); err == nil {
		return nil, alreadyCheckedIn(date)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.geofence.Validate(in.Latitude, in.Longitude, in.AccuracyMeters); err != nil {
		return nil, err
	}

	status := models.AttendancePresent
	if now.After(s.cutoffFor(now)) {
		status = models.AttendanceLate
	}

	record := &models.AttendanceRecord{
		ID:                uuid.New().String(),
		UserID:            userID,
		Date:              date,
		CheckInTime:       now,
		CheckInLat:        *in.Latitude,
		CheckInLng:        *in.Longitude,
		DeviceFingerprint: Fingerprint(in.Device),
		Notes:             in.Notes,
		Status:            status,
	}
	if in.AccuracyMeters != nil {
		record.CheckInAccuracy = *in.AccuracyMeters
	}
	record.CheckInPhoto = s.savePhoto(userID, "check_in", in.Photo)

	if err := s.store.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent check-in.
			return nil, alreadyCheckedIn(date)
		}
		return nil, err
	}

	// Advisory device bookkeeping; a failure here must not undo the capture.
	if _, wasNew, err := s.devices.AutoRegister(userID, in.Device); err != nil {
		utils.Logger.Warn("Device registration failed",
			zap.String("user_id", userID), zap.Error(err))
	} else if wasNew {
		utils.Logger.Info("New device registered",
			zap.String("user_id", userID), zap.String("fingerprint", record.DeviceFingerprint))
	}

	if s.faces != nil && s.faces.Enabled() && len(in.Photo) > 0 {
		if err := s.faces.Verify(ctx, userID, in.Photo); err != nil {
			utils.Logger.Warn("Face verification failed",
				zap.String("user_id", userID), zap.Error(err))
		}
	}

	return record, nil
}

// CheckOut closes today's record. The geofence is deliberately not re-run on
// the way out: presence was gated at check-in and the coordinates are only
// recorded. Status is never altered here.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string, in CaptureInput) (*models.AttendanceRecord, error) {
	now := s.now()
	date := now.Format(models.DateLayout)

	record, err := s.store.FindByUserAndDate(userID, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrCodeNoCheckInFound, "No check-in record found for today").
			With("date", date)
	}
	if err != nil {
		return nil, err
	}
	if record.CheckOutTime != nil {
		return nil, types.NewError(types.ErrCodeAlreadyCheckedOut, "Already checked out today").
			With("checked_out_at", *record.CheckOutTime)
	}

	record.CheckOutTime = &now
	record.CheckOutLat = in.Latitude
	record.CheckOutLng = in.Longitude
	record.CheckOutAccuracy = in.AccuracyMeters
	record.CheckOutPhoto = s.savePhoto(userID, "check_out", in.Photo)

	if err := s.store.SaveCheckOut(record); err != nil {
		return nil, err
	}

	return record, nil
}

// Today returns the record for the current date, or NoCheckInFound.
func (s *AttendanceService) Today(userID string) (*models.AttendanceRecord, error) {
	date := s.now().Format(models.DateLayout)
	record, err := s.store.FindByUserAndDate(userID, date)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrCodeNoCheckInFound, "No check-in record found for today").
			With("date", date)
	}
	return record, err
}

func (s *AttendanceService) savePhoto(userID, leg string, photo []byte) string {
	if s.photos == nil || len(photo) == 0 {
		return ""
	}
	path, err := s.photos.Save(userID, leg, photo)
	if err != nil {
		utils.Logger.Warn("Photo attachment not persisted",
			zap.String("user_id", userID), zap.String("leg", leg), zap.Error(err))
		return ""
	}
	return path
}

// cutoffFor places the configured HH:MM cutoff on the capture's day, in the
// capture's location. Checking in at the cutoff exactly is still present.
func (s *AttendanceService) cutoffFor(t time.Time) time.Time {
	cutoff, err := time.Parse("15:04", s.lateCutoff)
	if err != nil {
		// Config validates the cutoff at startup; fall back to 08:00.
		cutoff = time.Date(0, 1, 1, 8, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), cutoff.Hour(), cutoff.Minute(), 0, 0, t.Location())
}

func alreadyCheckedIn(date string) *types.Error {
	return types.NewError(types.ErrCodeAlreadyCheckedIn, "Already checked in today").
		With("date", date)
}
