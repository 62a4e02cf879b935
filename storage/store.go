package storage

import (
	"context"
	"fmt"
	"time"

	"clinic_backoffice/models"
	"clinic_backoffice/services"

	"gorm.io/gorm"
)

// AttendanceStore implements services.AttendanceStore. The database must be
// opened with TranslateError so the (user_id, date) uniqueness race surfaces
// as gorm.ErrDuplicatedKey.
type AttendanceStore struct {
	db *gorm.DB
}

func NewAttendanceStore(db *gorm.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func (s *AttendanceStore) Create(record *models.AttendanceRecord) error {
	return s.db.Create(record).Error
}

func (s *AttendanceStore) FindByUserAndDate(userID, date string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := s.db.Where("user_id = ? AND date = ?", userID, date).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *AttendanceStore) SaveCheckOut(record *models.AttendanceRecord) error {
	return s.db.Save(record).Error
}

type DeviceStore struct {
	db *gorm.DB
}

func NewDeviceStore(db *gorm.DB) *DeviceStore {
	return &DeviceStore{db: db}
}

func (s *DeviceStore) FindByUserAndFingerprint(userID, fingerprint string) (*models.DeviceBinding, error) {
	var binding models.DeviceBinding
	err := s.db.Where("user_id = ? AND fingerprint = ?", userID, fingerprint).First(&binding).Error
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (s *DeviceStore) Create(binding *models.DeviceBinding) error {
	return s.db.Create(binding).Error
}

type ProcedureStore struct {
	db *gorm.DB
}

func NewProcedureStore(db *gorm.DB) *ProcedureStore {
	return &ProcedureStore{db: db}
}

func (s *ProcedureStore) ListApprovedByPerformer(ctx context.Context, userID, from, to string) ([]models.ProcedureRecord, error) {
	var procedures []models.ProcedureRecord
	err := s.db.WithContext(ctx).
		Preload("ProcedureType").
		Where("performer_id = ? AND status = ? AND date >= ? AND date <= ?",
			userID, models.StatusApproved, from, to).
		Find(&procedures).Error
	return procedures, err
}

type CompensationStore struct {
	db *gorm.DB
}

func NewCompensationStore(db *gorm.DB) *CompensationStore {
	return &CompensationStore{db: db}
}

func (s *CompensationStore) SumApproved(ctx context.Context, userID, from, to string) (float64, error) {
	var sum float64
	err := s.db.WithContext(ctx).
		Model(&models.CompensationEntry{}).
		Where("user_id = ? AND status = ? AND date >= ? AND date <= ?",
			userID, models.StatusApproved, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

// kindTables maps workflow entry kinds to their tables and period column.
var kindTables = map[services.EntryKind]struct {
	table      string
	dateColumn string
}{
	services.KindRevenue:      {"revenue_entries", "date"},
	services.KindExpense:      {"expense_entries", "date"},
	services.KindLeave:        {"leave_requests", "start_date"},
	services.KindCompensation: {"compensation_entries", "date"},
	services.KindProcedure:    {"procedure_records", "date"},
}

// ValidationStore implements services.ValidationStore across every table
// embedding a ValidationDecision.
type ValidationStore struct {
	db *gorm.DB
}

func NewValidationStore(db *gorm.DB) *ValidationStore {
	return &ValidationStore{db: db}
}

func (s *ValidationStore) GetDecision(ctx context.Context, kind services.EntryKind, id string) (*models.ValidationDecision, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var decision models.ValidationDecision
	err = s.db.WithContext(ctx).
		Table(tbl.table).
		Select("status, validated_by, validated_at, validation_note").
		Where("id = ?", id).
		Take(&decision).Error
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// Transition is the optimistic guard: the UPDATE only matches while the row
// is still pending, so exactly one of two concurrent decisions commits.
func (s *ValidationStore) Transition(ctx context.Context, kind services.EntryKind, id, to, validatorID string, at time.Time, note string) (bool, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	result := s.db.WithContext(ctx).
		Table(tbl.table).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":          to,
			"validated_by":    validatorID,
			"validated_at":    at,
			"validation_note": note,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *ValidationStore) CountByStatus(ctx context.Context, kind services.EntryKind, status, from, to string) (int64, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	query := s.db.WithContext(ctx).Table(tbl.table).Where("status = ?", status)
	if from != "" {
		query = query.Where(tbl.dateColumn+" >= ?", from)
	}
	if to != "" {
		query = query.Where(tbl.dateColumn+" <= ?", to)
	}
	var count int64
	err = query.Count(&count).Error
	return count, err
}

func (s *ValidationStore) CountPending(ctx context.Context, kind services.EntryKind) (int64, error) {
	tbl, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	err = s.db.WithContext(ctx).Table(tbl.table).
		Where("status = ?", models.StatusPending).
		Count(&count).Error
	return count, err
}

func tableFor(kind services.EntryKind) (struct {
	table      string
	dateColumn string
}, error) {
	tbl, ok := kindTables[kind]
	if !ok {
		return tbl, fmt.Errorf("unknown entry kind %q", kind)
	}
	return tbl, nil
}
