package storage_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"clinic_backoffice/models"
	"clinic_backoffice/services"
	"clinic_backoffice/storage"
	"clinic_backoffice/types"
	"clinic_backoffice/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Serialize connections so concurrent writers contend on the schema
	// constraints instead of sqlite's file lock.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.AttendanceRecord{},
		&models.DeviceBinding{},
		&models.ProcedureType{},
		&models.ProcedureRecord{},
		&models.CompensationEntry{},
		&models.RevenueEntry{},
		&models.ExpenseEntry{},
		&models.LeaveRequest{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.New().String(),
		FullName: "Test Staff",
		Role:     role,
		Status:   "active",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestAttendanceUniquePerUserAndDay(t *testing.T) {
	db := setupDB(t)
	store := storage.NewAttendanceStore(db)
	user := seedUser(t, db, "nurse")

	first := &models.AttendanceRecord{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Date:        "2026-03-02",
		CheckInTime: time.Now(),
		Status:      models.AttendancePresent,
	}
	require.NoError(t, store.Create(first))

	dup := &models.AttendanceRecord{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Date:        "2026-03-02",
		CheckInTime: time.Now(),
		Status:      models.AttendancePresent,
	}
	err := store.Create(dup)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "expected duplicated key, got %v", err)

	// A different day is fine.
	nextDay := &models.AttendanceRecord{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Date:        "2026-03-03",
		CheckInTime: time.Now(),
		Status:      models.AttendancePresent,
	}
	assert.NoError(t, store.Create(nextDay))
}

func newAttendanceService(db *gorm.DB) *services.AttendanceService {
	geofence := &services.GeofenceValidator{
		CenterLat: 0, CenterLng: 0,
		RadiusMeters: 500, MaxAccuracyMeters: 100,
	}
	devices := services.NewDeviceTrustRegistry(storage.NewDeviceStore(db), false)
	return services.NewAttendanceService(storage.NewAttendanceStore(db), devices, geofence, nil, nil, "23:59")
}

func captureInput() services.CaptureInput {
	lat, lng, acc := 0.0001, 0.0, 10.0
	return services.CaptureInput{
		Latitude:       &lat,
		Longitude:      &lng,
		AccuracyMeters: &acc,
		Device:         services.DeviceInfo{Platform: "android", Model: "SM-G973F", DeviceID: "dev-1"},
	}
}

func TestConcurrentCheckInExactlyOneSucceeds(t *testing.T) {
	db := setupDB(t)
	svc := newAttendanceService(db)
	user := seedUser(t, db, "nurse")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CheckIn(context.Background(), user.ID, captureInput())
		}(i)
	}
	wg.Wait()

	var successes, alreadyCheckedIn int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var appErr *types.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeAlreadyCheckedIn, appErr.Code)
		alreadyCheckedIn++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, alreadyCheckedIn)

	var count int64
	db.Model(&models.AttendanceRecord{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count, "no duplicate records may persist")
}

func TestDeviceAutoRegisterIdempotentAgainstDB(t *testing.T) {
	db := setupDB(t)
	registry := services.NewDeviceTrustRegistry(storage.NewDeviceStore(db), false)
	user := seedUser(t, db, "doctor")
	info := services.DeviceInfo{Platform: "ios", Model: "iPhone14,2", DeviceID: "dev-9"}

	first, wasNew, err := registry.AutoRegister(user.ID, info)
	require.NoError(t, err)
	assert.True(t, wasNew)
	assert.Equal(t, models.DevicePending, first.Status)

	second, wasNew, err := registry.AutoRegister(user.ID, info)
	require.NoError(t, err)
	assert.False(t, wasNew)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	db.Model(&models.DeviceBinding{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func seedRevenueEntry(t *testing.T, db *gorm.DB) models.RevenueEntry {
	t.Helper()
	entry := models.RevenueEntry{
		ID:       uuid.New().String(),
		Category: "consultation",
		Amount:   250000,
		Date:     "2026-03-02",
	}
	services.Submit(&entry.ValidationDecision)
	require.NoError(t, db.Create(&entry).Error)
	return entry
}

func TestValidationTransitionGuard(t *testing.T) {
	db := setupDB(t)
	store := storage.NewValidationStore(db)
	entry := seedRevenueEntry(t, db)

	ok, err := store.Transition(context.Background(), services.KindRevenue, entry.ID,
		models.StatusApproved, "validator-1", time.Now(), "fine")
	require.NoError(t, err)
	assert.True(t, ok)

	// Second decision finds no pending row to update.
	ok, err = store.Transition(context.Background(), services.KindRevenue, entry.ID,
		models.StatusRejected, "validator-2", time.Now(), "")
	require.NoError(t, err)
	assert.False(t, ok)

	decision, err := store.GetDecision(context.Background(), services.KindRevenue, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decision.Status)
	require.NotNil(t, decision.ValidatedBy)
	assert.Equal(t, "validator-1", *decision.ValidatedBy)
	assert.Equal(t, "fine", decision.ValidationNote)
}

func TestConcurrentApproveExactlyOneCommits(t *testing.T) {
	db := setupDB(t)
	svc := services.NewValidationService(storage.NewValidationStore(db))
	entry := seedRevenueEntry(t, db)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Approve(context.Background(), services.KindRevenue, entry.ID,
				fmt.Sprintf("validator-%d", i), "")
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		var appErr *types.Error
		require.ErrorAs(t, err, &appErr)
		// The loser sees Conflict when it loses at commit time, or
		// InvalidTransition when the winner committed before its read.
		assert.Contains(t, []string{types.ErrCodeConflict, types.ErrCodeInvalidTransition}, appErr.Code)
	}
	assert.Equal(t, 1, successes)

	var entries []models.RevenueEntry
	require.NoError(t, db.Where("status = ?", models.StatusApproved).Find(&entries).Error)
	assert.Len(t, entries, 1)
}

func TestCompensationSumApprovedFilters(t *testing.T) {
	db := setupDB(t)
	store := storage.NewCompensationStore(db)
	user := seedUser(t, db, "doctor")

	seed := func(amount float64, date, status string) {
		entry := models.CompensationEntry{
			ID:     uuid.New().String(),
			UserID: user.ID,
			Amount: amount,
			Date:   date,
		}
		entry.Status = status
		require.NoError(t, db.Create(&entry).Error)
	}
	seed(100000, "2026-03-05", models.StatusApproved)
	seed(50000, "2026-03-20", models.StatusApproved)
	seed(70000, "2026-03-21", models.StatusPending)  // not approved
	seed(90000, "2026-02-28", models.StatusApproved) // previous period

	sum, err := store.SumApproved(context.Background(), user.ID, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, 150000.0, sum)

	sum, err = store.SumApproved(context.Background(), user.ID, "2026-04-01", "2026-04-30")
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestProcedureListApprovedPreloadsType(t *testing.T) {
	db := setupDB(t)
	store := storage.NewProcedureStore(db)
	user := seedUser(t, db, "doctor")

	ptype := models.ProcedureType{ID: uuid.New().String(), Name: "Minor surgery", FeePercent: 25}
	require.NoError(t, db.Create(&ptype).Error)

	approved := models.ProcedureRecord{
		ID:              uuid.New().String(),
		PerformerID:     user.ID,
		ProcedureTypeID: ptype.ID,
		Tariff:          400000,
		Date:            "2026-03-10",
	}
	approved.Status = models.StatusApproved
	require.NoError(t, db.Create(&approved).Error)

	pending := models.ProcedureRecord{
		ID:              uuid.New().String(),
		PerformerID:     user.ID,
		ProcedureTypeID: ptype.ID,
		Tariff:          100000,
		Date:            "2026-03-11",
	}
	services.Submit(&pending.ValidationDecision)
	require.NoError(t, db.Create(&pending).Error)

	procedures, err := store.ListApprovedByPerformer(context.Background(), user.ID, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, procedures, 1)
	assert.Equal(t, 25.0, procedures[0].ProcedureType.FeePercent)
}
