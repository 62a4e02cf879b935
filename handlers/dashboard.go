package handlers

import (
	"time"

	"clinic_backoffice/models"
	"clinic_backoffice/services"
	"clinic_backoffice/types"
	"clinic_backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DailySummary struct {
	Date             string           `json:"date"`
	PresentCount     int64            `json:"present_count"`
	LateCount        int64            `json:"late_count"`
	CheckedOutCount  int64            `json:"checked_out_count"`
	PendingEntries   map[string]int64 `json:"pending_entries"`
	ApprovalRate     float64          `json:"approval_rate"`
	ApprovalRateKind string           `json:"approval_rate_kind"`
}

// GetDailySummary is the reviewer-facing overview: today's attendance
// counts, the pending validation backlog per entry kind, and this month's
// procedure approval rate.
func GetDailySummary(c *fiber.Ctx) error {
	today := time.Now().Format(models.DateLayout)
	summary := DailySummary{
		Date:             today,
		PendingEntries:   make(map[string]int64),
		ApprovalRateKind: string(services.KindProcedure),
	}

	if err := DB.Model(&models.AttendanceRecord{}).
		Where("date = ? AND status = ?", today, models.AttendancePresent).
		Count(&summary.PresentCount).Error; err != nil {
		utils.Logger.Error("Failed to count attendance", zap.Error(err))
		return c.Status(500).JSON(types.APIResponse{Success: false, Error: types.ErrDatabaseError})
	}
	DB.Model(&models.AttendanceRecord{}).
		Where("date = ? AND status = ?", today, models.AttendanceLate).
		Count(&summary.LateCount)
	DB.Model(&models.AttendanceRecord{}).
		Where("date = ? AND check_out_time IS NOT NULL", today).
		Count(&summary.CheckedOutCount)

	for _, kind := range []services.EntryKind{
		services.KindRevenue, services.KindExpense, services.KindLeave,
		services.KindCompensation, services.KindProcedure,
	} {
		pending, err := Validation.PendingCount(c.Context(), kind)
		if err != nil {
			return respondError(c, err, "dashboard-summary")
		}
		summary.PendingEntries[string(kind)] = pending
	}

	now := time.Now()
	from, to := services.PeriodBounds(now.Month(), now.Year())
	rate, err := Validation.ApprovalRate(c.Context(), services.KindProcedure, from, to)
	if err != nil {
		return respondError(c, err, "dashboard-summary")
	}
	summary.ApprovalRate = rate

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    summary,
	})
}
