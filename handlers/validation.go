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

type decisionRequest struct {
	Note string `json:"note"`
}

func ApproveEntry(c *fiber.Ctx) error {
	return decideEntry(c, true)
}

func RejectEntry(c *fiber.Ctx) error {
	return decideEntry(c, false)
}

func decideEntry(c *fiber.Ctx, approve bool) error {
	validatorID, _, ok := currentUser(c)
	if !ok {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrUnauthorized,
		})
	}

	kind, err := services.ParseEntryKind(c.Params("kind"))
	if err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   "Unknown entry kind",
		})
	}
	id := c.Params("id")

	// The note is optional; an empty body is fine.
	var req decisionRequest
	_ = c.BodyParser(&req)

	if approve {
		err = Validation.Approve(c.Context(), kind, id, validatorID, req.Note)
	} else {
		err = Validation.Reject(c.Context(), kind, id, validatorID, req.Note)
	}
	if err != nil {
		return respondError(c, err, "validation-decision")
	}

	message := "Entry rejected"
	if approve {
		message = "Entry approved"
	}
	return c.JSON(types.APIResponse{
		Success: true,
		Message: message,
	})
}

// ListEntries returns workflow entries of one kind, filtered by status and
// date range.
func ListEntries(c *fiber.Ctx) error {
	kind, err := services.ParseEntryKind(c.Query("kind", string(services.KindProcedure)))
	if err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   "Unknown entry kind",
		})
	}

	status := c.Query("status")
	from := c.Query("start_date")
	to := c.Query("end_date")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return c.Status(400).JSON(types.APIResponse{
				Success: false,
				Error:   "Invalid date format. Use YYYY-MM-DD",
			})
		}
	}

	query := DB
	if status != "" {
		query = query.Where("status = ?", status)
	}

	dateColumn := "date"
	if kind == services.KindLeave {
		dateColumn = "start_date"
	}
	if from != "" {
		query = query.Where(dateColumn+" >= ?", from)
	}
	if to != "" {
		query = query.Where(dateColumn+" <= ?", to)
	}

	var data interface{}
	switch kind {
	case services.KindRevenue:
		var entries []models.RevenueEntry
		err = query.Find(&entries).Error
		data = entries
	case services.KindExpense:
		var entries []models.ExpenseEntry
		err = query.Find(&entries).Error
		data = entries
	case services.KindLeave:
		var entries []models.LeaveRequest
		err = query.Find(&entries).Error
		data = entries
	case services.KindCompensation:
		var entries []models.CompensationEntry
		err = query.Find(&entries).Error
		data = entries
	case services.KindProcedure:
		var entries []models.ProcedureRecord
		err = query.Preload("ProcedureType").Find(&entries).Error
		data = entries
	}
	if err != nil {
		utils.Logger.Error("Failed to fetch entries", zap.String("kind", string(kind)), zap.Error(err))
		return c.Status(500).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    data,
	})
}

// GetValidationStats reports the approval rate over a period and the current
// pending backlog for one entry kind.
func GetValidationStats(c *fiber.Ctx) error {
	kind, err := services.ParseEntryKind(c.Query("kind", string(services.KindProcedure)))
	if err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   "Unknown entry kind",
		})
	}

	rate, err := Validation.ApprovalRate(c.Context(), kind, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return respondError(c, err, "validation-stats")
	}
	pending, err := Validation.PendingCount(c.Context(), kind)
	if err != nil {
		return respondError(c, err, "validation-stats")
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: fiber.Map{
			"kind":          kind,
			"approval_rate": rate,
			"pending_count": pending,
		},
	})
}
