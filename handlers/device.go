package handlers

import (
	"clinic_backoffice/models"
	"clinic_backoffice/types"
	"clinic_backoffice/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ListMyDevices returns every device binding seen for the caller. Bindings
// are audit records; even a blocked device still captures attendance.
func ListMyDevices(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrUnauthorized,
		})
	}

	var bindings []models.DeviceBinding
	if err := DB.Where("user_id = ?", userID).Order("first_seen_at desc").Find(&bindings).Error; err != nil {
		utils.Logger.Error("Failed to fetch device bindings", zap.Error(err))
		return c.Status(500).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    bindings,
	})
}
