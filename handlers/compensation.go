package handlers

import (
	"time"

	"clinic_backoffice/services"
	"clinic_backoffice/types"

	"github.com/gofiber/fiber/v2"
)

// GetCompensationReport derives the caller's service-fee total for a month
// and compares it with the previous period.
func GetCompensationReport(c *fiber.Ctx) error {
	userID, role, ok := currentUser(c)
	if !ok {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrUnauthorized,
		})
	}

	now := time.Now()
	month := c.QueryInt("month", int(now.Month()))
	year := c.QueryInt("year", now.Year())
	if month < 1 || month > 12 || year < 2000 {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   "Invalid month or year",
		})
	}

	current, err := Compensation.DeriveForPeriod(c.Context(), userID, role, time.Month(month), year)
	if err != nil {
		return respondError(c, err, "compensation-report")
	}

	prevFirst := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	previous, err := Compensation.DeriveForPeriod(c.Context(), userID, role, prevFirst.Month(), prevFirst.Year())
	if err != nil {
		return respondError(c, err, "compensation-report")
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: fiber.Map{
			"report":         current,
			"previous_total": previous.Total,
			"growth_percent": services.GrowthPercentage(current.Total, previous.Total),
		},
	})
}
