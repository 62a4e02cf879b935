package handlers

import (
	"encoding/base64"
	"fmt"

	"clinic_backoffice/services"
	"clinic_backoffice/types"

	"github.com/gofiber/fiber/v2"
)

// CaptureRequest is the wire shape for both check-in and check-out.
type CaptureRequest struct {
	Latitude       *float64            `json:"latitude"`
	Longitude      *float64            `json:"longitude"`
	AccuracyMeters *float64            `json:"accuracy_meters"`
	DeviceInfo     services.DeviceInfo `json:"device_info"`
	Photo          string              `json:"photo"` // base64
	Notes          string              `json:"notes"`
}

func (r *CaptureRequest) toInput() (services.CaptureInput, error) {
	in := services.CaptureInput{
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		Device:         r.DeviceInfo,
		Notes:          r.Notes,
	}
	if r.Photo != "" {
		photo, err := base64.StdEncoding.DecodeString(r.Photo)
		if err != nil {
			return in, err
		}
		in.Photo = photo
	}
	return in, nil
}

func CheckIn(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrUnauthorized,
		})
	}

	var req CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	in, err := req.toInput()
	if err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   "Photo is not valid base64",
		})
	}

	record, err := Attendance.CheckIn(c.Context(), userID, in)
	if err != nil {
		return respondError(c, err, "check-in")
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Check-in successful",
		Data:    record,
	})
}

func CheckOut(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrUnauthorized,
		})
	}

	var req CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	in, err := req.toInput()
	if err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   "Photo is not valid base64",
		})
	}

	record, err := Attendance.CheckOut(c.Context(), userID, in)
	if err != nil {
		return respondError(c, err, "check-out")
	}

	data := fiber.Map{"attendance": record}
	if hours, minutes, ok := record.WorkDuration(); ok {
		data["work_duration"] = fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Check-out successful",
		Data:    data,
	})
}

func GetTodayAttendance(c *fiber.Ctx) error {
	userID, _, ok := currentUser(c)
	if !ok {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrUnauthorized,
		})
	}

	record, err := Attendance.Today(userID)
	if err != nil {
		return respondError(c, err, "today-attendance")
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    record,
	})
}
