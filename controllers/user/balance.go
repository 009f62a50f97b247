package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"poinup/database"
	"poinup/helpers"
	"poinup/models"
	"poinup/services"
)

type CheckBalanceRequest struct {
	UserCode string `json:"user_code"`
}

func CheckUserBalance(c *fiber.Ctx) error {
	var req CheckBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	if req.UserCode == "" {
		return helpers.JSONError(c, "USER_CODE_REQUIRED")
	}

	var user models.User
	if err := database.DB.Where("user_code = ? AND is_active = true", req.UserCode).First(&user).Error; err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "USER_NOT_FOUND")
	}

	points, err := services.GetWalletBalance(database.DB, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "USER_NOT_FOUND")
		}
		return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "TEMPORARY_FAILURE")
	}

	return helpers.JSONSuccess(c, "Balance retrieved successfully", fiber.Map{
		"user_code":      user.UserCode,
		"points":         points,
		"total_points":   user.TotalPoints,
		"total_earnings": user.TotalEarnings,
	})
}
