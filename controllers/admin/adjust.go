package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"poinup/database"
	"poinup/helpers"
	"poinup/models"
	"poinup/services"
)

type AdjustWalletRequest struct {
	UserCode string `json:"user_code"`
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason"`
}

// AdjustWallet is the manual correction path. Same atomicity and audit
// invariants as provider crediting, attributed to the calling admin.
func AdjustWallet(c *fiber.Ctx) error {
	var req AdjustWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	if req.UserCode == "" {
		return helpers.JSONError(c, "USER_CODE_REQUIRED")
	}

	adminID, _ := c.Locals("admin_id").(string)

	var user models.User
	if err := database.DB.Where("user_code = ?", req.UserCode).First(&user).Error; err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "USER_NOT_FOUND")
	}

	result, err := services.AdjustWalletBalance(database.DB, user.ID, req.Amount, req.Reason, adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			return helpers.JSONError(c, "AMOUNT_MUST_BE_NON_ZERO")
		case errors.Is(err, services.ErrReasonRequired):
			return helpers.JSONError(c, "REASON_TOO_SHORT")
		case errors.Is(err, services.ErrInsufficientBalance):
			return helpers.JSONErrorStatus(c, fiber.StatusConflict, "INSUFFICIENT_BALANCE")
		case errors.Is(err, services.ErrUserNotFound):
			return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "USER_NOT_FOUND")
		default:
			return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "TEMPORARY_FAILURE")
		}
	}

	return helpers.JSONSuccess(c, "Wallet adjusted", fiber.Map{
		"transaction_id": result.TransactionID,
		"new_balance":    result.NewBalance,
	})
}
