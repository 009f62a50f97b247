package adjoe

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"poinup/database"
	"poinup/models"
	"poinup/services"
)

// Adjoe reports playtime in seconds. Payloads are strict: anything that
// fails schema validation never reaches conversion or crediting.
type CallbackRequest struct {
	UserCode    string  `json:"user_code" validate:"required,max=32"`
	TxID        string  `json:"transaction_id" validate:"required,max=64"`
	PlaySeconds float64 `json:"play_seconds" validate:"required,gt=0"`
	SID         string  `json:"sid" validate:"omitempty,uuid"`
}

var validate = validator.New()

func RewardCallback(c *fiber.Ctx) error {
	var req CallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return callbackError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}
	if err := validate.Struct(req); err != nil {
		return callbackError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD")
	}

	// re-delivered events return the recorded outcome without re-running
	// conversion or fraud checks
	existing, err := services.FindGameTransaction(database.DB, models.ProviderAdjoe, req.TxID)
	if err != nil {
		return callbackError(c, fiber.StatusServiceUnavailable, "TEMPORARY_FAILURE")
	}
	if existing != nil {
		if existing.Status == models.GameTxCredited {
			return callbackSuccess(c, existing.ID, existing.PointsCredited, existing.BalanceAfter, true)
		}
		return callbackError(c, fiber.StatusForbidden, "REWARD_REJECTED")
	}

	var user models.User
	if err := database.DB.Where("user_code = ? AND is_active = true", req.UserCode).First(&user).Error; err != nil {
		return callbackError(c, fiber.StatusBadRequest, "USER_NOT_FOUND")
	}

	points := services.ConvertToPoints(models.ProviderAdjoe, req.PlaySeconds)
	if points == 0 {
		// sub-threshold playtime earns nothing but is not an error
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":          "ok",
			"points_credited": 0,
		})
	}

	sessionUserID := services.ResolveSessionUser(database.DB, req.SID)
	fraud := services.PerformFraudCheck(database.DB, user.ID, models.ProviderAdjoe,
		sessionUserID, user.ID, services.DefaultFraudThresholds())
	if !fraud.Passed {
		services.RecordRejection(database.DB, &user, models.ProviderAdjoe, req.TxID,
			req.PlaySeconds, models.ValueTypeSeconds, fraud)
		return callbackError(c, fiber.StatusForbidden, "REWARD_REJECTED")
	}

	result, err := services.CreditGameReward(database.DB, user.ID, points, services.CreditMetadata{
		Provider:       models.ProviderAdjoe,
		ProviderTx:     req.TxID,
		OriginalValue:  req.PlaySeconds,
		ValueType:      models.ValueTypeSeconds,
		SignatureValid: true,
		FraudPassed:    true,
		RiskScore:      fraud.RiskScore,
		Signals:        fraud.Signals,
		Note:           "adjoe playtime reward",
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return callbackError(c, fiber.StatusBadRequest, "USER_NOT_FOUND")
		}
		return callbackError(c, fiber.StatusServiceUnavailable, "TEMPORARY_FAILURE")
	}

	return callbackSuccess(c, result.TransactionID, points, result.NewBalance, result.IsDuplicate)
}

func callbackSuccess(c *fiber.Ctx, txID uint, points, balance int64, duplicate bool) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":          "ok",
		"transaction_id":  txID,
		"points_credited": points,
		"balance":         balance,
		"duplicate":       duplicate,
	})
}

func callbackError(c *fiber.Ctx, status int, reason string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"reason": reason,
	})
}
