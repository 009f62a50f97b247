package qureka

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"poinup/database"
	"poinup/models"
	"poinup/services"
)

// Qureka reports in-game coins. Response codes follow their dialect:
// 0 success, 1 invalid request, 2 rejected, 3 temporary failure.
type CallbackRequest struct {
	UID     string  `json:"uid" validate:"required,max=32"`
	EventID string  `json:"event_id" validate:"required,max=64"`
	Coins   float64 `json:"coins" validate:"required,gt=0"`
	Session string  `json:"session" validate:"omitempty,uuid"`
}

var validate = validator.New()

func RewardCallback(c *fiber.Ctx) error {
	var req CallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return qurekaResponse(c, fiber.StatusBadRequest, 1, "INVALID_JSON", nil)
	}
	if err := validate.Struct(req); err != nil {
		return qurekaResponse(c, fiber.StatusBadRequest, 1, "INVALID_PAYLOAD", nil)
	}

	existing, err := services.FindGameTransaction(database.DB, models.ProviderQureka, req.EventID)
	if err != nil {
		return qurekaResponse(c, fiber.StatusServiceUnavailable, 3, "TEMPORARY_FAILURE", nil)
	}
	if existing != nil {
		if existing.Status == models.GameTxCredited {
			return qurekaResponse(c, fiber.StatusOK, 0, "SUCCESS", fiber.Map{
				"transaction_id": existing.ID,
				"points":         existing.PointsCredited,
				"duplicate":      true,
			})
		}
		return qurekaResponse(c, fiber.StatusForbidden, 2, "REJECTED", nil)
	}

	var user models.User
	if err := database.DB.Where("user_code = ? AND is_active = true", req.UID).First(&user).Error; err != nil {
		return qurekaResponse(c, fiber.StatusBadRequest, 1, "USER_NOT_FOUND", nil)
	}

	points := services.ConvertToPoints(models.ProviderQureka, req.Coins)
	if points == 0 {
		return qurekaResponse(c, fiber.StatusOK, 0, "SUCCESS", fiber.Map{"points": 0})
	}

	sessionUserID := services.ResolveSessionUser(database.DB, req.Session)
	fraud := services.PerformFraudCheck(database.DB, user.ID, models.ProviderQureka,
		sessionUserID, user.ID, services.DefaultFraudThresholds())
	if !fraud.Passed {
		services.RecordRejection(database.DB, &user, models.ProviderQureka, req.EventID,
			req.Coins, models.ValueTypeCoins, fraud)
		return qurekaResponse(c, fiber.StatusForbidden, 2, "REJECTED", nil)
	}

	result, err := services.CreditGameReward(database.DB, user.ID, points, services.CreditMetadata{
		Provider:       models.ProviderQureka,
		ProviderTx:     req.EventID,
		OriginalValue:  req.Coins,
		ValueType:      models.ValueTypeCoins,
		SignatureValid: true,
		FraudPassed:    true,
		RiskScore:      fraud.RiskScore,
		Signals:        fraud.Signals,
		Note:           "qureka coin reward",
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return qurekaResponse(c, fiber.StatusBadRequest, 1, "USER_NOT_FOUND", nil)
		}
		return qurekaResponse(c, fiber.StatusServiceUnavailable, 3, "TEMPORARY_FAILURE", nil)
	}

	return qurekaResponse(c, fiber.StatusOK, 0, "SUCCESS", fiber.Map{
		"transaction_id": result.TransactionID,
		"points":         points,
		"balance":        result.NewBalance,
		"duplicate":      result.IsDuplicate,
	})
}

func qurekaResponse(c *fiber.Ctx, status, code int, msg string, data fiber.Map) error {
	body := fiber.Map{"code": code, "msg": msg}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}
