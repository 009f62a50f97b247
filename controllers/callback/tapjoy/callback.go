package tapjoy

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"poinup/database"
	"poinup/models"
	"poinup/services"
)

// Tapjoy calls a GET endpoint with query parameters and an MD5-HMAC verifier
// over "id:snuid:currency", the offerwall convention. No session is ever
// attached: offerwall events are launched outside the platform, which the
// fraud gate treats as unverifiable rather than suspicious.
func RewardCallback(c *fiber.Ctx) error {
	snuid := c.Query("snuid")
	id := c.Query("id")
	currencyStr := c.Query("currency")
	verifier := c.Query("verifier")

	if snuid == "" || id == "" || currencyStr == "" || verifier == "" {
		return c.Status(fiber.StatusBadRequest).SendString("MISSING_PARAMS")
	}

	currency, err := strconv.ParseFloat(currencyStr, 64)
	if err != nil || currency <= 0 {
		return c.Status(fiber.StatusBadRequest).SendString("INVALID_CURRENCY")
	}

	if !validVerifier(id, snuid, currencyStr, verifier) {
		log.WithFields(log.Fields{"provider": models.ProviderTapjoy, "ip": c.IP()}).
			Warn("callback verifier rejected")
		services.LogSuspiciousEvent(database.DB, 0, models.ProviderTapjoy,
			models.SignalInvalidSignature, services.RiskInvalidSignature,
			map[string]any{"ip": c.IP(), "snuid": snuid})
		return c.Status(fiber.StatusForbidden).SendString("INVALID_VERIFIER")
	}

	existing, err := services.FindGameTransaction(database.DB, models.ProviderTapjoy, id)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("RETRY")
	}
	if existing != nil {
		if existing.Status == models.GameTxCredited {
			// Tapjoy expects a bare 200 OK; anything else triggers a retry
			return c.SendString("OK")
		}
		return c.Status(fiber.StatusForbidden).SendString("REJECTED")
	}

	var user models.User
	if err := database.DB.Where("user_code = ? AND is_active = true", snuid).First(&user).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("USER_NOT_FOUND")
	}

	points := services.ConvertToPoints(models.ProviderTapjoy, currency)
	if points == 0 {
		return c.SendString("OK")
	}

	fraud := services.PerformFraudCheck(database.DB, user.ID, models.ProviderTapjoy,
		nil, user.ID, services.DefaultFraudThresholds())
	if !fraud.Passed {
		services.RecordRejection(database.DB, &user, models.ProviderTapjoy, id,
			currency, models.ValueTypeRewardUnit, fraud)
		return c.Status(fiber.StatusForbidden).SendString("REJECTED")
	}

	_, err = services.CreditGameReward(database.DB, user.ID, points, services.CreditMetadata{
		Provider:       models.ProviderTapjoy,
		ProviderTx:     id,
		OriginalValue:  currency,
		ValueType:      models.ValueTypeRewardUnit,
		SignatureValid: true,
		FraudPassed:    true,
		RiskScore:      fraud.RiskScore,
		Signals:        fraud.Signals,
		Note:           "tapjoy offerwall reward",
	})
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("RETRY")
	}

	return c.SendString("OK")
}

func validVerifier(id, snuid, currency, verifier string) bool {
	secret := os.Getenv("TAPJOY_CALLBACK_SECRET")
	if secret == "" {
		return false
	}

	mac := hmac.New(md5.New, []byte(secret))
	fmt.Fprintf(mac, "%s:%s:%s", id, snuid, currency)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(verifier)))
}
