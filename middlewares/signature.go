package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"poinup/database"
	"poinup/models"
	"poinup/services"
)

// ProviderSignature verifies the HMAC-SHA256 signature a provider computes
// over the raw callback body with its shared secret. An invalid signature is
// rejected with a permanent error and logged to the suspicious audit trail;
// it never reaches the crediting path.
func ProviderSignature(provider string) fiber.Handler {
	secretEnv := strings.ToUpper(provider) + "_CALLBACK_SECRET"

	return func(c *fiber.Ctx) error {
		secret := os.Getenv(secretEnv)
		signature := c.Get("X-Callback-Signature")

		if !ValidSignature(c.Body(), secret, signature) {
			log.WithFields(log.Fields{
				"provider": provider,
				"ip":       c.IP(),
			}).Warn("callback signature rejected")

			services.LogSuspiciousEvent(database.DB, 0, provider,
				models.SignalInvalidSignature, services.RiskInvalidSignature,
				map[string]any{"ip": c.IP(), "path": c.Path()})

			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "INVALID_SIGNATURE",
			})
		}

		return c.Next()
	}
}

// ValidSignature checks a hex HMAC-SHA256 of payload under secret. A missing
// secret fails closed: an unconfigured provider cannot credit anything.
func ValidSignature(payload []byte, secret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
