package middlewares

import (
	"crypto/subtle"
	"os"

	"github.com/gofiber/fiber/v2"

	"poinup/helpers"
)

// AdminAuth guards the manual adjustment and review endpoints. Every admin
// request must also carry an admin id so adjustments stay attributable.
func AdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := os.Getenv("ADMIN_API_KEY")
		key := c.Get("X-Admin-Key")

		if expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			return helpers.JSONErrorStatus(c, fiber.StatusUnauthorized, "INVALID_ADMIN_KEY")
		}

		adminID := c.Get("X-Admin-Id")
		if adminID == "" {
			return helpers.JSONError(c, "ADMIN_ID_REQUIRED")
		}

		c.Locals("admin_id", adminID)
		return c.Next()
	}
}
