package user

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"poinup/database"
	"poinup/helpers"
	"poinup/models"
	"poinup/providers"
	"poinup/services"
)

type StartGameRequest struct {
	UserCode string `json:"user_code" validate:"required,max=32"`
	Provider string `json:"provider" validate:"required,oneof=adjoe qureka tapjoy"`
	Platform string `json:"platform" validate:"omitempty,oneof=android ios web"`
}

var validate = validator.New()

// StartGame opens a play session so the provider's eventual reward callback
// can be matched back to the launching user.
func StartGame(c *fiber.Ctx) error {
	var req StartGameRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if err := validate.Struct(req); err != nil {
		return helpers.JSONError(c, "INVALID_PAYLOAD")
	}

	var user models.User
	if err := database.DB.Where("user_code = ? AND is_active = true", req.UserCode).First(&user).Error; err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "USER_NOT_FOUND")
	}

	session, err := services.CreateGameSession(database.DB, user.ID, req.Provider)
	if err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "FAILED_TO_START_SESSION")
	}

	launcher := providers.Get(req.Provider)
	if launcher == nil {
		return helpers.JSONError(c, "UNSUPPORTED_PROVIDER")
	}

	launchURL, err := launcher.LaunchURL(providers.LaunchRequest{
		UserCode: user.UserCode,
		Provider: req.Provider,
		SID:      session.SID,
		Platform: req.Platform,
	})
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_START_GAME: "+err.Error())
	}

	return helpers.JSONSuccess(c, "Game launched successfully", fiber.Map{
		"sid":        session.SID,
		"launch_url": launchURL,
		"expires_at": session.ExpiresAt,
	})
}
