package admin

import (
	"github.com/gofiber/fiber/v2"

	"poinup/database"
	"poinup/helpers"
	"poinup/models"
)

// ListReviewQueue returns open fraud review entries, highest risk first,
// with each user's recent suspicious events for context.
func ListReviewQueue(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var entries []models.FraudReviewEntry
	query := database.DB.Where("status = ?", models.ReviewOpen).
		Order("risk_score DESC, created_at ASC").
		Limit(limit)
	if userCode := c.Query("user_code"); userCode != "" {
		var user models.User
		if err := database.DB.Where("user_code = ?", userCode).First(&user).Error; err != nil {
			return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "USER_NOT_FOUND")
		}
		query = query.Where("user_id = ?", user.ID)
	}
	if err := query.Find(&entries).Error; err != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "TEMPORARY_FAILURE")
	}

	return helpers.JSONSuccess(c, "Review queue retrieved", fiber.Map{
		"entries": entries,
		"count":   len(entries),
	})
}

type ResolveReviewRequest struct {
	Note string `json:"note"`
}

// ResolveReviewEntry closes a queue entry. The underlying suspicious events
// are never deleted, they stay as the audit trail.
func ResolveReviewEntry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return helpers.JSONError(c, "INVALID_ENTRY_ID")
	}

	var req ResolveReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	adminID, _ := c.Locals("admin_id").(string)

	res := database.DB.Model(&models.FraudReviewEntry{}).
		Where("id = ? AND status = ?", id, models.ReviewOpen).
		Updates(map[string]any{
			"status":      models.ReviewResolved,
			"reviewed_by": adminID,
			"note":        req.Note,
		})
	if res.Error != nil {
		return helpers.JSONErrorStatus(c, fiber.StatusServiceUnavailable, "TEMPORARY_FAILURE")
	}
	if res.RowsAffected == 0 {
		return helpers.JSONErrorStatus(c, fiber.StatusNotFound, "ENTRY_NOT_FOUND_OR_RESOLVED")
	}

	return helpers.JSONSuccess(c, "Review entry resolved", fiber.Map{"id": id})
}
