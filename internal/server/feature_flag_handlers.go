package server

import (
	"ainews/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FeatureFlagRequest sets one flag to on, off or a percentage such as "25%".
type FeatureFlagRequest struct {
	Value string `json:"value" example:"25%"`
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	return c.JSON(fiber.Map{
		"settings":  s.featureFlags.Settings(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

// UpdateFeatureFlag changes one flag at runtime.
// The change is local to this instance and lasts until restart.
// @Summary Update feature flag
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Flag name"
// @Param request body FeatureFlagRequest true "New value"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/feature-flags/{name} [put]
func (s *Server) UpdateFeatureFlag(c *fiber.Ctx) error {
	var req FeatureFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	name := c.Params("name")
	if err := s.featureFlags.Update(name, req.Value); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}
	return s.GetFeatureFlags(c)
}
