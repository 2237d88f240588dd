package server

import (
	"time"

	"ainews/internal/models"
	"ainews/internal/service"

	"github.com/gofiber/fiber/v2"
)

const preferencesCookieMaxAge = 365 * 24 * time.Hour

// UpdateProfileRequest holds the editable profile fields. Omitted fields
// are left unchanged.
type UpdateProfileRequest struct {
	Username    *string             `json:"username"`
	Email       *string             `json:"email"`
	FullName    *string             `json:"full_name"`
	Bio         *string             `json:"bio"`
	Location    *string             `json:"location"`
	Website     *string             `json:"website"`
	SocialLinks *models.SocialLinks `json:"social_links"`
}

// ReconcileRequest carries the copies the browser holds in session and
// local storage. The cookie is read from the request itself.
type ReconcileRequest struct {
	Session *models.Preferences `json:"session"`
	Local   *models.Preferences `json:"local"`
}

// GetMyProfile returns the caller's full profile
// @Summary Current profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Router /profiles/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile edits the caller's profile
// @Summary Update current profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /profiles/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
		Social:   req.SocialLinks,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}

// GetProfile returns another user's public profile
// @Summary Public profile
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.profileService.GetProfile(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile.Public())
}

func (s *Server) setPreferencesCookie(c *fiber.Ctx, prefs models.Preferences) {
	c.Cookie(&fiber.Cookie{
		Name:     service.PreferencesCookie,
		Value:    service.EncodePreferencesCookie(prefs),
		Path:     "/",
		MaxAge:   int(preferencesCookieMaxAge.Seconds()),
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// UpdateMyPreferences stores an explicit theme, category and view mode
// @Summary Update preferences
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Preferences true "Preferences"
// @Success 200 {object} models.Preferences
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me/preferences [put]
func (s *Server) UpdateMyPreferences(c *fiber.Ctx) error {
	var req models.Preferences
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	prefs, err := s.profileService.UpdatePreferences(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respond(c, err)
	}
	s.setPreferencesCookie(c, prefs)
	return c.JSON(prefs)
}

// ReconcileMyPreferences merges session, local, cookie and profile copies
// @Summary Reconcile preferences
// @Description Picks each field from session, then local, then cookie, then profile, and persists the result.
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReconcileRequest false "Client-side copies"
// @Success 200 {object} models.Preferences
// @Router /profiles/me/preferences/reconcile [post]
func (s *Server) ReconcileMyPreferences(c *fiber.Ctx) error {
	var req ReconcileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	prefs, err := s.profileService.ReconcilePreferences(c.UserContext(), currentUserID(c), service.PreferenceSources{
		Session: req.Session,
		Local:   req.Local,
		Cookie:  service.DecodePreferencesCookie(c.Cookies(service.PreferencesCookie)),
	})
	if err != nil {
		return respond(c, err)
	}
	s.setPreferencesCookie(c, prefs)
	return c.JSON(prefs)
}

// RoleRequest names the role to assign.
type RoleRequest struct {
	Role models.Role `json:"role" example:"teacher"`
}

// SetProfileRole changes another profile's role
// @Summary Set role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Param request body RoleRequest true "Role"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/profiles/{id}/role [put]
func (s *Server) SetProfileRole(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	profile, err := s.profileService.SetRole(c.UserContext(), currentUserID(c), targetID, req.Role)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}
