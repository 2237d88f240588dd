package server

import (
	"context"
	"strconv"
	"strings"

	"ainews/internal/middleware"
	"ainews/internal/models"
	"ainews/internal/service"

	"github.com/gofiber/fiber/v2"
)

const wsTicketPrefix = "ws_ticket:"

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
}

func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// consumeTicket redeems a single-use websocket ticket.
func (s *Server) consumeTicket(c *fiber.Ctx, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(c.UserContext(), wsTicketPrefix+ticket).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// AuthRequired returns the authentication middleware. WebSocket routes
// accept a ticket from POST /api/ws/ticket because browsers cannot set
// headers on the upgrade request; everything else needs a bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws/") && c.Path() != "/api/ws/ticket"

		if ticket := c.Query("ticket"); ticket != "" && isWSPath {
			userID, ok := s.consumeTicket(c, ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			setUser(c, userID)
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.authService.ParseToken(c.UserContext(), token)
		if err != nil {
			return respond(c, err)
		}
		userID, err := claims.UserID()
		if err != nil {
			return respond(c, err)
		}

		c.Locals("claims", claims)
		setUser(c, userID)
		return c.Next()
	}
}

// optionalUserID reads a bearer token without enforcing it. Invalid tokens
// are treated as anonymous.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	token := bearerToken(c)
	if token == "" {
		return 0
	}
	claims, err := s.authService.ParseToken(c.UserContext(), token)
	if err != nil {
		return 0
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0
	}
	setUser(c, userID)
	return userID
}

// AdminRequired rejects non-admin users with 403. It runs after
// AuthRequired and checks the stored role, not the token's copy.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := s.stores.Profiles.GetByID(c.UserContext(), currentUserID(c))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		if profile.Role != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func claimsFrom(c *fiber.Ctx) *service.Claims {
	claims, _ := c.Locals("claims").(*service.Claims)
	return claims
}
