package server

import (
	"ainews/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPopularTags lists tags by how many posts carry them
// @Summary Popular tags
// @Tags posts
// @Produce json
// @Param limit query int false "Number of tags (max 100)"
// @Success 200 {array} repository.TagCount
// @Router /tags [get]
func (s *Server) GetPopularTags(c *fiber.Ctx) error {
	tags, err := s.tagService.PopularTags(c.UserContext(), c.QueryInt("limit", service.DefaultTagLimit))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(tags)
}
