package server

import (
	"github.com/gofiber/fiber/v2"
)

// ScrapeRequest is the body of POST /api/scrape-news.
type ScrapeRequest struct {
	URL string `json:"url" example:"https://example.com/news/llm-release"`
}

// ScrapeNews extracts a draft post from a news article
// @Summary Scrape a news article
// @Description Returns the title, body and tags of an article. Teachers and admins only; gated by the scrape_news flag.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ScrapeRequest true "Article URL"
// @Success 200 {object} scraper.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /scrape-news [post]
func (s *Server) ScrapeNews(c *fiber.Ctx) error {
	var req ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	article, err := s.scrapeService.Scrape(c.UserContext(), currentUserID(c), req.URL)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(article)
}
