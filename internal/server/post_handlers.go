package server

import (
	"strconv"

	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostRequest is the body of create and update calls.
type PostRequest struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Category models.Category `json:"category"`
	Tags     []string        `json:"tags"`
}

// postFilter reads the listing query string. Malformed numbers write a 400.
func postFilter(c *fiber.Ctx) (repository.PostFilter, error) {
	f := repository.PostFilter{
		Category: models.Category(c.Query("category")),
		Tag:      c.Query("tag"),
		Search:   c.Query("search", c.Query("q")),
		Cursor:   c.Query("cursor"),
		Archived: c.QueryBool("archived", false),
	}
	if f.Category == models.CategoryAll {
		f.Category = ""
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid author"))
			return f, errResponseWritten
		}
		f.AuthorID = uint(id)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid limit"))
			return f, errResponseWritten
		}
		f.Limit = limit
	}
	return f, nil
}

// GetPosts lists posts newest first, pinned posts on top
// @Summary List posts
// @Tags posts
// @Produce json
// @Param category query string false "news, materials, project-ideas, discussions or all"
// @Param author query int false "Author profile ID"
// @Param tag query string false "Tag name"
// @Param archived query bool false "List archived posts instead"
// @Param search query string false "Matches title and content"
// @Param limit query int false "Page size (max 100)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} repository.PostPage
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	filter, err := postFilter(c)
	if err != nil {
		return nil
	}
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		ViewerID: s.optionalUserID(c),
		Filter:   filter,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetProfilePosts lists the posts written by one profile
// @Summary List a profile's posts
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Param category query string false "news, materials, project-ideas, discussions or all"
// @Param tag query string false "Tag name"
// @Param archived query bool false "List archived posts instead"
// @Param limit query int false "Page size (max 100)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} repository.PostPage
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/{id}/posts [get]
func (s *Server) GetProfilePosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	filter, err := postFilter(c)
	if err != nil {
		return nil
	}
	filter.AuthorID = authorID
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		ViewerID: s.optionalUserID(c),
		Filter:   filter,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}

// GetPost returns a single post
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// CreatePost creates a post authored by the caller
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	userID := currentUserID(c)

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventPostCreated, map[string]interface{}{
		"post_id":   post.ID,
		"author_id": post.AuthorID,
		"category":  post.Category,
	})
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost edits a post. Authors and admins only.
// @Summary Update post
// @Description Replaces title, content and category. Tags are replaced when the field is present.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body PostRequest true "Post"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		ActorID:  currentUserID(c),
		PostID:   postID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	})
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventPostUpdated, map[string]interface{}{
		"post_id": post.ID,
	})
	return c.JSON(post)
}

// DeletePost removes a post with its comments, likes, views and bookmarks
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventPostDeleted, map[string]interface{}{
		"post_id": postID,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost toggles the caller's like
// @Summary Toggle like
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventPostReactionUpdated, map[string]interface{}{
		"post_id":     post.ID,
		"likes_count": post.LikesCount,
	})
	return c.JSON(post)
}

// ArchiveRequest optionally sets the archived flag instead of toggling it.
type ArchiveRequest struct {
	Archived *bool `json:"archived,omitempty"`
}

// ArchivePost toggles the archived flag, or sets it when the body says
// {"archived": bool}.
// @Summary Archive or unarchive post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body ArchiveRequest false "Explicit state"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/archive [post]
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req ArchiveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c)
		}
	}

	var post *models.Post
	if req.Archived != nil {
		post, err = s.postService.SetArchived(c.UserContext(), currentUserID(c), postID, *req.Archived)
	} else {
		post, err = s.postService.ToggleArchive(c.UserContext(), currentUserID(c), postID)
	}
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventPostUpdated, map[string]interface{}{
		"post_id":  post.ID,
		"archived": post.Archived,
	})
	return c.JSON(post)
}

// PinPost toggles the pinned flag. Teachers and admins only.
// @Summary Toggle pin
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/pin [post]
func (s *Server) PinPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.TogglePin(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventPostUpdated, map[string]interface{}{
		"post_id": post.ID,
		"pinned":  post.Pinned,
	})
	return c.JSON(post)
}

// ViewPost records the caller's first view
// @Summary Record view
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/view [post]
func (s *Server) ViewPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	added, err := s.postService.RecordView(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"recorded": added})
}

// BookmarkPost toggles the caller's bookmark
// @Summary Toggle bookmark
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/bookmark [post]
func (s *Server) BookmarkPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.ToggleBookmark(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(post)
}

// GetMyBookmarks lists the caller's bookmarked posts
// @Summary My bookmarks
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param cursor query string false "Opaque cursor from a previous page"
// @Success 200 {object} repository.PostPage
// @Router /profiles/me/bookmarks [get]
func (s *Server) GetMyBookmarks(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	page, err := s.postService.ListBookmarks(c.UserContext(), currentUserID(c), limit, c.Query("cursor"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(page)
}
