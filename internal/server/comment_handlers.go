package server

import (
	"ainews/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the body of comment create and update calls.
type CommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// GetComments returns the post's comments as a reply tree
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	tree, err := s.commentService.ListComments(c.UserContext(), postID, s.optionalUserID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(tree)
}

// CreateComment adds a comment or a reply to a post
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: currentUserID(c),
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventCommentCreated, map[string]interface{}{
		"post_id":    postID,
		"comment_id": comment.ID,
		"parent_id":  comment.ParentID,
		"author_id":  comment.AuthorID,
	})
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment edits a comment. Only its author may.
// @Summary Update comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{commentId} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		ActorID:   currentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventCommentUpdated, map[string]interface{}{
		"post_id":    comment.PostID,
		"comment_id": comment.ID,
	})
	return c.JSON(comment)
}

// DeleteComment removes a comment and every reply below it
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} map[string]int
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, removed, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		ActorID:   currentUserID(c),
		CommentID: commentID,
	})
	if err != nil {
		return respond(c, err)
	}

	s.publishFeedEvent(c.UserContext(), EventCommentDeleted, map[string]interface{}{
		"post_id":    comment.PostID,
		"comment_id": comment.ID,
		"removed":    removed,
	})
	return c.JSON(fiber.Map{"deleted": comment.ID, "removed": removed})
}

// LikeComment toggles the caller's like on a comment
// @Summary Toggle comment like
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{commentId}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.ToggleCommentLike(c.UserContext(), currentUserID(c), commentID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(comment)
}
