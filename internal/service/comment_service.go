package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"ainews/internal/cache"
	"ainews/internal/models"
	"ainews/internal/observability"
	"ainews/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	profiles repository.ProfileRepository
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	ActorID   uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	ActorID   uint
	CommentID uint
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	profiles repository.ProfileRepository,
) *CommentService {
	return &CommentService{comments: comments, posts: posts, profiles: profiles}
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if _, err := loadActor(ctx, s.profiles, in.AuthorID); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, appError(err, "Post", in.PostID)
	}
	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID, 0)
		if err != nil {
			return nil, appError(err, "Comment", *in.ParentID)
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to another post")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		PostID:   in.PostID,
		AuthorID: in.AuthorID,
		ParentID: in.ParentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appError(err, "Comment", 0)
	}
	cache.Invalidate(ctx, cache.PostKey(in.PostID))

	created, err := s.comments.GetByID(ctx, comment.ID, in.AuthorID)
	return created, appError(err, "Comment", comment.ID)
}

// ListComments returns the post's comments as a thread.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, appError(err, "Post", postID)
	}
	flat, err := s.comments.ListByPost(ctx, postID, viewerID)
	if err != nil {
		return nil, appError(err, "Comment", 0)
	}
	return BuildTree(flat), nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	actor, err := loadActor(ctx, s.profiles, in.ActorID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, in.CommentID, in.ActorID)
	if err != nil {
		return nil, appError(err, "Comment", in.CommentID)
	}
	if err := CanEditComment(actor, comment); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, appError(err, "Comment", in.CommentID)
	}
	updated, err := s.comments.GetByID(ctx, comment.ID, in.ActorID)
	return updated, appError(err, "Comment", comment.ID)
}

// DeleteComment removes the comment with its replies. It returns the
// deleted comment and how many comments went with it, itself included.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (comment *models.Comment, removed int, err error) {
	ctx, finish := observability.StartSpan(ctx, "CommentService.DeleteComment")
	defer func() { finish(err) }()

	actor, err := loadActor(ctx, s.profiles, in.ActorID)
	if err != nil {
		return nil, 0, err
	}
	comment, err = s.comments.GetByID(ctx, in.CommentID, 0)
	if err != nil {
		return nil, 0, appError(err, "Comment", in.CommentID)
	}
	if err := CanDeleteComment(actor, comment); err != nil {
		return nil, 0, err
	}

	removed, err = s.comments.Delete(ctx, in.CommentID)
	if err != nil {
		return nil, 0, appError(err, "Comment", in.CommentID)
	}
	cache.Invalidate(ctx, cache.PostKey(comment.PostID))
	return comment, removed, nil
}

// ToggleCommentLike flips the viewer's like on a comment.
func (s *CommentService) ToggleCommentLike(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.comments.GetByID(ctx, commentID, 0); err != nil {
		return nil, appError(err, "Comment", commentID)
	}
	liked, err := s.comments.IsLiked(ctx, userID, commentID)
	if err != nil {
		return nil, appError(err, "Comment", commentID)
	}
	if liked {
		err = s.comments.Unlike(ctx, userID, commentID)
		observability.ReactionsToggled.WithLabelValues("comment_like", "remove").Inc()
	} else {
		err = s.comments.Like(ctx, userID, commentID)
		observability.ReactionsToggled.WithLabelValues("comment_like", "add").Inc()
	}
	if err != nil {
		return nil, appError(err, "Comment", commentID)
	}
	updated, err := s.comments.GetByID(ctx, commentID, userID)
	return updated, appError(err, "Comment", commentID)
}

// BuildTree nests comments under their parents. Input order is kept among
// siblings, so an oldest-first list yields oldest-first threads. A comment
// whose parent is not in the list is treated as a root.
func BuildTree(flat []*models.Comment) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(flat))
	for _, c := range flat {
		c.Replies = nil
		byID[c.ID] = c
	}
	roots := make([]*models.Comment, 0, len(flat))
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok && parent != c {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}
