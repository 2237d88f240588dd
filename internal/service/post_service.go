package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"ainews/internal/cache"
	"ainews/internal/featureflags"
	"ainews/internal/models"
	"ainews/internal/observability"
	"ainews/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000
	maxTags       = 10
	maxTagLen     = 50
)

type PostService struct {
	posts    repository.PostRepository
	profiles repository.ProfileRepository
	flags    *featureflags.Set
}

type CreatePostInput struct {
	AuthorID uint
	Title    string
	Content  string
	Category models.Category
	Tags     []string
}

// UpdatePostInput carries the fields to change. Empty strings keep the
// current value; a nil Tags keeps the tags and an empty one clears them.
type UpdatePostInput struct {
	ActorID  uint
	PostID   uint
	Title    string
	Content  string
	Category models.Category
	Tags     []string
}

type ListPostsInput struct {
	ViewerID uint
	Filter   repository.PostFilter
}

func NewPostService(
	posts repository.PostRepository,
	profiles repository.ProfileRepository,
	flags *featureflags.Set,
) *PostService {
	return &PostService{posts: posts, profiles: profiles, flags: flags}
}

// NormalizeTags trims names, drops blanks and repeats, and enforces the
// count and length limits.
func NormalizeTags(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		if utf8.RuneCountInString(name) > maxTagLen {
			return nil, models.NewValidationError("Tag too long (max 50 characters)")
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 10)")
	}
	return out, nil
}

func validateTitle(title string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

func validateCategory(c models.Category) error {
	if !c.Valid() {
		return models.NewValidationError("Invalid category")
	}
	return nil
}

// actor loads the acting profile. A missing profile means the token
// outlived its account.
func (s *PostService) actor(ctx context.Context, id uint) (*models.Profile, error) {
	return loadActor(ctx, s.profiles, id)
}

func loadActor(ctx context.Context, profiles repository.ProfileRepository, id uint) (*models.Profile, error) {
	if id == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	p, err := profiles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.NewUnauthorizedError("Account no longer exists")
	}
	if err != nil {
		return nil, appError(err, "Profile", id)
	}
	return p, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.CreatePost",
		attribute.String("post.category", string(in.Category)))
	defer func() { finish(err) }()

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}
	tags, err := NormalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	if _, err := s.actor(ctx, in.AuthorID); err != nil {
		return nil, err
	}

	post = &models.Post{
		Title:    title,
		Content:  in.Content,
		Category: in.Category,
		AuthorID: in.AuthorID,
	}
	if err := s.posts.Create(ctx, post, tags); err != nil {
		return nil, appError(err, "Post", 0)
	}
	observability.PostsCreated.WithLabelValues(string(post.Category)).Inc()
	cache.Invalidate(ctx, cache.PopularTagsKey)

	return s.GetPost(ctx, post.ID, in.AuthorID)
}

// GetPost returns one post. Anonymous reads go through the cache.
func (s *PostService) GetPost(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	if viewerID != 0 {
		post, err := s.posts.GetByID(ctx, id, viewerID)
		return post, appError(err, "Post", id)
	}

	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		p, err := s.posts.GetByID(ctx, id, 0)
		if err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, appError(err, "Post", id)
	}
	return &post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*repository.PostPage, error) {
	if in.Filter.Category != "" {
		if err := validateCategory(in.Filter.Category); err != nil {
			return nil, err
		}
	}
	in.Filter.Search = strings.TrimSpace(in.Filter.Search)
	in.Filter.Tag = strings.TrimSpace(in.Filter.Tag)
	page, err := s.posts.List(ctx, in.Filter, in.ViewerID)
	if err != nil {
		return nil, appError(err, "Post", 0)
	}
	return page, nil
}

// ListBookmarks lists the viewer's bookmarked posts.
func (s *PostService) ListBookmarks(ctx context.Context, userID uint, limit int, cursor string) (*repository.PostPage, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.ListPosts(ctx, ListPostsInput{
		ViewerID: userID,
		Filter:   repository.PostFilter{BookmarkedBy: userID, Limit: limit, Cursor: cursor},
	})
}

// loadForActor fetches the post and the acting profile together.
func (s *PostService) loadForActor(ctx context.Context, actorID, postID uint) (*models.Profile, *models.Post, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.posts.GetByID(ctx, postID, actorID)
	if err != nil {
		return nil, nil, appError(err, "Post", postID)
	}
	return actor, post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.UpdatePost")
	defer func() { finish(err) }()

	actor, post, err := s.loadForActor(ctx, in.ActorID, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := CanEditPost(actor, post); err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		post.Title = title
	}
	if in.Content != "" {
		if err := validateContent(in.Content); err != nil {
			return nil, err
		}
		post.Content = in.Content
	}
	if in.Category != "" {
		if err := validateCategory(in.Category); err != nil {
			return nil, err
		}
		post.Category = in.Category
	}
	var tags []string
	if in.Tags != nil {
		if tags, err = NormalizeTags(in.Tags); err != nil {
			return nil, err
		}
	}

	if err := s.posts.Update(ctx, post, tags); err != nil {
		return nil, appError(err, "Post", in.PostID)
	}
	cache.Invalidate(ctx, cache.PostKey(in.PostID))
	if tags != nil {
		cache.Invalidate(ctx, cache.PopularTagsKey)
	}
	return s.GetPost(ctx, in.PostID, in.ActorID)
}

func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) (err error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.DeletePost",
		attribute.Int("post.id", int(postID)))
	defer func() { finish(err) }()

	actor, post, err := s.loadForActor(ctx, actorID, postID)
	if err != nil {
		return err
	}
	if err := CanDeletePost(actor, post); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return appError(err, "Post", postID)
	}
	cache.Invalidate(ctx, cache.PostKey(postID), cache.PopularTagsKey)
	return nil
}

// ToggleLike flips the viewer's like and returns the refreshed post.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, appError(err, "Post", postID)
	}
	liked, err := s.posts.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, appError(err, "Post", postID)
	}

	if liked {
		err = s.posts.Unlike(ctx, userID, postID)
		observability.ReactionsToggled.WithLabelValues("post_like", "remove").Inc()
	} else {
		err = s.posts.Like(ctx, userID, postID)
		observability.ReactionsToggled.WithLabelValues("post_like", "add").Inc()
	}
	if err != nil {
		return nil, appError(err, "Post", postID)
	}
	cache.Invalidate(ctx, cache.PostKey(postID))
	return s.GetPost(ctx, postID, userID)
}

// SetArchived archives or restores a post.
func (s *PostService) SetArchived(ctx context.Context, actorID, postID uint, archived bool) (*models.Post, error) {
	actor, post, err := s.loadForActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	return s.setArchived(ctx, actor, post, archived)
}

// ToggleArchive flips the archived flag.
func (s *PostService) ToggleArchive(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	actor, post, err := s.loadForActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	return s.setArchived(ctx, actor, post, !post.Archived)
}

func (s *PostService) setArchived(ctx context.Context, actor *models.Profile, post *models.Post, archived bool) (*models.Post, error) {
	if err := CanArchivePost(actor, post); err != nil {
		return nil, err
	}
	if err := s.posts.SetArchived(ctx, post.ID, archived); err != nil {
		return nil, appError(err, "Post", post.ID)
	}
	cache.Invalidate(ctx, cache.PostKey(post.ID))
	return s.GetPost(ctx, post.ID, actor.ID)
}

// TogglePin flips the pinned flag.
func (s *PostService) TogglePin(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	actor, post, err := s.loadForActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if err := CanPinPost(actor, post); err != nil {
		return nil, err
	}
	if err := s.posts.SetPinned(ctx, postID, !post.Pinned); err != nil {
		return nil, appError(err, "Post", postID)
	}
	cache.Invalidate(ctx, cache.PostKey(postID))
	return s.GetPost(ctx, postID, actorID)
}

// RecordView counts the viewer's first view of a post. It reports whether
// a view was added; repeat views and disabled tracking add nothing.
func (s *PostService) RecordView(ctx context.Context, userID, postID uint) (bool, error) {
	if userID == 0 {
		return false, models.NewUnauthorizedError("Authentication required")
	}
	if !s.flags.Enabled(featureflags.ViewTracking, userID) {
		return false, nil
	}
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return false, appError(err, "Post", postID)
	}
	added, err := s.posts.RecordView(ctx, userID, postID)
	if err != nil {
		return false, appError(err, "Post", postID)
	}
	if added {
		cache.Invalidate(ctx, cache.PostKey(postID))
	}
	return added, nil
}

// ToggleBookmark flips the viewer's bookmark and returns the refreshed post.
func (s *PostService) ToggleBookmark(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.posts.GetByID(ctx, postID, 0); err != nil {
		return nil, appError(err, "Post", postID)
	}
	saved, err := s.posts.IsBookmarked(ctx, userID, postID)
	if err != nil {
		return nil, appError(err, "Post", postID)
	}
	if saved {
		err = s.posts.Unbookmark(ctx, userID, postID)
		observability.ReactionsToggled.WithLabelValues("bookmark", "remove").Inc()
	} else {
		err = s.posts.Bookmark(ctx, userID, postID)
		observability.ReactionsToggled.WithLabelValues("bookmark", "add").Inc()
	}
	if err != nil {
		return nil, appError(err, "Post", postID)
	}
	return s.GetPost(ctx, postID, userID)
}
