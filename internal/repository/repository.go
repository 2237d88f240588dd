// Package repository provides the data access interfaces and their
// relational (GORM) implementation.
package repository

import (
	"context"
	"errors"

	"ainews/internal/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidCursor is returned for a cursor that does not decode.
	ErrInvalidCursor = errors.New("invalid cursor")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PostFilter narrows a post listing. Zero values mean "any", except
// Archived which selects archived posts instead of live ones.
type PostFilter struct {
	Category     models.Category
	AuthorID     uint
	Tag          string
	Archived     bool
	BookmarkedBy uint
	Search       string
	Limit        int
	Cursor       string
}

// PageSize clamps Limit to [1, MaxPageSize], defaulting to DefaultPageSize.
func (f PostFilter) PageSize() int {
	switch {
	case f.Limit <= 0:
		return DefaultPageSize
	case f.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return f.Limit
	}
}

// PostPage is one page of a listing. NextCursor is empty on the last page.
type PostPage struct {
	Posts      []*models.Post `json:"posts"`
	NextCursor string         `json:"next_cursor"`
}

// TagCount is a tag with the number of posts using it.
type TagCount struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	PostCount int    `json:"post_count"`
}

// PostRepository defines the interface for post data operations.
// viewerID 0 means an anonymous reader; Liked and Bookmarked stay false.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagNames []string) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, viewerID uint) (*PostPage, error)
	// Update writes title, content and category. A nil tagNames keeps the tags.
	Update(ctx context.Context, post *models.Post, tagNames []string) error
	// Delete removes the post with its comments, comment likes, likes,
	// views, bookmarks and tag links.
	Delete(ctx context.Context, id uint) error
	SetArchived(ctx context.Context, id uint, archived bool) error
	SetPinned(ctx context.Context, id uint, pinned bool) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	// RecordView reports whether this was the user's first view.
	RecordView(ctx context.Context, userID, postID uint) (bool, error)
	IsBookmarked(ctx context.Context, userID, postID uint) (bool, error)
	Bookmark(ctx context.Context, userID, postID uint) error
	Unbookmark(ctx context.Context, userID, postID uint) error
}

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error)
	// ListByPost returns every comment on the post, oldest first.
	ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// Delete removes the comment, all of its descendants and their likes.
	// It returns how many comments were removed.
	Delete(ctx context.Context, id uint) (int, error)
	CollectDescendantIDs(ctx context.Context, id uint) ([]uint, error)
	IsLiked(ctx context.Context, userID, commentID uint) (bool, error)
	Like(ctx context.Context, userID, commentID uint) error
	Unlike(ctx context.Context, userID, commentID uint) error
}

// ProfileRepository defines the interface for profile data operations.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	// Update writes the editable profile fields and preferences.
	Update(ctx context.Context, profile *models.Profile) error
	UpdatePreferences(ctx context.Context, id uint, prefs models.Preferences) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	// ListByRole lists profiles with the role, or all profiles for "".
	ListByRole(ctx context.Context, role models.Role) ([]*models.Profile, error)
}

// TagRepository defines the interface for tag data operations.
type TagRepository interface {
	FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error)
	ListPopular(ctx context.Context, limit int) ([]TagCount, error)
}

// Stores bundles one backend's repositories.
type Stores struct {
	Posts    PostRepository
	Comments CommentRepository
	Profiles ProfileRepository
	Tags     TagRepository
}
