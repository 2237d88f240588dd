// Package models contains data structures for the application's domain models.
package models

import (
	"sort"
	"time"
)

// Category groups posts into the four sections of the site.
type Category string

const (
	CategoryNews         Category = "news"
	CategoryMaterials    Category = "materials"
	CategoryProjectIdeas Category = "project-ideas"
	CategoryDiscussions  Category = "discussions"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryNews, CategoryMaterials, CategoryProjectIdeas, CategoryDiscussions}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Post represents an article, material, project idea or discussion.
type Post struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Title    string         `gorm:"size:300;not null" json:"title"`
	Content  string         `gorm:"type:text;not null" json:"content"`
	Category Category       `gorm:"type:varchar(32);not null;index" json:"category"`
	AuthorID uint           `gorm:"not null;index" json:"author_id"`
	Author   *AuthorSummary `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags     []Tag          `gorm:"many2many:post_tags;" json:"tags"`
	Archived bool           `gorm:"not null;default:false;index" json:"archived"`
	Pinned   bool           `gorm:"not null;default:false;index" json:"pinned"`
	// Counters are not persisted; computed at query time
	LikesCount    int `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	ViewsCount    int `gorm:"->;-:migration" json:"views_count"`
	// Liked and Bookmarked are relative to the requesting user
	Liked      bool      `gorm:"->;-:migration" json:"liked"`
	Bookmarked bool      `gorm:"->;-:migration" json:"bookmarked"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TagNames returns the post's tag names sorted alphabetically.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Tag is a free-form label shared between posts.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

// PostTag is the join row between posts and tags.
type PostTag struct {
	PostID uint `gorm:"primaryKey" json:"post_id"`
	TagID  uint `gorm:"primaryKey;index" json:"tag_id"`
}

func (PostTag) TableName() string { return "post_tags" }

// Like records that a user liked a post.
type Like struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// View records the first time a user opened a post.
type View struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark records a post saved by a user.
type Bookmark struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	PostID    uint      `gorm:"primaryKey;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
