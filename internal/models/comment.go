package models

import "time"

// Comment is a reply on a post, optionally nested under another comment.
type Comment struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Content  string         `gorm:"type:text;not null" json:"content"`
	PostID   uint           `gorm:"not null;index" json:"post_id"`
	AuthorID uint           `gorm:"not null;index" json:"author_id"`
	Author   *AuthorSummary `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID *uint          `gorm:"index" json:"parent_id,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int  `gorm:"->;-:migration" json:"likes_count"`
	Liked      bool `gorm:"->;-:migration" json:"liked"`
	// Replies is only populated when a thread is assembled
	Replies   []*Comment `gorm:"-" json:"replies,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CommentLike records that a user liked a comment.
type CommentLike struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	CommentID uint      `gorm:"primaryKey;index" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}
