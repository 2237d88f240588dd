package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"ainews/internal/models"
)

// PostCursor is the sort key of the last post on a page.
type PostCursor struct {
	Pinned    bool      `json:"p"`
	CreatedAt time.Time `json:"t"`
	ID        uint      `json:"i"`
}

// CursorFor returns the cursor positioned at p.
func CursorFor(p *models.Post) PostCursor {
	return PostCursor{Pinned: p.Pinned, CreatedAt: p.CreatedAt.UTC(), ID: p.ID}
}

// Encode returns the opaque form handed to clients.
func (c PostCursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a cursor produced by Encode.
func DecodeCursor(s string) (*PostCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c PostCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.ID == 0 {
		return nil, ErrInvalidCursor
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// Before reports whether p sorts strictly after the cursor in listing order,
// i.e. whether p belongs on the next page.
func (c PostCursor) Before(p *models.Post) bool {
	if c.Pinned != p.Pinned {
		return c.Pinned
	}
	if !p.CreatedAt.Equal(c.CreatedAt) {
		return p.CreatedAt.Before(c.CreatedAt)
	}
	return p.ID < c.ID
}

// LessPost is the listing order: pinned first, then newest, then highest id.
func LessPost(a, b *models.Post) bool {
	if a.Pinned != b.Pinned {
		return a.Pinned
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Paginate slices an already ordered candidate list into one page.
// candidates may hold one row more than the page size to detect a next page.
func Paginate(candidates []*models.Post, pageSize int) *PostPage {
	page := &PostPage{Posts: candidates}
	if len(candidates) > pageSize {
		page.Posts = candidates[:pageSize]
		page.NextCursor = CursorFor(page.Posts[pageSize-1]).Encode()
	}
	if page.Posts == nil {
		page.Posts = []*models.Post{}
	}
	return page
}

// SortTags orders a post's tags by name.
func SortTags(p *models.Post) {
	sort.Slice(p.Tags, func(i, j int) bool { return p.Tags[i].Name < p.Tags[j].Name })
}
