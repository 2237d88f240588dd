package repository

import (
	"testing"
	"time"

	"ainews/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_RoundTrip(t *testing.T) {
	p := &models.Post{ID: 42, Pinned: true, CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 123456000, time.UTC)}

	c, err := DecodeCursor(CursorFor(p).Encode())
	require.NoError(t, err)
	assert.Equal(t, uint(42), c.ID)
	assert.True(t, c.Pinned)
	assert.True(t, c.CreatedAt.Equal(p.CreatedAt))
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, raw := range []string{"not base64!", "bm90IGpzb24", PostCursor{}.Encode()} {
		_, err := DecodeCursor(raw)
		assert.ErrorIs(t, err, ErrInvalidCursor, raw)
	}
}

func TestCursor_Before(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := PostCursor{Pinned: false, CreatedAt: t0, ID: 10}

	tests := []struct {
		name string
		post models.Post
		want bool
	}{
		{"older", models.Post{ID: 11, CreatedAt: t0.Add(-time.Second)}, true},
		{"newer", models.Post{ID: 9, CreatedAt: t0.Add(time.Second)}, false},
		{"same time lower id", models.Post{ID: 9, CreatedAt: t0}, true},
		{"same time higher id", models.Post{ID: 11, CreatedAt: t0}, false},
		{"itself", models.Post{ID: 10, CreatedAt: t0}, false},
		{"pinned sorts before unpinned cursor", models.Post{ID: 1, Pinned: true, CreatedAt: t0.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cur.Before(&tt.post))
		})
	}

	pinnedCur := PostCursor{Pinned: true, CreatedAt: t0, ID: 10}
	assert.True(t, pinnedCur.Before(&models.Post{ID: 99, CreatedAt: t0.Add(time.Hour)}), "unpinned rows follow every pinned row")
}

func TestPaginate(t *testing.T) {
	posts := []*models.Post{{ID: 3}, {ID: 2}, {ID: 1}}

	page := Paginate(posts, 2)
	assert.Len(t, page.Posts, 2)
	require.NotEmpty(t, page.NextCursor)
	c, err := DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, uint(2), c.ID)

	last := Paginate(posts[:2], 2)
	assert.Empty(t, last.NextCursor)

	empty := Paginate(nil, 20)
	assert.NotNil(t, empty.Posts)
}

func TestPostFilter_PageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, PostFilter{}.PageSize())
	assert.Equal(t, 5, PostFilter{Limit: 5}.PageSize())
	assert.Equal(t, MaxPageSize, PostFilter{Limit: 1000}.PageSize())
}
