package seed

import (
	"context"
	"strings"
	"testing"

	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/repository/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newStores() *repository.Stores {
	return docstore.NewStores(docstore.New())
}

func TestSeeder_Run(t *testing.T) {
	stores := newStores()
	ctx := context.Background()

	res, err := NewSeeder(stores, Options{Profiles: 6, Posts: 12, MaxComments: 4, Seed: 42, BcryptCost: bcrypt.MinCost}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Profiles)
	assert.Equal(t, 12, res.Posts)

	teachers, err := stores.Profiles.ListByRole(ctx, models.RoleTeacher)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	page, err := stores.Posts.List(ctx, repository.PostFilter{Limit: 50}, 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 12)

	comments, likes := 0, 0
	perCategory := map[models.Category]int{}
	for _, p := range page.Posts {
		comments += p.CommentsCount
		likes += p.LikesCount
		perCategory[p.Category]++
		assert.LessOrEqual(t, len(p.Tags), 3)
	}
	assert.Equal(t, res.Comments, comments)
	assert.Equal(t, res.Likes, likes)
	for _, c := range models.Categories {
		assert.Equal(t, 3, perCategory[c], c)
	}

	p := teachers[0]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(DemoPassword)))
}

func TestSeeder_Defaults(t *testing.T) {
	s := NewSeeder(newStores(), Options{MaxComments: -1})
	assert.Equal(t, 10, s.opts.Profiles)
	assert.Equal(t, 40, s.opts.Posts)
	assert.Zero(t, s.opts.MaxComments)
	assert.Equal(t, bcrypt.DefaultCost, s.opts.BcryptCost)
}

func TestFixtures_LoadAndApply(t *testing.T) {
	fx, err := LoadFixtures("testdata/fixtures.yml")
	require.NoError(t, err)
	require.Len(t, fx.Profiles, 3)
	require.Len(t, fx.Posts, 3)

	stores := newStores()
	ctx := context.Background()
	res, err := Apply(ctx, stores, fx, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, &Result{Profiles: 3, Posts: 3, Comments: 4, Likes: 2}, res)

	ada, err := stores.Profiles.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, ada.Role)
	bob, err := stores.Profiles.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, bob.Role)

	page, err := stores.Posts.List(ctx, repository.PostFilter{}, bob.ID)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2, "archived post is hidden")

	pinned := page.Posts[0]
	assert.Equal(t, "Transformers explained", pinned.Title)
	assert.True(t, pinned.Pinned)
	assert.Equal(t, 2, pinned.LikesCount)
	assert.Equal(t, 4, pinned.CommentsCount)
	assert.True(t, pinned.Liked)
	assert.True(t, pinned.Bookmarked)
	assert.Equal(t, []string{"AI", "NLP"}, pinned.TagNames())

	comments, err := stores.Comments.ListByPost(ctx, pinned.ID, 0)
	require.NoError(t, err)
	require.Len(t, comments, 4)
	require.NotNil(t, comments[1].ParentID)
	assert.Equal(t, comments[0].ID, *comments[1].ParentID)

	untitled, err := stores.Posts.List(ctx, repository.PostFilter{Category: models.CategoryNews}, 0)
	require.NoError(t, err)
	require.Len(t, untitled.Posts, 1)
	assert.Equal(t, "Weekly model roundup", untitled.Posts[0].Content, "content defaults to the title")
}

func TestParseFixtures_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown author", "profiles: [{username: a, email: a@x.io}]\nposts: [{author: z, title: t, category: news}]", "author \"z\""},
		{"unknown category", "profiles: [{username: a, email: a@x.io}]\nposts: [{author: a, title: t, category: gossip}]", "unknown category"},
		{"unknown liker", "profiles: [{username: a, email: a@x.io}]\nposts: [{author: a, title: t, category: news, liked_by: [q]}]", "\"q\""},
		{"unknown reply author", "profiles: [{username: a, email: a@x.io}]\nposts: [{author: a, title: t, category: news, comments: [{author: a, content: c, replies: [{author: q, content: r}]}]}]", "comment author"},
		{"bad role", "profiles: [{username: a, email: a@x.io, role: king}]", "unknown role"},
		{"duplicate profile", "profiles: [{username: a, email: a@x.io}, {username: a, email: b@x.io}]", "listed twice"},
		{"unknown field", "profiles: [{username: a, email: a@x.io, avatar: x}]", "avatar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFixtures_Empty(t *testing.T) {
	fx, err := ParseFixtures(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Posts)
}
