package service

import (
	"context"
	"testing"

	"ainews/internal/cache"
	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/repository/repotest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tagNames(tags []repository.TagCount) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func TestPopularTags_FollowsPostMutations(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	ctx := context.Background()
	stores := newStores(t)
	tags := NewTagService(stores.Tags)
	posts := NewPostService(stores.Posts, stores.Profiles, newFlags(t, ""))
	author := repotest.MustProfile(t, stores, "author", models.RoleStudent)

	first, err := posts.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "one", Content: "c", Category: models.CategoryNews, Tags: []string{"AI"},
	})
	require.NoError(t, err)

	got, err := tags.PopularTags(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI"}, tagNames(got))
	assert.True(t, mr.Exists(cache.PopularTagsKey))

	second, err := posts.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Title: "two", Content: "c", Category: models.CategoryNews, Tags: []string{"AI", "Go"},
	})
	require.NoError(t, err)
	got, err = tags.PopularTags(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "Go"}, tagNames(got))
	assert.Equal(t, 2, got[0].PostCount)

	_, err = posts.UpdatePost(ctx, UpdatePostInput{ActorID: author.ID, PostID: first.ID, Tags: []string{"Rust"}})
	require.NoError(t, err)
	got, err = tags.PopularTags(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI"}, tagNames(got))

	require.NoError(t, posts.DeletePost(ctx, author.ID, second.ID))
	got, err = tags.PopularTags(ctx, MaxTagLimit+1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rust"}, tagNames(got))
}

func TestPopularTags_Empty(t *testing.T) {
	got, err := NewTagService(newStores(t).Tags).PopularTags(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
