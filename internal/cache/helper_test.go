package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(rdb)
	t.Cleanup(func() {
		SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{Name: "post", Count: 3}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, PostKey(7), &first, PostTTL, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("post:7"))

	var second cachedThing
	require.NoError(t, Aside(ctx, PostKey(7), &second, PostTTL, fetch(&second)))
	assert.Equal(t, 1, calls, "second read should come from redis")
	assert.Equal(t, first, second)

	Invalidate(ctx, PostKey(7))
	assert.False(t, mr.Exists("post:7"))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := useMiniredis(t)
	var dest cachedThing
	err := Aside(context.Background(), ProfileKey(1), &dest, ProfileTTL, func() error {
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists("profile:1"))
}

func TestAside_WithoutRedis(t *testing.T) {
	SetClient(nil)
	var dest cachedThing
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), PopularTagsKey, &dest, TagsTTL, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	Invalidate(context.Background(), PopularTagsKey)
}
