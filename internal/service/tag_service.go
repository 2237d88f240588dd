package service

import (
	"context"

	"ainews/internal/cache"
	"ainews/internal/repository"
)

const (
	DefaultTagLimit = 20
	MaxTagLimit     = 100
)

type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// PopularTags returns up to limit tags ordered by how many posts carry
// them. Out-of-range limits fall back to the default or the maximum.
func (s *TagService) PopularTags(ctx context.Context, limit int) ([]repository.TagCount, error) {
	if limit <= 0 {
		limit = DefaultTagLimit
	}
	if limit > MaxTagLimit {
		limit = MaxTagLimit
	}

	var tags []repository.TagCount
	err := cache.Aside(ctx, cache.PopularTagsKey, &tags, cache.TagsTTL, func() error {
		var err error
		tags, err = s.tags.ListPopular(ctx, MaxTagLimit)
		return err
	})
	if err != nil {
		return nil, appError(err, "Tag", 0)
	}
	if len(tags) > limit {
		tags = tags[:limit]
	}
	if tags == nil {
		tags = []repository.TagCount{}
	}
	return tags, nil
}
