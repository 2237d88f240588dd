package docstore

import (
	"context"
	"sort"
	"sync"

	"ainews/internal/models"
	"ainews/internal/repository"
)

type tagRepository struct {
	s *Store
}

func (st *state) tagByName(name string) (models.Tag, bool) {
	for _, t := range st.tags {
		if t.Name == name {
			return t, true
		}
	}
	return models.Tag{}, false
}

// findOrCreateTags must run under the write lock.
func (st *state) findOrCreateTags(names []string) []models.Tag {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		t, ok := st.tagByName(name)
		if !ok {
			t = models.Tag{ID: st.nextID("tags"), Name: name}
			st.tags[t.ID] = t
		}
		tags = append(tags, t)
	}
	return tags
}

func (st *state) linkTags(postID uint, tags []models.Tag) {
	for _, t := range tags {
		st.postTags[joinID(postID, t.ID)] = models.PostTag{PostID: postID, TagID: t.ID}
	}
}

// loadTags fetches tags by id with chunked IN lookups.
func (s *Store) loadTags(ctx context.Context, ids []uint) (map[uint]models.Tag, error) {
	var mu sync.Mutex
	out := make(map[uint]models.Tag, len(ids))
	err := fanOut(ctx, uniqueIDs(ids), func(_ context.Context, chunk []uint) error {
		return s.read(func(st *state) error {
			found, err := whereIn(st.tags, func(t models.Tag) uint { return t.ID }, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, t := range found {
				out[t.ID] = t
			}
			return nil
		})
	})
	return out, err
}

func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.s.update(func(st *state) error {
		tags = st.findOrCreateTags(names)
		return nil
	})
	return tags, err
}

func (r *tagRepository) ListPopular(ctx context.Context, limit int) ([]repository.TagCount, error) {
	if limit <= 0 {
		limit = repository.DefaultPageSize
	}
	out := []repository.TagCount{}
	err := r.s.read(func(st *state) error {
		counts := make(map[uint]int)
		for _, link := range st.postTags {
			counts[link.TagID]++
		}
		for id, n := range counts {
			if t, ok := st.tags[id]; ok {
				out = append(out, repository.TagCount{ID: t.ID, Name: t.Name, PostCount: n})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostCount != out[j].PostCount {
			return out[i].PostCount > out[j].PostCount
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
