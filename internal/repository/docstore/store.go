// Package docstore is an in-process document store with the query limits
// of a hosted document database: no joins, IN lookups of at most 30 keys,
// and write batches of at most 500 operations. Repositories on top of it
// assemble joined views with chunked fan-out reads.
package docstore

import (
	"context"
	"fmt"
	"sync"

	"ainews/internal/models"
	"ainews/internal/repository"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxInKeys is the largest key set accepted by an IN lookup.
	MaxInKeys = 30
	// MaxBatchWrites is the largest number of writes committed atomically.
	MaxBatchWrites = 500
)

// ErrInLimit is returned by IN lookups with more than MaxInKeys keys.
var ErrInLimit = fmt.Errorf("docstore: IN lookup exceeds %d keys", MaxInKeys)

// state holds every collection. Join collections are keyed by a
// composite document id so a second write of the same pair is a no-op.
type state struct {
	seq          map[string]uint
	profiles     map[uint]models.Profile
	posts        map[uint]models.Post
	tags         map[uint]models.Tag
	postTags     map[string]models.PostTag
	comments     map[uint]models.Comment
	likes        map[string]models.Like
	commentLikes map[string]models.CommentLike
	views        map[string]models.View
	bookmarks    map[string]models.Bookmark
}

func (st *state) nextID(collection string) uint {
	st.seq[collection]++
	return st.seq[collection]
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	st      *state
	commits int
}

// New creates an empty store.
func New() *Store {
	return &Store{st: &state{
		seq:          make(map[string]uint),
		profiles:     make(map[uint]models.Profile),
		posts:        make(map[uint]models.Post),
		tags:         make(map[uint]models.Tag),
		postTags:     make(map[string]models.PostTag),
		comments:     make(map[uint]models.Comment),
		likes:        make(map[string]models.Like),
		commentLikes: make(map[string]models.CommentLike),
		views:        make(map[string]models.View),
		bookmarks:    make(map[string]models.Bookmark),
	}}
}

// NewStores returns the document-backed repositories sharing one store.
func NewStores(s *Store) *repository.Stores {
	return &repository.Stores{
		Posts:    &postRepository{s: s},
		Comments: &commentRepository{s: s},
		Profiles: &profileRepository{s: s},
		Tags:     &tagRepository{s: s},
	}
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// update runs fn with exclusive access. fn must validate before it mutates.
func (s *Store) update(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// Commits reports how many batch commits have been applied.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Batch collects writes and applies them with Commit.
type Batch struct {
	s   *Store
	ops []func(st *state)
}

// Batch starts an empty write batch.
func (s *Store) Batch() *Batch {
	return &Batch{s: s}
}

func (b *Batch) add(op func(st *state)) {
	b.ops = append(b.ops, op)
}

// Len is the number of queued writes.
func (b *Batch) Len() int { return len(b.ops) }

// Commit applies the queued writes in groups of at most MaxBatchWrites.
// Each group is atomic; a cancelled context stops before the next group.
func (b *Batch) Commit(ctx context.Context) error {
	for start := 0; start < len(b.ops); start += MaxBatchWrites {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+MaxBatchWrites, len(b.ops))
		b.s.mu.Lock()
		for _, op := range b.ops[start:end] {
			op(b.s.st)
		}
		b.s.commits++
		b.s.mu.Unlock()
	}
	b.ops = nil
	return nil
}

func joinID(a, b uint) string {
	return fmt.Sprintf("%d_%d", a, b)
}

// whereIn returns the documents whose field is one of ids.
func whereIn[K comparable, T any](docs map[K]T, field func(T) uint, ids []uint) ([]T, error) {
	if len(ids) > MaxInKeys {
		return nil, ErrInLimit
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	var out []T
	for _, d := range docs {
		if _, ok := set[field(d)]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func chunkIDs(ids []uint, size int) [][]uint {
	var chunks [][]uint
	for len(ids) > size {
		chunks = append(chunks, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

// fanOut runs fn once per chunk of at most MaxInKeys ids, concurrently.
func fanOut(ctx context.Context, ids []uint, fn func(ctx context.Context, chunk []uint) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, chunk := range chunkIDs(ids, MaxInKeys) {
		g.Go(func() error { return fn(ctx, chunk) })
	}
	return g.Wait()
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// loadProfiles fetches profiles by id with chunked IN lookups.
func (s *Store) loadProfiles(ctx context.Context, ids []uint) (map[uint]*models.Profile, error) {
	var mu sync.Mutex
	out := make(map[uint]*models.Profile, len(ids))
	err := fanOut(ctx, uniqueIDs(ids), func(_ context.Context, chunk []uint) error {
		return s.read(func(st *state) error {
			found, err := whereIn(st.profiles, func(p models.Profile) uint { return p.ID }, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range found {
				out[p.ID] = &p
			}
			return nil
		})
	})
	return out, err
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%s %d: %w", kind, id, repository.ErrNotFound)
}
