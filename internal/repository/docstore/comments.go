package docstore

import (
	"context"
	"sort"
	"sync"

	"ainews/internal/database"
	"ainews/internal/models"
	"ainews/internal/observability"
)

var commentLog = observability.NewRepoLogger(backendName, "comments")

type commentRepository struct {
	s *Store
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery(backendName, "comment.create")()
	err := r.s.update(func(st *state) error {
		now := database.Now()
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = now
		}
		comment.UpdatedAt = now
		comment.ID = st.nextID("comments")
		doc := *comment
		doc.Author, doc.Replies = nil, nil
		doc.LikesCount, doc.Liked = 0, false
		st.comments[doc.ID] = doc
		return nil
	})
	if err == nil {
		commentLog.LogMutation(ctx, "create", "comment_id", comment.ID, "post_id", comment.PostID)
	}
	return err
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.s.read(func(st *state) error {
		doc, ok := st.comments[id]
		if !ok {
			return notFound("comment", id)
		}
		comment = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.s.hydrateComments(ctx, []*models.Comment{&comment}, viewerID); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery(backendName, "comment.list")()
	var comments []*models.Comment
	err := r.s.read(func(st *state) error {
		for _, doc := range st.comments {
			if doc.PostID == postID {
				comments = append(comments, &doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	if err := r.s.hydrateComments(ctx, comments, viewerID); err != nil {
		return nil, err
	}
	return comments, nil
}

// hydrateComments fills authors, like counts and the viewer flag.
func (s *Store) hydrateComments(ctx context.Context, comments []*models.Comment, viewerID uint) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(comments))
	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		authorIDs = append(authorIDs, c.AuthorID)
	}

	authors, err := s.loadProfiles(ctx, authorIDs)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	counts := make(map[uint]int, len(ids))
	liked := make(map[uint]bool)
	err = fanOut(ctx, uniqueIDs(ids), func(_ context.Context, chunk []uint) error {
		return s.read(func(st *state) error {
			likes, err := whereIn(st.commentLikes, func(l models.CommentLike) uint { return l.CommentID }, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, l := range likes {
				counts[l.CommentID]++
				if viewerID != 0 && l.UserID == viewerID {
					liked[l.CommentID] = true
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, c := range comments {
		c.Author = authors[c.AuthorID].Summary()
		c.LikesCount = counts[c.ID]
		c.Liked = liked[c.ID]
	}
	return nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.s.update(func(st *state) error {
		doc, ok := st.comments[comment.ID]
		if !ok {
			return notFound("comment", comment.ID)
		}
		doc.Content = comment.Content
		doc.UpdatedAt = database.Now()
		st.comments[doc.ID] = doc
		return nil
	})
}

// CollectDescendantIDs walks the reply tree breadth first. Each level is
// one parent_id IN lookup, chunked to the key limit.
func (r *commentRepository) CollectDescendantIDs(ctx context.Context, id uint) ([]uint, error) {
	var out []uint
	frontier := []uint{id}
	for len(frontier) > 0 {
		var (
			mu   sync.Mutex
			next []uint
		)
		err := fanOut(ctx, frontier, func(_ context.Context, chunk []uint) error {
			return r.s.read(func(st *state) error {
				children, err := whereIn(st.comments, parentOf, chunk)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				for _, c := range children {
					next = append(next, c.ID)
				}
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
		out = append(out, next...)
		frontier = next
	}
	return out, nil
}

func parentOf(c models.Comment) uint {
	if c.ParentID == nil {
		return 0
	}
	return *c.ParentID
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (int, error) {
	defer observability.TrackQuery(backendName, "comment.delete")()

	err := r.s.read(func(st *state) error {
		if _, ok := st.comments[id]; !ok {
			return notFound("comment", id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	descendants, err := r.CollectDescendantIDs(ctx, id)
	if err != nil {
		return 0, err
	}
	ids := append([]uint{id}, descendants...)

	likeIDs, err := r.s.commentLikeDocIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	batch := r.s.Batch()
	for _, docID := range likeIDs {
		batch.add(func(st *state) { delete(st.commentLikes, docID) })
	}
	for _, cid := range ids {
		batch.add(func(st *state) { delete(st.comments, cid) })
	}
	if err := batch.Commit(ctx); err != nil {
		return 0, err
	}

	commentLog.LogCascade(ctx, id, map[string]int{"comments": len(ids), "comment_likes": len(likeIDs)})
	return len(ids), nil
}

func (r *commentRepository) IsLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var ok bool
	err := r.s.read(func(st *state) error {
		_, ok = st.commentLikes[joinID(commentID, userID)]
		return nil
	})
	return ok, err
}

func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) error {
	return r.s.update(func(st *state) error {
		id := joinID(commentID, userID)
		if _, ok := st.commentLikes[id]; !ok {
			st.commentLikes[id] = models.CommentLike{UserID: userID, CommentID: commentID, CreatedAt: database.Now()}
		}
		return nil
	})
}

func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) error {
	return r.s.update(func(st *state) error {
		delete(st.commentLikes, joinID(commentID, userID))
		return nil
	})
}
