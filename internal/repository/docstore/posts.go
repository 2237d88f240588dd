package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ainews/internal/database"
	"ainews/internal/models"
	"ainews/internal/observability"
	"ainews/internal/repository"

	"golang.org/x/sync/errgroup"
)

const backendName = "memory"

var postLog = observability.NewRepoLogger(backendName, "posts")

type postRepository struct {
	s *Store
}

// bare strips associations and derived fields before a post is stored.
func bare(p *models.Post) models.Post {
	doc := *p
	doc.Author = nil
	doc.Tags = nil
	doc.LikesCount, doc.CommentsCount, doc.ViewsCount = 0, 0, 0
	doc.Liked, doc.Bookmarked = false, false
	return doc
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	defer observability.TrackQuery(backendName, "post.create")()

	err := r.s.update(func(st *state) error {
		now := database.Now()
		if post.CreatedAt.IsZero() {
			post.CreatedAt = now
		}
		post.UpdatedAt = now
		post.ID = st.nextID("posts")
		tags := st.findOrCreateTags(tagNames)
		st.posts[post.ID] = bare(post)
		st.linkTags(post.ID, tags)
		post.Tags = tags
		return nil
	})
	if err != nil {
		return err
	}
	repository.SortTags(post)
	postLog.LogMutation(ctx, "create", "post_id", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	defer observability.TrackQuery(backendName, "post.get")()

	var post models.Post
	err := r.s.read(func(st *state) error {
		doc, ok := st.posts[id]
		if !ok {
			return notFound("post", id)
		}
		post = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.s.hydratePosts(ctx, []*models.Post{&post}, viewerID); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter repository.PostFilter, viewerID uint) (*repository.PostPage, error) {
	defer observability.TrackQuery(backendName, "post.list")()

	var cursor *repository.PostCursor
	if filter.Cursor != "" {
		c, err := repository.DecodeCursor(filter.Cursor)
		if err != nil {
			return nil, err
		}
		cursor = c
	}

	var candidates []*models.Post
	err := r.s.read(func(st *state) error {
		allowed := st.postIDFilter(filter)
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		for _, doc := range st.posts {
			if doc.Archived != filter.Archived {
				continue
			}
			if filter.Category != "" && doc.Category != filter.Category {
				continue
			}
			if filter.AuthorID != 0 && doc.AuthorID != filter.AuthorID {
				continue
			}
			if allowed != nil {
				if _, ok := allowed[doc.ID]; !ok {
					continue
				}
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(doc.Title), search) &&
				!strings.Contains(strings.ToLower(doc.Content), search) {
				continue
			}
			if cursor != nil && !cursor.Before(&doc) {
				continue
			}
			candidates = append(candidates, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return repository.LessPost(candidates[i], candidates[j]) })
	size := filter.PageSize()
	if len(candidates) > size+1 {
		candidates = candidates[:size+1]
	}
	page := repository.Paginate(candidates, size)
	if err := r.s.hydratePosts(ctx, page.Posts, viewerID); err != nil {
		return nil, err
	}
	return page, nil
}

// postIDFilter resolves the tag and bookmark filters to a set of post ids.
// A nil set means no restriction.
func (st *state) postIDFilter(filter repository.PostFilter) map[uint]struct{} {
	var allowed map[uint]struct{}
	intersect := func(ids map[uint]struct{}) {
		if allowed == nil {
			allowed = ids
			return
		}
		for id := range allowed {
			if _, ok := ids[id]; !ok {
				delete(allowed, id)
			}
		}
	}

	if filter.Tag != "" {
		ids := map[uint]struct{}{}
		if tag, ok := st.tagByName(filter.Tag); ok {
			for _, link := range st.postTags {
				if link.TagID == tag.ID {
					ids[link.PostID] = struct{}{}
				}
			}
		}
		intersect(ids)
	}
	if filter.BookmarkedBy != 0 {
		ids := map[uint]struct{}{}
		for _, b := range st.bookmarks {
			if b.UserID == filter.BookmarkedBy {
				ids[b.PostID] = struct{}{}
			}
		}
		intersect(ids)
	}
	return allowed
}

type postStats struct {
	likes, comments, views int
	liked, bookmarked      bool
	tagIDs                 []uint
}

// hydratePosts fills authors, tags, counters and viewer flags with
// chunked lookups, the way a join-less store has to.
func (s *Store) hydratePosts(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	stats := make(map[uint]*postStats, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		authorIDs = append(authorIDs, p.AuthorID)
		stats[p.ID] = &postStats{}
	}
	ids = uniqueIDs(ids)

	var authors map[uint]*models.Profile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		authors, err = s.loadProfiles(gctx, authorIDs)
		return err
	})
	g.Go(func() error {
		return fanOut(gctx, ids, func(_ context.Context, chunk []uint) error {
			return s.read(func(st *state) error {
				return st.collectPostStats(chunk, viewerID, stats)
			})
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	var tagIDs []uint
	for _, ps := range stats {
		tagIDs = append(tagIDs, ps.tagIDs...)
	}
	tags, err := s.loadTags(ctx, tagIDs)
	if err != nil {
		return err
	}

	for _, p := range posts {
		ps := stats[p.ID]
		p.Author = authors[p.AuthorID].Summary()
		p.LikesCount, p.CommentsCount, p.ViewsCount = ps.likes, ps.comments, ps.views
		p.Liked, p.Bookmarked = ps.liked, ps.bookmarked
		p.Tags = make([]models.Tag, 0, len(ps.tagIDs))
		for _, id := range ps.tagIDs {
			if t, ok := tags[id]; ok {
				p.Tags = append(p.Tags, t)
			}
		}
		repository.SortTags(p)
	}
	return nil
}

// collectPostStats counts join documents for one chunk of post ids.
// Each chunk touches only its own entries in stats.
func (st *state) collectPostStats(chunk []uint, viewerID uint, stats map[uint]*postStats) error {
	likes, err := whereIn(st.likes, func(l models.Like) uint { return l.PostID }, chunk)
	if err != nil {
		return err
	}
	for _, l := range likes {
		stats[l.PostID].likes++
		if viewerID != 0 && l.UserID == viewerID {
			stats[l.PostID].liked = true
		}
	}

	comments, err := whereIn(st.comments, func(c models.Comment) uint { return c.PostID }, chunk)
	if err != nil {
		return err
	}
	for _, c := range comments {
		stats[c.PostID].comments++
	}

	views, err := whereIn(st.views, func(v models.View) uint { return v.PostID }, chunk)
	if err != nil {
		return err
	}
	for _, v := range views {
		stats[v.PostID].views++
	}

	if viewerID != 0 {
		bookmarks, err := whereIn(st.bookmarks, func(b models.Bookmark) uint { return b.PostID }, chunk)
		if err != nil {
			return err
		}
		for _, b := range bookmarks {
			if b.UserID == viewerID {
				stats[b.PostID].bookmarked = true
			}
		}
	}

	links, err := whereIn(st.postTags, func(pt models.PostTag) uint { return pt.PostID }, chunk)
	if err != nil {
		return err
	}
	for _, link := range links {
		stats[link.PostID].tagIDs = append(stats[link.PostID].tagIDs, link.TagID)
	}
	return nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post, tagNames []string) error {
	defer observability.TrackQuery(backendName, "post.update")()

	return r.s.update(func(st *state) error {
		doc, ok := st.posts[post.ID]
		if !ok {
			return notFound("post", post.ID)
		}
		doc.Title = post.Title
		doc.Content = post.Content
		doc.Category = post.Category
		doc.UpdatedAt = database.Now()
		st.posts[post.ID] = doc

		if tagNames != nil {
			for id, link := range st.postTags {
				if link.PostID == post.ID {
					delete(st.postTags, id)
				}
			}
			st.linkTags(post.ID, st.findOrCreateTags(tagNames))
		}
		return nil
	})
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery(backendName, "post.delete")()

	var (
		commentIDs []uint
		likeIDs    []string
		viewIDs    []string
		bookIDs    []string
		linkIDs    []string
	)
	err := r.s.read(func(st *state) error {
		if _, ok := st.posts[id]; !ok {
			return notFound("post", id)
		}
		for _, c := range st.comments {
			if c.PostID == id {
				commentIDs = append(commentIDs, c.ID)
			}
		}
		for docID, l := range st.likes {
			if l.PostID == id {
				likeIDs = append(likeIDs, docID)
			}
		}
		for docID, v := range st.views {
			if v.PostID == id {
				viewIDs = append(viewIDs, docID)
			}
		}
		for docID, b := range st.bookmarks {
			if b.PostID == id {
				bookIDs = append(bookIDs, docID)
			}
		}
		for docID, link := range st.postTags {
			if link.PostID == id {
				linkIDs = append(linkIDs, docID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	commentLikeIDs, err := r.s.commentLikeDocIDs(ctx, commentIDs)
	if err != nil {
		return err
	}

	batch := r.s.Batch()
	for _, docID := range commentLikeIDs {
		batch.add(func(st *state) { delete(st.commentLikes, docID) })
	}
	for _, cid := range commentIDs {
		batch.add(func(st *state) { delete(st.comments, cid) })
	}
	for _, docID := range likeIDs {
		batch.add(func(st *state) { delete(st.likes, docID) })
	}
	for _, docID := range viewIDs {
		batch.add(func(st *state) { delete(st.views, docID) })
	}
	for _, docID := range bookIDs {
		batch.add(func(st *state) { delete(st.bookmarks, docID) })
	}
	for _, docID := range linkIDs {
		batch.add(func(st *state) { delete(st.postTags, docID) })
	}
	batch.add(func(st *state) { delete(st.posts, id) })
	if err := batch.Commit(ctx); err != nil {
		return err
	}

	postLog.LogCascade(ctx, id, map[string]int{
		"comments":      len(commentIDs),
		"comment_likes": len(commentLikeIDs),
		"likes":         len(likeIDs),
		"views":         len(viewIDs),
		"bookmarks":     len(bookIDs),
		"post_tags":     len(linkIDs),
	})
	return nil
}

// commentLikeDocIDs finds the like documents of the given comments.
func (s *Store) commentLikeDocIDs(ctx context.Context, commentIDs []uint) ([]string, error) {
	var mu sync.Mutex
	var out []string
	err := fanOut(ctx, commentIDs, func(_ context.Context, chunk []uint) error {
		return s.read(func(st *state) error {
			likes, err := whereIn(st.commentLikes, func(l models.CommentLike) uint { return l.CommentID }, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, l := range likes {
				out = append(out, joinID(l.CommentID, l.UserID))
			}
			return nil
		})
	})
	return out, err
}

func (r *postRepository) setFlag(id uint, apply func(p *models.Post)) error {
	return r.s.update(func(st *state) error {
		doc, ok := st.posts[id]
		if !ok {
			return notFound("post", id)
		}
		apply(&doc)
		st.posts[id] = doc
		return nil
	})
}

func (r *postRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	return r.setFlag(id, func(p *models.Post) { p.Archived = archived })
}

func (r *postRepository) SetPinned(ctx context.Context, id uint, pinned bool) error {
	return r.setFlag(id, func(p *models.Post) { p.Pinned = pinned })
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var ok bool
	err := r.s.read(func(st *state) error {
		_, ok = st.likes[joinID(postID, userID)]
		return nil
	})
	return ok, err
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	return r.s.update(func(st *state) error {
		id := joinID(postID, userID)
		if _, ok := st.likes[id]; !ok {
			st.likes[id] = models.Like{UserID: userID, PostID: postID, CreatedAt: database.Now()}
		}
		return nil
	})
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	return r.s.update(func(st *state) error {
		delete(st.likes, joinID(postID, userID))
		return nil
	})
}

func (r *postRepository) RecordView(ctx context.Context, userID, postID uint) (bool, error) {
	var created bool
	err := r.s.update(func(st *state) error {
		id := joinID(postID, userID)
		if _, ok := st.views[id]; ok {
			return nil
		}
		st.views[id] = models.View{UserID: userID, PostID: postID, CreatedAt: database.Now()}
		created = true
		return nil
	})
	return created, err
}

func (r *postRepository) IsBookmarked(ctx context.Context, userID, postID uint) (bool, error) {
	var ok bool
	err := r.s.read(func(st *state) error {
		_, ok = st.bookmarks[joinID(postID, userID)]
		return nil
	})
	return ok, err
}

func (r *postRepository) Bookmark(ctx context.Context, userID, postID uint) error {
	return r.s.update(func(st *state) error {
		id := joinID(postID, userID)
		if _, ok := st.bookmarks[id]; !ok {
			st.bookmarks[id] = models.Bookmark{UserID: userID, PostID: postID, CreatedAt: database.Now()}
		}
		return nil
	})
}

func (r *postRepository) Unbookmark(ctx context.Context, userID, postID uint) error {
	return r.s.update(func(st *state) error {
		delete(st.bookmarks, joinID(postID, userID))
		return nil
	})
}
