package repository

import (
	"context"
	"strings"

	"ainews/internal/models"
	"ainews/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes search terms match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger(db.Dialector.Name(), "posts")}
}

func (r *postRepository) track(op string) func() {
	return observability.TrackQuery(r.db.Dialector.Name(), "post."+op)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tagNames []string) error {
	defer r.track("create")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := findOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = nil
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := linkTags(tx, post.ID, tags); err != nil {
			return err
		}
		post.Tags = tags
		SortTags(post)
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogMutation(ctx, "create", "post_id", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	defer r.track("get")()

	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		Preload("Tags").
		First(&post, id).Error
	if err != nil {
		return nil, translate(err)
	}
	SortTags(&post)
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, viewerID uint) (*PostPage, error) {
	defer r.track("list")()

	q := r.applyPostDetails(r.db.WithContext(ctx).Model(&models.Post{}), viewerID).
		Preload("Author").
		Preload("Tags").
		Where("posts.archived = ?", filter.Archived)

	if filter.Category != "" {
		q = q.Where("posts.category = ?", filter.Category)
	}
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.Tag != "" {
		q = q.Where("posts.id IN (SELECT post_tags.post_id FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE tags.name = ?)", filter.Tag)
	}
	if filter.BookmarkedBy != 0 {
		q = q.Where("posts.id IN (SELECT bookmarks.post_id FROM bookmarks WHERE bookmarks.user_id = ?)", filter.BookmarkedBy)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		q = q.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.content) LIKE ? ESCAPE '\')`, like, like)
	}
	if filter.Cursor != "" {
		cur, err := DecodeCursor(filter.Cursor)
		if err != nil {
			return nil, err
		}
		q = applyCursor(q, cur)
	}

	size := filter.PageSize()
	var posts []*models.Post
	err := q.Order("posts.pinned DESC, posts.created_at DESC, posts.id DESC").
		Limit(size + 1).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		SortTags(p)
	}
	return Paginate(posts, size), nil
}

// applyCursor keeps rows that sort after the cursor in
// (pinned DESC, created_at DESC, id DESC) order.
func applyCursor(q *gorm.DB, c *PostCursor) *gorm.DB {
	after := "(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))"
	if c.Pinned {
		return q.Where("(posts.pinned = ? OR (posts.pinned = ? AND "+after+"))",
			false, true, c.CreatedAt, c.CreatedAt, c.ID)
	}
	return q.Where("posts.pinned = ? AND "+after, false, c.CreatedAt, c.CreatedAt, c.ID)
}

// applyPostDetails adds subqueries to fetch counts and viewer flags in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, " +
		"(SELECT COUNT(*) FROM views WHERE views.post_id = posts.id) AS views_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", "+
			"EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked, "+
			"EXISTS(SELECT 1 FROM bookmarks WHERE bookmarks.post_id = posts.id AND bookmarks.user_id = ?) AS bookmarked",
			viewerID, viewerID)
	}
	return db.Select(selectQuery + ", false AS liked, false AS bookmarked")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post, tagNames []string) error {
	defer r.track("update")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]any{
			"title":    post.Title,
			"content":  post.Content,
			"category": post.Category,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if tagNames == nil {
			return nil
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		tags, err := findOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		return linkTags(tx, post.ID, tags)
	})
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer r.track("delete")()

	removed := map[string]int{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}

		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			res := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{})
			if res.Error != nil {
				return res.Error
			}
			removed["comment_likes"] = int(res.RowsAffected)
		}

		dependents := []struct {
			name  string
			model any
		}{
			{"comments", &models.Comment{}},
			{"likes", &models.Like{}},
			{"views", &models.View{}},
			{"bookmarks", &models.Bookmark{}},
			{"post_tags", &models.PostTag{}},
		}
		for _, dep := range dependents {
			res := tx.Where("post_id = ?", id).Delete(dep.model)
			if res.Error != nil {
				return res.Error
			}
			removed[dep.name] = int(res.RowsAffected)
		}

		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return err
	}
	r.log.LogCascade(ctx, id, removed)
	return nil
}

func (r *postRepository) setFlag(ctx context.Context, id uint, column string, value bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) SetArchived(ctx context.Context, id uint, archived bool) error {
	defer r.track("set_archived")()
	return r.setFlag(ctx, id, "archived", archived)
}

func (r *postRepository) SetPinned(ctx context.Context, id uint, pinned bool) error {
	defer r.track("set_pinned")()
	return r.setFlag(ctx, id, "pinned", pinned)
}

func (r *postRepository) exists(ctx context.Context, model any, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return r.exists(ctx, &models.Like{}, userID, postID)
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	defer r.track("like")()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, PostID: postID}).Error
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	defer r.track("unlike")()
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
}

func (r *postRepository) RecordView(ctx context.Context, userID, postID uint) (bool, error) {
	defer r.track("record_view")()
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.View{UserID: userID, PostID: postID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) IsBookmarked(ctx context.Context, userID, postID uint) (bool, error) {
	return r.exists(ctx, &models.Bookmark{}, userID, postID)
}

func (r *postRepository) Bookmark(ctx context.Context, userID, postID uint) error {
	defer r.track("bookmark")()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{UserID: userID, PostID: postID}).Error
}

func (r *postRepository) Unbookmark(ctx context.Context, userID, postID uint) error {
	defer r.track("unbookmark")()
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Bookmark{}).Error
}
