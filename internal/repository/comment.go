package repository

import (
	"context"

	"ainews/internal/models"
	"ainews/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// commentRepository implements CommentRepository
type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger(db.Dialector.Name(), "comments")}
}

func (r *commentRepository) track(op string) func() {
	return observability.TrackQuery(r.db.Dialector.Name(), "comment."+op)
}

func (r *commentRepository) applyCommentDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "comments.*, " +
		"(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) AS likes_count"
	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM comment_likes WHERE comment_likes.comment_id = comments.id AND comment_likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer r.track("create")()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogMutation(ctx, "create", "comment_id", comment.ID, "post_id", comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	defer r.track("get")()
	var comment models.Comment
	err := r.applyCommentDetails(r.db.WithContext(ctx), viewerID).
		Preload("Author").
		First(&comment, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error) {
	defer r.track("list")()
	var comments []*models.Comment
	err := r.applyCommentDetails(r.db.WithContext(ctx).Model(&models.Comment{}), viewerID).
		Preload("Author").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer r.track("update")()
	res := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		Updates(map[string]any{"content": comment.Content})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *commentRepository) CollectDescendantIDs(ctx context.Context, id uint) ([]uint, error) {
	return collectDescendants(r.db.WithContext(ctx), id)
}

// collectDescendants walks the reply tree breadth first, one query per level.
func collectDescendants(db *gorm.DB, rootID uint) ([]uint, error) {
	var out []uint
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		var next []uint
		if err := db.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &next).Error; err != nil {
			return nil, err
		}
		out = append(out, next...)
		frontier = next
	}
	return out, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) (int, error) {
	defer r.track("delete")()

	var deleted int
	removed := map[string]int{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Comment{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}

		descendants, err := collectDescendants(tx, id)
		if err != nil {
			return err
		}
		ids := append([]uint{id}, descendants...)

		res := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		removed["comment_likes"] = int(res.RowsAffected)

		res = tx.Where("id IN ?", ids).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		deleted = int(res.RowsAffected)
		removed["comments"] = deleted
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.LogCascade(ctx, id, removed)
	return deleted, nil
}

func (r *commentRepository) IsLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	return count > 0, err
}

func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) error {
	defer r.track("like")()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommentLike{UserID: userID, CommentID: commentID}).Error
}

func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) error {
	defer r.track("unlike")()
	return r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{}).Error
}
