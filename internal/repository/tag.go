package repository

import (
	"context"

	"ainews/internal/models"
	"ainews/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	defer observability.TrackQuery(r.db.Dialector.Name(), "tag.find_or_create")()
	var tags []models.Tag
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tags, err = findOrCreateTags(tx, names)
		return err
	})
	return tags, err
}

func (r *tagRepository) ListPopular(ctx context.Context, limit int) ([]TagCount, error) {
	defer observability.TrackQuery(r.db.Dialector.Name(), "tag.popular")()
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var out []TagCount
	err := r.db.WithContext(ctx).
		Table("tags").
		Select("tags.id, tags.name, COUNT(post_tags.post_id) AS post_count").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("post_count DESC, tags.name ASC").
		Limit(limit).
		Scan(&out).Error
	if out == nil {
		out = []TagCount{}
	}
	return out, err
}

// findOrCreateTags returns one tag per name, creating the missing ones.
// Inserts ignore conflicts so concurrent creators converge on one row.
func findOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var existing []models.Tag
	if err := tx.Where("name IN ?", names).Find(&existing).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]models.Tag, len(existing))
	for _, t := range existing {
		byName[t.Name] = t
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := byName[name]; ok {
			tags = append(tags, t)
			continue
		}
		tag := models.Tag{Name: name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
			return nil, err
		}
		if tag.ID == 0 {
			if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
				return nil, err
			}
		}
		byName[name] = tag
		tags = append(tags, tag)
	}
	return tags, nil
}

func linkTags(tx *gorm.DB, postID uint, tags []models.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]models.PostTag, 0, len(tags))
	for _, t := range tags {
		links = append(links, models.PostTag{PostID: postID, TagID: t.ID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}
