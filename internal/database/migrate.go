package database

import (
	"fmt"

	"ainews/internal/models"

	"gorm.io/gorm"
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&models.Profile{},
		&models.Tag{},
		&models.Post{},
		&models.PostTag{},
		&models.Comment{},
		&models.Like{},
		&models.CommentLike{},
		&models.View{},
		&models.Bookmark{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
