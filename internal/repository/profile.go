package repository

import (
	"context"

	"ainews/internal/models"
	"ainews/internal/observability"

	"gorm.io/gorm"
)

// profileRepository implements ProfileRepository
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) track(op string) func() {
	return observability.TrackQuery(r.db.Dialector.Name(), "profile."+op)
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	defer r.track("create")()
	if profile.Role == "" {
		profile.Role = models.RoleStudent
	}
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

func (r *profileRepository) getBy(ctx context.Context, column string, value any) (*models.Profile, error) {
	defer r.track("get")()
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	return r.getBy(ctx, "id", id)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getBy(ctx, "email", email)
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return r.getBy(ctx, "username", username)
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	defer r.track("update")()
	res := r.db.WithContext(ctx).Model(profile).
		Select(
			"username", "email", "full_name", "bio", "location", "website",
			"social_github", "social_twitter", "social_linkedin",
			"pref_theme", "pref_category", "pref_view_mode", "updated_at",
		).
		Updates(profile)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) UpdatePreferences(ctx context.Context, id uint, prefs models.Preferences) error {
	defer r.track("update_preferences")()
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(map[string]any{
		"pref_theme":     prefs.Theme,
		"pref_category":  prefs.Category,
		"pref_view_mode": prefs.ViewMode,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	defer r.track("set_role")()
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.Profile, error) {
	defer r.track("list")()
	q := r.db.WithContext(ctx).Order("id ASC")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var profiles []*models.Profile
	err := q.Find(&profiles).Error
	return profiles, err
}

// NewStores wires the relational implementations over one connection.
func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Profiles: NewProfileRepository(db),
		Tags:     NewTagRepository(db),
	}
}
