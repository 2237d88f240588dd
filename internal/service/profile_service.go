package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"ainews/internal/cache"
	"ainews/internal/models"
	"ainews/internal/repository"
	"ainews/internal/validation"
)

const (
	maxBioLen      = 500
	maxFullNameLen = 120
	maxLocationLen = 120
)

type ProfileService struct {
	profiles repository.ProfileRepository
}

// UpdateProfileInput carries the fields to change; nil keeps a field and an
// empty string clears an optional one.
type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Email    *string
	FullName *string
	Bio      *string
	Location *string
	Website  *string
	Social   *models.SocialLinks
}

func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// GetProfile returns the full profile. Callers strip private fields with
// Public before showing it to anyone but its owner.
func (s *ProfileService) GetProfile(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(id), &profile, cache.ProfileTTL, func() error {
		p, err := s.profiles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, appError(err, "Profile", id)
	}
	return &profile, nil
}

func checkLen(value string, limit int, message string) error {
	if utf8.RuneCountInString(value) > limit {
		return models.NewValidationError(message)
	}
	return nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	profile, err := loadActor(ctx, s.profiles, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Username = username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Email = email
	}
	if in.FullName != nil {
		if err := checkLen(*in.FullName, maxFullNameLen, "Full name too long (max 120 characters)"); err != nil {
			return nil, err
		}
		profile.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		if err := checkLen(*in.Bio, maxBioLen, "Bio too long (max 500 characters)"); err != nil {
			return nil, err
		}
		profile.Bio = *in.Bio
	}
	if in.Location != nil {
		if err := checkLen(*in.Location, maxLocationLen, "Location too long (max 120 characters)"); err != nil {
			return nil, err
		}
		profile.Location = strings.TrimSpace(*in.Location)
	}
	if in.Website != nil {
		website := strings.TrimSpace(*in.Website)
		if website != "" {
			if err := validation.ValidateHTTPURL(website); err != nil {
				return nil, models.NewValidationError("Website: " + err.Error())
			}
		}
		profile.Website = website
	}
	if in.Social != nil {
		for _, handle := range []string{in.Social.Github, in.Social.Twitter, in.Social.Linkedin} {
			if err := validation.ValidateSocialHandle(handle); err != nil {
				return nil, models.NewValidationError(err.Error())
			}
		}
		profile.Social = models.SocialLinks{
			Github:   strings.TrimSpace(in.Social.Github),
			Twitter:  strings.TrimSpace(in.Social.Twitter),
			Linkedin: strings.TrimSpace(in.Social.Linkedin),
		}
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, appError(err, "Profile", in.UserID)
	}
	cache.Invalidate(ctx, cache.ProfileKey(in.UserID))
	return profile, nil
}

// SetRole changes another profile's role. Only admins may do it.
func (s *ProfileService) SetRole(ctx context.Context, actorID, targetID uint, role models.Role) (*models.Profile, error) {
	actor, err := loadActor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if err := CanManageRoles(actor); err != nil {
		return nil, err
	}
	return s.AssignRole(ctx, targetID, role)
}

// AssignRole changes a role without an acting user, for operator tooling.
func (s *ProfileService) AssignRole(ctx context.Context, targetID uint, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}
	if err := s.profiles.SetRole(ctx, targetID, role); err != nil {
		return nil, appError(err, "Profile", targetID)
	}
	cache.Invalidate(ctx, cache.ProfileKey(targetID))
	p, err := s.profiles.GetByID(ctx, targetID)
	return p, appError(err, "Profile", targetID)
}

// ListProfiles lists profiles holding role, or every profile for "".
func (s *ProfileService) ListProfiles(ctx context.Context, role models.Role) ([]*models.Profile, error) {
	if role != "" && !role.Valid() {
		return nil, models.NewValidationError("Invalid role")
	}
	profiles, err := s.profiles.ListByRole(ctx, role)
	return profiles, appError(err, "Profile", 0)
}

// UpdatePreferences stores an explicit choice. Every field must be valid.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID uint, prefs models.Preferences) (models.Preferences, error) {
	if prefs.Theme == "" || prefs.Category == "" || prefs.ViewMode == "" {
		return models.Preferences{}, models.NewValidationError("theme, category and view_mode are required")
	}
	if err := ValidatePreferences(prefs); err != nil {
		return models.Preferences{}, err
	}
	if _, err := loadActor(ctx, s.profiles, userID); err != nil {
		return models.Preferences{}, err
	}
	if err := s.profiles.UpdatePreferences(ctx, userID, prefs); err != nil {
		return models.Preferences{}, appError(err, "Profile", userID)
	}
	cache.Invalidate(ctx, cache.ProfileKey(userID))
	return prefs, nil
}

// ReconcilePreferences merges the client-side copies with the stored
// profile settings and persists the winner when it differs.
func (s *ProfileService) ReconcilePreferences(ctx context.Context, userID uint, src PreferenceSources) (models.Preferences, error) {
	profile, err := loadActor(ctx, s.profiles, userID)
	if err != nil {
		return models.Preferences{}, err
	}
	stored := profile.Preferences
	src.Profile = &stored

	resolved := Reconcile(src)
	if resolved != stored {
		if err := s.profiles.UpdatePreferences(ctx, userID, resolved); err != nil {
			return models.Preferences{}, appError(err, "Profile", userID)
		}
		cache.Invalidate(ctx, cache.ProfileKey(userID))
	}
	return resolved, nil
}
