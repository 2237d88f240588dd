package docstore

import (
	"context"
	"fmt"
	"sort"

	"ainews/internal/database"
	"ainews/internal/models"
	"ainews/internal/repository"
)

type profileRepository struct {
	s *Store
}

// checkUnique rejects a username or email held by another profile.
func (st *state) checkUnique(p *models.Profile) error {
	for _, other := range st.profiles {
		if other.ID == p.ID {
			continue
		}
		if other.Username == p.Username {
			return fmt.Errorf("username %q: %w", p.Username, repository.ErrDuplicate)
		}
		if other.Email == p.Email {
			return fmt.Errorf("email %q: %w", p.Email, repository.ErrDuplicate)
		}
	}
	return nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.s.update(func(st *state) error {
		if err := st.checkUnique(profile); err != nil {
			return err
		}
		if profile.Role == "" {
			profile.Role = models.RoleStudent
		}
		now := database.Now()
		profile.ID = st.nextID("profiles")
		profile.CreatedAt, profile.UpdatedAt = now, now
		st.profiles[profile.ID] = *profile
		return nil
	})
}

func (r *profileRepository) find(match func(p models.Profile) bool, what string) (*models.Profile, error) {
	var found *models.Profile
	err := r.s.read(func(st *state) error {
		for _, p := range st.profiles {
			if match(p) {
				found = &p
				return nil
			}
		}
		return fmt.Errorf("profile %s: %w", what, repository.ErrNotFound)
	})
	return found, err
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var found models.Profile
	err := r.s.read(func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return notFound("profile", id)
		}
		found = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.find(func(p models.Profile) bool { return p.Email == email }, email)
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return r.find(func(p models.Profile) bool { return p.Username == username }, username)
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.s.update(func(st *state) error {
		doc, ok := st.profiles[profile.ID]
		if !ok {
			return notFound("profile", profile.ID)
		}
		if err := st.checkUnique(profile); err != nil {
			return err
		}
		doc.Username = profile.Username
		doc.Email = profile.Email
		doc.FullName = profile.FullName
		doc.Bio = profile.Bio
		doc.Location = profile.Location
		doc.Website = profile.Website
		doc.Social = profile.Social
		doc.Preferences = profile.Preferences
		doc.UpdatedAt = database.Now()
		st.profiles[doc.ID] = doc
		return nil
	})
}

func (r *profileRepository) UpdatePreferences(ctx context.Context, id uint, prefs models.Preferences) error {
	return r.s.update(func(st *state) error {
		doc, ok := st.profiles[id]
		if !ok {
			return notFound("profile", id)
		}
		doc.Preferences = prefs
		doc.UpdatedAt = database.Now()
		st.profiles[id] = doc
		return nil
	})
}

func (r *profileRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	return r.s.update(func(st *state) error {
		doc, ok := st.profiles[id]
		if !ok {
			return notFound("profile", id)
		}
		doc.Role = role
		st.profiles[id] = doc
		return nil
	})
}

func (r *profileRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.Profile, error) {
	var out []*models.Profile
	err := r.s.read(func(st *state) error {
		for _, p := range st.profiles {
			if role == "" || p.Role == role {
				out = append(out, &p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}
