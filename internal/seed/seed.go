// Package seed fills a store with demo data for development and tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ainews/internal/database"
	"ainews/internal/models"
	"ainews/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the password every generated profile signs in with.
const DemoPassword = "Demo-Password-123"

var tagPool = []string{
	"AI", "LLM", "Machine Learning", "Computer Vision", "NLP", "Robotics",
	"Go", "Python", "Ethics", "Research", "Tutorial", "Open Source",
}

// Options controls how much data Run generates.
type Options struct {
	Profiles    int
	Posts       int
	MaxComments int
	// Seed makes the output reproducible; 0 picks a random seed.
	Seed int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Result counts what was written.
type Result struct {
	Profiles int
	Posts    int
	Comments int
	Likes    int
}

// Seeder generates fake profiles, posts and engagement.
type Seeder struct {
	stores *repository.Stores
	faker  *gofakeit.Faker
	opts   Options
}

func NewSeeder(stores *repository.Stores, opts Options) *Seeder {
	if opts.Profiles <= 0 {
		opts.Profiles = 10
	}
	if opts.Posts <= 0 {
		opts.Posts = 40
	}
	if opts.MaxComments < 0 {
		opts.MaxComments = 0
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{stores: stores, faker: gofakeit.New(opts.Seed), opts: opts}
}

// Run creates the profiles first (one teacher per five users, the rest
// students), then posts spread across every category, then comment threads
// and likes.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	res := &Result{}
	profiles := make([]*models.Profile, 0, s.opts.Profiles)
	for i := range s.opts.Profiles {
		p, err := s.createProfile(ctx, i, string(hash))
		if err != nil {
			return res, err
		}
		profiles = append(profiles, p)
		res.Profiles++
	}

	for i := range s.opts.Posts {
		author := profiles[s.faker.Number(0, len(profiles)-1)]
		post := s.buildPost(author.ID, models.Categories[i%len(models.Categories)])
		if err := s.stores.Posts.Create(ctx, post, s.pickTags()); err != nil {
			return res, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		n, err := s.seedThread(ctx, post.ID, profiles)
		if err != nil {
			return res, err
		}
		res.Comments += n

		for _, p := range profiles {
			if s.faker.Number(1, 100) > 30 {
				continue
			}
			if err := s.stores.Posts.Like(ctx, p.ID, post.ID); err != nil {
				return res, fmt.Errorf("like post: %w", err)
			}
			res.Likes++
		}
		if s.faker.Number(1, 100) <= 10 {
			if err := s.stores.Posts.SetPinned(ctx, post.ID, true); err != nil {
				return res, fmt.Errorf("pin post: %w", err)
			}
		}
	}

	slog.InfoContext(ctx, "demo data seeded",
		"profiles", res.Profiles, "posts", res.Posts, "comments", res.Comments, "likes", res.Likes)
	return res, nil
}

func (s *Seeder) createProfile(ctx context.Context, i int, hash string) (*models.Profile, error) {
	role := models.RoleStudent
	if i%5 == 0 {
		role = models.RoleTeacher
	}
	username := fmt.Sprintf("%s_%d", strings.ToLower(s.faker.FirstName()), i+1)
	p := &models.Profile{
		Username:     username,
		Email:        username + "@demo.ainews.local",
		PasswordHash: hash,
		Role:         role,
		FullName:     s.faker.Name(),
		Bio:          s.faker.Sentence(12),
		Location:     s.faker.City(),
		Preferences:  models.DefaultPreferences(),
	}
	if err := s.stores.Profiles.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile %s: %w", username, err)
	}
	return p, nil
}

func (s *Seeder) buildPost(authorID uint, category models.Category) *models.Post {
	// spread over the last 90 days so listings have a realistic order
	age := time.Duration(s.faker.Number(0, 90*24*60)) * time.Minute
	return &models.Post{
		Title:     strings.TrimSuffix(s.faker.HackerPhrase(), "!"),
		Content:   s.faker.Paragraph(3, 4, 12, "\n\n"),
		Category:  category,
		AuthorID:  authorID,
		CreatedAt: database.Now().Add(-age),
	}
}

func (s *Seeder) pickTags() []string {
	n := s.faker.Number(0, 3)
	seen := make(map[string]bool, n)
	tags := make([]string, 0, n)
	for range n {
		tag := tagPool[s.faker.Number(0, len(tagPool)-1)]
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// seedThread writes up to MaxComments comments; roughly a third reply to
// an earlier comment on the same post.
func (s *Seeder) seedThread(ctx context.Context, postID uint, profiles []*models.Profile) (int, error) {
	if s.opts.MaxComments == 0 {
		return 0, nil
	}
	n := s.faker.Number(0, s.opts.MaxComments)
	var written []uint
	for range n {
		c := &models.Comment{
			PostID:   postID,
			AuthorID: profiles[s.faker.Number(0, len(profiles)-1)].ID,
			Content:  s.faker.Sentence(s.faker.Number(4, 20)),
		}
		if len(written) > 0 && s.faker.Number(1, 3) == 1 {
			parent := written[s.faker.Number(0, len(written)-1)]
			c.ParentID = &parent
		}
		if err := s.stores.Comments.Create(ctx, c); err != nil {
			return len(written), fmt.Errorf("create comment: %w", err)
		}
		written = append(written, c.ID)
	}
	return len(written), nil
}
