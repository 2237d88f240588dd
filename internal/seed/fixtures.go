package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"ainews/internal/models"
	"ainews/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Fixtures is a hand-written data set, usually loaded from YAML:
//
//	profiles:
//	  - {username: ada, email: ada@example.com, password: "...", role: teacher}
//	posts:
//	  - author: ada
//	    title: Transformers explained
//	    category: materials
//	    tags: [AI, NLP]
//	    liked_by: [bob]
//	    comments:
//	      - {author: bob, content: Great read, replies: [{author: ada, content: Thanks}]}
type Fixtures struct {
	Profiles []ProfileFixture `yaml:"profiles"`
	Posts    []PostFixture    `yaml:"posts"`
}

type ProfileFixture struct {
	Username string      `yaml:"username"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
	FullName string      `yaml:"full_name"`
	Bio      string      `yaml:"bio"`
}

type PostFixture struct {
	Author       string           `yaml:"author"`
	Title        string           `yaml:"title"`
	Content      string           `yaml:"content"`
	Category     models.Category  `yaml:"category"`
	Tags         []string         `yaml:"tags"`
	Pinned       bool             `yaml:"pinned"`
	Archived     bool             `yaml:"archived"`
	LikedBy      []string         `yaml:"liked_by"`
	BookmarkedBy []string         `yaml:"bookmarked_by"`
	Comments     []CommentFixture `yaml:"comments"`
}

type CommentFixture struct {
	Author  string           `yaml:"author"`
	Content string           `yaml:"content"`
	Replies []CommentFixture `yaml:"replies"`
}

// ParseFixtures decodes YAML and checks that every reference resolves.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseFixtures(f)
}

func (fx *Fixtures) validate() error {
	known := make(map[string]bool, len(fx.Profiles))
	for i, p := range fx.Profiles {
		if p.Username == "" || p.Email == "" {
			return fmt.Errorf("profile %d: username and email are required", i)
		}
		if p.Role != "" && !p.Role.Valid() {
			return fmt.Errorf("profile %s: unknown role %q", p.Username, p.Role)
		}
		if known[p.Username] {
			return fmt.Errorf("profile %s: listed twice", p.Username)
		}
		known[p.Username] = true
	}

	var checkComments func(post string, cs []CommentFixture) error
	checkComments = func(post string, cs []CommentFixture) error {
		for _, c := range cs {
			if !known[c.Author] {
				return fmt.Errorf("post %q: comment author %q is not a listed profile", post, c.Author)
			}
			if err := checkComments(post, c.Replies); err != nil {
				return err
			}
		}
		return nil
	}

	for _, p := range fx.Posts {
		if !known[p.Author] {
			return fmt.Errorf("post %q: author %q is not a listed profile", p.Title, p.Author)
		}
		if !p.Category.Valid() {
			return fmt.Errorf("post %q: unknown category %q", p.Title, p.Category)
		}
		for _, u := range append(append([]string{}, p.LikedBy...), p.BookmarkedBy...) {
			if !known[u] {
				return fmt.Errorf("post %q: %q is not a listed profile", p.Title, u)
			}
		}
		if err := checkComments(p.Title, p.Comments); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the fixtures. Profiles without a password get DemoPassword.
func Apply(ctx context.Context, stores *repository.Stores, fx *Fixtures, bcryptCost int) (*Result, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	res := &Result{}
	ids := make(map[string]uint, len(fx.Profiles))

	for _, pf := range fx.Profiles {
		password := pf.Password
		if password == "" {
			password = DemoPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if err != nil {
			return res, fmt.Errorf("hash password for %s: %w", pf.Username, err)
		}
		role := pf.Role
		if role == "" {
			role = models.RoleStudent
		}
		p := &models.Profile{
			Username:     pf.Username,
			Email:        pf.Email,
			PasswordHash: string(hash),
			Role:         role,
			FullName:     pf.FullName,
			Bio:          pf.Bio,
			Preferences:  models.DefaultPreferences(),
		}
		if err := stores.Profiles.Create(ctx, p); err != nil {
			return res, fmt.Errorf("create profile %s: %w", pf.Username, err)
		}
		ids[pf.Username] = p.ID
		res.Profiles++
	}

	for _, pf := range fx.Posts {
		post := &models.Post{Title: pf.Title, Content: pf.Content, Category: pf.Category, AuthorID: ids[pf.Author]}
		if post.Content == "" {
			post.Content = pf.Title
		}
		if err := stores.Posts.Create(ctx, post, pf.Tags); err != nil {
			return res, fmt.Errorf("create post %q: %w", pf.Title, err)
		}
		res.Posts++

		if pf.Pinned {
			if err := stores.Posts.SetPinned(ctx, post.ID, true); err != nil {
				return res, err
			}
		}
		if pf.Archived {
			if err := stores.Posts.SetArchived(ctx, post.ID, true); err != nil {
				return res, err
			}
		}
		for _, u := range pf.LikedBy {
			if err := stores.Posts.Like(ctx, ids[u], post.ID); err != nil {
				return res, err
			}
			res.Likes++
		}
		for _, u := range pf.BookmarkedBy {
			if err := stores.Posts.Bookmark(ctx, ids[u], post.ID); err != nil {
				return res, err
			}
		}
		n, err := applyComments(ctx, stores, ids, post.ID, nil, pf.Comments)
		res.Comments += n
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func applyComments(ctx context.Context, stores *repository.Stores, ids map[string]uint, postID uint, parentID *uint, cs []CommentFixture) (int, error) {
	written := 0
	for _, cf := range cs {
		c := &models.Comment{PostID: postID, AuthorID: ids[cf.Author], ParentID: parentID, Content: cf.Content}
		if err := stores.Comments.Create(ctx, c); err != nil {
			return written, fmt.Errorf("create comment on post %d: %w", postID, err)
		}
		written++
		n, err := applyComments(ctx, stores, ids, postID, &c.ID, cf.Replies)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
