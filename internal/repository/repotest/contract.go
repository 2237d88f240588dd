// Package repotest holds behaviour checks shared by every repository backend.
package repotest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"ainews/internal/models"
	"ainews/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty set of repositories.
type Factory func(t *testing.T) *repository.Stores

// Run executes the whole contract against the backend built by newStores.
func Run(t *testing.T, newStores Factory) {
	t.Run("TagsRoundTrip", func(t *testing.T) { testTagsRoundTrip(t, newStores(t)) })
	t.Run("UpdateReplacesTags", func(t *testing.T) { testUpdateReplacesTags(t, newStores(t)) })
	t.Run("DeletePostCascades", func(t *testing.T) { testDeletePostCascades(t, newStores(t)) })
	t.Run("PinRoundTrip", func(t *testing.T) { testPinRoundTrip(t, newStores(t)) })
	t.Run("ArchiveVisibility", func(t *testing.T) { testArchiveVisibility(t, newStores(t)) })
	t.Run("LikeIsIdempotent", func(t *testing.T) { testLikeIsIdempotent(t, newStores(t)) })
	t.Run("RecordViewOnce", func(t *testing.T) { testRecordViewOnce(t, newStores(t)) })
	t.Run("CursorPagination", func(t *testing.T) { testCursorPagination(t, newStores(t)) })
	t.Run("ListFilters", func(t *testing.T) { testListFilters(t, newStores(t)) })
	t.Run("AuthorSummary", func(t *testing.T) { testAuthorSummary(t, newStores(t)) })
	t.Run("SearchIsLiteral", func(t *testing.T) { testSearchIsLiteral(t, newStores(t)) })
	t.Run("Bookmarks", func(t *testing.T) { testBookmarks(t, newStores(t)) })
	t.Run("CommentSubtreeDelete", func(t *testing.T) { testCommentSubtreeDelete(t, newStores(t)) })
	t.Run("CommentLikes", func(t *testing.T) { testCommentLikes(t, newStores(t)) })
	t.Run("ProfileUniqueness", func(t *testing.T) { testProfileUniqueness(t, newStores(t)) })
	t.Run("ProfileRolesAndPreferences", func(t *testing.T) { testProfileRolesAndPreferences(t, newStores(t)) })
	t.Run("PopularTags", func(t *testing.T) { testPopularTags(t, newStores(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStores(t)) })
}

// MustProfile creates a profile with the given username.
func MustProfile(t *testing.T, s *repository.Stores, username string, role models.Role) *models.Profile {
	t.Helper()
	p := &models.Profile{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, s.Profiles.Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

// MustPost creates a post in the news category.
func MustPost(t *testing.T, s *repository.Stores, authorID uint, title string, tags ...string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: "content of " + title, Category: models.CategoryNews, AuthorID: authorID}
	require.NoError(t, s.Posts.Create(context.Background(), p, tags))
	require.NotZero(t, p.ID)
	return p
}

func listIDs(t *testing.T, s *repository.Stores, f repository.PostFilter, viewer uint) []uint {
	t.Helper()
	page, err := s.Posts.List(context.Background(), f, viewer)
	require.NoError(t, err)
	ids := make([]uint, 0, len(page.Posts))
	for _, p := range page.Posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func testTagsRoundTrip(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	a := MustPost(t, s, author.ID, "first", "News", "AI")
	b := MustPost(t, s, author.ID, "second", "AI", "News")

	for _, id := range []uint{a.ID, b.ID} {
		got, err := s.Posts.GetByID(ctx, id, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"AI", "News"}, got.TagNames())
		require.NotNil(t, got.Author)
		assert.Equal(t, "author", got.Author.Username)
	}

	popular, err := s.Tags.ListPopular(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, popular, 2, "tags are shared by name, not duplicated")
}

func testUpdateReplacesTags(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	p := MustPost(t, s, author.ID, "post", "AI", "News")

	p.Title = "edited"
	require.NoError(t, s.Posts.Update(ctx, p, nil))
	got, err := s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.Equal(t, []string{"AI", "News"}, got.TagNames(), "nil tags keep the current set")

	require.NoError(t, s.Posts.Update(ctx, p, []string{"Go"}))
	got, err = s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got.TagNames())

	require.NoError(t, s.Posts.Update(ctx, p, []string{}))
	got, err = s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func testDeletePostCascades(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	reader := MustProfile(t, s, "reader", models.RoleStudent)
	p := MustPost(t, s, author.ID, "doomed", "AI")
	other := MustPost(t, s, author.ID, "survivor", "AI")

	root := &models.Comment{PostID: p.ID, AuthorID: reader.ID, Content: "root"}
	require.NoError(t, s.Comments.Create(ctx, root))
	reply := &models.Comment{PostID: p.ID, AuthorID: author.ID, Content: "reply", ParentID: &root.ID}
	require.NoError(t, s.Comments.Create(ctx, reply))
	keep := &models.Comment{PostID: other.ID, AuthorID: reader.ID, Content: "elsewhere"}
	require.NoError(t, s.Comments.Create(ctx, keep))

	for _, uid := range []uint{author.ID, reader.ID} {
		require.NoError(t, s.Posts.Like(ctx, uid, p.ID))
		require.NoError(t, s.Comments.Like(ctx, uid, root.ID))
		require.NoError(t, s.Comments.Like(ctx, uid, reply.ID))
	}
	require.NoError(t, s.Comments.Like(ctx, reader.ID, keep.ID))
	_, err := s.Posts.RecordView(ctx, reader.ID, p.ID)
	require.NoError(t, err)
	require.NoError(t, s.Posts.Bookmark(ctx, reader.ID, p.ID))

	require.NoError(t, s.Posts.Delete(ctx, p.ID))

	_, err = s.Posts.GetByID(ctx, p.ID, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	comments, err := s.Comments.ListByPost(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, comments)
	for _, cid := range []uint{root.ID, reply.ID} {
		_, err := s.Comments.GetByID(ctx, cid, 0)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		liked, err := s.Comments.IsLiked(ctx, reader.ID, cid)
		require.NoError(t, err)
		assert.False(t, liked)
	}
	liked, err := s.Posts.IsLiked(ctx, reader.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	bookmarked, err := s.Posts.IsBookmarked(ctx, reader.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, bookmarked)

	survivor, err := s.Posts.GetByID(ctx, other.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, survivor.CommentsCount)
	assert.Equal(t, []string{"AI"}, survivor.TagNames())
	kept, err := s.Comments.GetByID(ctx, keep.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.LikesCount)

	assert.ErrorIs(t, s.Posts.Delete(ctx, p.ID), repository.ErrNotFound)
}

func testPinRoundTrip(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleTeacher)
	p := MustPost(t, s, author.ID, "pin me")

	for _, want := range []bool{true, false} {
		require.NoError(t, s.Posts.SetPinned(ctx, p.ID, want))
		got, err := s.Posts.GetByID(ctx, p.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got.Pinned)
	}
	assert.ErrorIs(t, s.Posts.SetPinned(ctx, 999999, true), repository.ErrNotFound)
}

func testArchiveVisibility(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	p := MustPost(t, s, author.ID, "archivable")
	q := MustPost(t, s, author.ID, "always visible")

	assert.ElementsMatch(t, []uint{p.ID, q.ID}, listIDs(t, s, repository.PostFilter{}, 0))

	require.NoError(t, s.Posts.SetArchived(ctx, p.ID, true))
	assert.Equal(t, []uint{q.ID}, listIDs(t, s, repository.PostFilter{}, 0))
	assert.Equal(t, []uint{p.ID}, listIDs(t, s, repository.PostFilter{Archived: true}, 0))

	require.NoError(t, s.Posts.SetArchived(ctx, p.ID, false))
	assert.ElementsMatch(t, []uint{p.ID, q.ID}, listIDs(t, s, repository.PostFilter{}, 0))
}

func testLikeIsIdempotent(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	reader := MustProfile(t, s, "reader", models.RoleStudent)
	p := MustPost(t, s, author.ID, "likeable")

	require.NoError(t, s.Posts.Like(ctx, reader.ID, p.ID))
	require.NoError(t, s.Posts.Like(ctx, reader.ID, p.ID))
	got, err := s.Posts.GetByID(ctx, p.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	anon, err := s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.Liked)

	require.NoError(t, s.Posts.Unlike(ctx, reader.ID, p.ID))
	require.NoError(t, s.Posts.Unlike(ctx, reader.ID, p.ID))
	got, err = s.Posts.GetByID(ctx, p.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.False(t, got.Liked)
}

func testRecordViewOnce(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	reader := MustProfile(t, s, "reader", models.RoleStudent)
	p := MustPost(t, s, author.ID, "viewed")

	first, err := s.Posts.RecordView(ctx, reader.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := s.Posts.RecordView(ctx, reader.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, again)
	_, err = s.Posts.RecordView(ctx, author.ID, p.ID)
	require.NoError(t, err)

	got, err := s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewsCount)
}

func testCursorPagination(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleTeacher)

	var all []*models.Post
	for i := 0; i < 25; i++ {
		all = append(all, MustPost(t, s, author.ID, fmt.Sprintf("post %02d", i)))
		time.Sleep(time.Millisecond)
	}
	pinned := all[3]
	require.NoError(t, s.Posts.SetPinned(ctx, pinned.ID, true))

	var seen []uint
	cursor := ""
	pages := 0
	for {
		page, err := s.Posts.List(ctx, repository.PostFilter{Limit: 10, Cursor: cursor}, 0)
		require.NoError(t, err)
		pages++
		for _, p := range page.Posts {
			seen = append(seen, p.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
		require.Less(t, pages, 10, "pagination does not terminate")
	}

	assert.Equal(t, 3, pages)
	require.Len(t, seen, 25)
	expected := []uint{pinned.ID}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ID != pinned.ID {
			expected = append(expected, all[i].ID)
		}
	}
	assert.Equal(t, expected, seen, "pinned first, then newest first")

	_, err := s.Posts.List(ctx, repository.PostFilter{Cursor: "%%%"}, 0)
	assert.ErrorIs(t, err, repository.ErrInvalidCursor)
}

func testListFilters(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	alice := MustProfile(t, s, "alice", models.RoleStudent)
	bob := MustProfile(t, s, "bob", models.RoleStudent)

	news := MustPost(t, s, alice.ID, "Transformers explained", "AI")
	ideas := &models.Post{Title: "Build a chatbot", Content: "a weekend project", Category: models.CategoryProjectIdeas, AuthorID: bob.ID}
	require.NoError(t, s.Posts.Create(ctx, ideas, []string{"AI", "Projects"}))
	other := MustPost(t, s, bob.ID, "Weekly digest")

	assert.Equal(t, []uint{ideas.ID}, listIDs(t, s, repository.PostFilter{Category: models.CategoryProjectIdeas}, 0))
	assert.ElementsMatch(t, []uint{news.ID}, listIDs(t, s, repository.PostFilter{AuthorID: alice.ID}, 0))
	assert.ElementsMatch(t, []uint{news.ID, ideas.ID}, listIDs(t, s, repository.PostFilter{Tag: "AI"}, 0))
	assert.Empty(t, listIDs(t, s, repository.PostFilter{Tag: "missing"}, 0))
	assert.ElementsMatch(t, []uint{ideas.ID}, listIDs(t, s, repository.PostFilter{Search: "WEEKEND"}, 0))
	assert.ElementsMatch(t, []uint{other.ID}, listIDs(t, s, repository.PostFilter{Search: "digest"}, 0))
}

func testAuthorSummary(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleTeacher)
	p := MustPost(t, s, author.ID, "post")
	c := &models.Comment{PostID: p.ID, AuthorID: author.ID, Content: "hello"}
	require.NoError(t, s.Comments.Create(ctx, c))

	want := &models.AuthorSummary{ID: author.ID, Username: "author", Role: models.RoleTeacher}
	gotPost, err := s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, want, gotPost.Author)

	page, err := s.Posts.List(ctx, repository.PostFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, want, page.Posts[0].Author)

	comments, err := s.Comments.ListByPost(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, want, comments[0].Author)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), author.Email)
}

func testSearchIsLiteral(t *testing.T, s *repository.Stores) {
	author := MustProfile(t, s, "author", models.RoleStudent)
	plain := MustPost(t, s, author.ID, "plain title")
	snake := MustPost(t, s, author.ID, "snake_case tips")
	percent := MustPost(t, s, author.ID, "100% accurate")
	slash := MustPost(t, s, author.ID, `C:\models`)

	assert.Equal(t, []uint{snake.ID}, listIDs(t, s, repository.PostFilter{Search: "_"}, 0))
	assert.Equal(t, []uint{percent.ID}, listIDs(t, s, repository.PostFilter{Search: "%"}, 0))
	assert.Equal(t, []uint{slash.ID}, listIDs(t, s, repository.PostFilter{Search: `\`}, 0))
	assert.Equal(t, []uint{plain.ID}, listIDs(t, s, repository.PostFilter{Search: "n t"}, 0))
}

func testBookmarks(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	reader := MustProfile(t, s, "reader", models.RoleStudent)
	a := MustPost(t, s, author.ID, "a")
	MustPost(t, s, author.ID, "b")

	require.NoError(t, s.Posts.Bookmark(ctx, reader.ID, a.ID))
	require.NoError(t, s.Posts.Bookmark(ctx, reader.ID, a.ID))

	page, err := s.Posts.List(ctx, repository.PostFilter{BookmarkedBy: reader.ID}, reader.ID)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, a.ID, page.Posts[0].ID)
	assert.True(t, page.Posts[0].Bookmarked)

	require.NoError(t, s.Posts.Unbookmark(ctx, reader.ID, a.ID))
	assert.Empty(t, listIDs(t, s, repository.PostFilter{BookmarkedBy: reader.ID}, reader.ID))
}

func testCommentSubtreeDelete(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	p := MustPost(t, s, author.ID, "thread")

	add := func(content string, parent *models.Comment) *models.Comment {
		c := &models.Comment{PostID: p.ID, AuthorID: author.ID, Content: content}
		if parent != nil {
			c.ParentID = &parent.ID
		}
		require.NoError(t, s.Comments.Create(ctx, c))
		return c
	}
	root := add("root", nil)
	child := add("child", root)
	grandchild := add("grandchild", child)
	sibling := add("sibling", root)
	unrelated := add("unrelated", nil)
	require.NoError(t, s.Comments.Like(ctx, author.ID, grandchild.ID))
	require.NoError(t, s.Comments.Like(ctx, author.ID, unrelated.ID))

	descendants, err := s.Comments.CollectDescendantIDs(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{child.ID, grandchild.ID, sibling.ID}, descendants)

	n, err := s.Comments.Delete(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.Comments.ListByPost(ctx, p.ID, author.ID)
	require.NoError(t, err)
	var ids []uint
	for _, c := range left {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []uint{root.ID, sibling.ID, unrelated.ID}, ids, "creation order is kept")
	assert.True(t, left[2].Liked)

	liked, err := s.Comments.IsLiked(ctx, author.ID, grandchild.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err := s.Posts.GetByID(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CommentsCount)

	_, err = s.Comments.Delete(ctx, child.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testCommentLikes(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	p := MustPost(t, s, author.ID, "post")
	c := &models.Comment{PostID: p.ID, AuthorID: author.ID, Content: "hello"}
	require.NoError(t, s.Comments.Create(ctx, c))

	require.NoError(t, s.Comments.Like(ctx, author.ID, c.ID))
	require.NoError(t, s.Comments.Like(ctx, author.ID, c.ID))
	got, err := s.Comments.GetByID(ctx, c.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)
	require.NotNil(t, got.Author)

	c.Content = "edited"
	require.NoError(t, s.Comments.Update(ctx, c))
	require.NoError(t, s.Comments.Unlike(ctx, author.ID, c.ID))
	got, err = s.Comments.GetByID(ctx, c.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, 0, got.LikesCount)
}

func testProfileUniqueness(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	MustProfile(t, s, "taken", models.RoleStudent)

	dupName := &models.Profile{Username: "taken", Email: "other@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, s.Profiles.Create(ctx, dupName), repository.ErrDuplicate)

	dupEmail := &models.Profile{Username: "other", Email: "taken@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, s.Profiles.Create(ctx, dupEmail), repository.ErrDuplicate)

	second := MustProfile(t, s, "second", "")
	assert.Equal(t, models.RoleStudent, second.Role)
	second.Username = "taken"
	assert.ErrorIs(t, s.Profiles.Update(ctx, second), repository.ErrDuplicate)
}

func testProfileRolesAndPreferences(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	p := MustProfile(t, s, "student", models.RoleStudent)
	MustProfile(t, s, "teacher", models.RoleTeacher)

	require.NoError(t, s.Profiles.SetRole(ctx, p.ID, models.RoleAdmin))
	admins, err := s.Profiles.ListByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, p.ID, admins[0].ID)

	everyone, err := s.Profiles.ListByRole(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	prefs := models.Preferences{Theme: models.ThemeDark, Category: string(models.CategoryNews), ViewMode: models.ViewModeList}
	require.NoError(t, s.Profiles.UpdatePreferences(ctx, p.ID, prefs))

	got, err := s.Profiles.GetByUsername(ctx, "student")
	require.NoError(t, err)
	assert.Equal(t, prefs, got.Preferences)
	assert.Equal(t, models.RoleAdmin, got.Role)

	got.Bio = "hello"
	got.Social.Github = "https://github.com/student"
	require.NoError(t, s.Profiles.Update(ctx, got))
	byEmail, err := s.Profiles.GetByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hello", byEmail.Bio)
	assert.Equal(t, "https://github.com/student", byEmail.Social.Github)
	assert.Equal(t, models.RoleAdmin, byEmail.Role, "profile update leaves the role alone")
}

func testPopularTags(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	author := MustProfile(t, s, "author", models.RoleStudent)
	MustPost(t, s, author.ID, "1", "AI", "Go")
	MustPost(t, s, author.ID, "2", "AI")
	MustPost(t, s, author.ID, "3", "AI", "Go", "Rust")

	popular, err := s.Tags.ListPopular(ctx, 2)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "AI", popular[0].Name)
	assert.Equal(t, 3, popular[0].PostCount)
	assert.Equal(t, "Go", popular[1].Name)

	tags, err := s.Tags.FindOrCreate(ctx, []string{"Go", "Python"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, popular[1].ID, tags[0].ID)
	assert.NotZero(t, tags[1].ID)
}

func testNotFound(t *testing.T, s *repository.Stores) {
	ctx := context.Background()
	_, err := s.Posts.GetByID(ctx, 42, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Posts.Update(ctx, &models.Post{ID: 42, Title: "x"}, nil), repository.ErrNotFound)
	_, err = s.Comments.GetByID(ctx, 42, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Comments.Update(ctx, &models.Comment{ID: 42}), repository.ErrNotFound)
	_, err = s.Profiles.GetByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Profiles.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Profiles.SetRole(ctx, 42, models.RoleAdmin), repository.ErrNotFound)
}
