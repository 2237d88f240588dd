package service

import (
	"context"
	"strings"
	"testing"

	"ainews/internal/models"
	"ainews/internal/repository/repotest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBuildTree(t *testing.T) {
	flat := []*models.Comment{
		{ID: 1, Content: "root a"},
		{ID: 2, Content: "root b"},
		{ID: 3, Content: "a.1", ParentID: ptr(uint(1))},
		{ID: 4, Content: "a.1.1", ParentID: ptr(uint(3))},
		{ID: 5, Content: "a.2", ParentID: ptr(uint(1))},
		{ID: 6, Content: "orphan", ParentID: ptr(uint(99))},
	}

	want := []*models.Comment{
		{ID: 1, Content: "root a", Replies: []*models.Comment{
			{ID: 3, Content: "a.1", ParentID: ptr(uint(1)), Replies: []*models.Comment{
				{ID: 4, Content: "a.1.1", ParentID: ptr(uint(3))},
			}},
			{ID: 5, Content: "a.2", ParentID: ptr(uint(1))},
		}},
		{ID: 2, Content: "root b"},
		{ID: 6, Content: "orphan", ParentID: ptr(uint(99))},
	}

	got := BuildTree(flat)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("BuildTree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTree_Empty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
}

type commentFixture struct {
	svc     *CommentService
	posts   *PostService
	author  *models.Profile
	other   *models.Profile
	teacher *models.Profile
	post    *models.Post
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	stores := newStores(t)
	f := &commentFixture{
		svc:     NewCommentService(stores.Comments, stores.Posts, stores.Profiles),
		posts:   NewPostService(stores.Posts, stores.Profiles, newFlags(t, "")),
		author:  repotest.MustProfile(t, stores, "author", models.RoleStudent),
		other:   repotest.MustProfile(t, stores, "other", models.RoleStudent),
		teacher: repotest.MustProfile(t, stores, "teacher", models.RoleTeacher),
	}
	f.post = repotest.MustPost(t, stores, f.author.ID, "thread")
	return f
}

func (f *commentFixture) comment(t *testing.T, author *models.Profile, parent *models.Comment, content string) *models.Comment {
	t.Helper()
	in := CreateCommentInput{AuthorID: author.ID, PostID: f.post.ID, Content: content}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	c, err := f.svc.CreateComment(context.Background(), in)
	require.NoError(t, err)
	return c
}

func TestCreateComment_Validation(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateComment(ctx, CreateCommentInput{AuthorID: f.author.ID, PostID: f.post.ID, Content: "  "})
	assertCode(t, err, models.CodeValidation)

	_, err = f.svc.CreateComment(ctx, CreateCommentInput{AuthorID: f.author.ID, PostID: f.post.ID, Content: strings.Repeat("x", 10001)})
	assertCode(t, err, models.CodeValidation)

	_, err = f.svc.CreateComment(ctx, CreateCommentInput{AuthorID: f.author.ID, PostID: 999, Content: "hi"})
	assertCode(t, err, models.CodeNotFound)

	_, err = f.svc.CreateComment(ctx, CreateCommentInput{AuthorID: f.author.ID, PostID: f.post.ID, ParentID: ptr(uint(999)), Content: "hi"})
	assertCode(t, err, models.CodeNotFound)
}

func TestCreateComment_ParentMustShareThePost(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	root := f.comment(t, f.author, nil, "root")

	otherPost, err := f.posts.CreatePost(ctx, CreatePostInput{
		AuthorID: f.other.ID, Title: "elsewhere", Content: "c", Category: models.CategoryDiscussions,
	})
	require.NoError(t, err)

	_, err = f.svc.CreateComment(ctx, CreateCommentInput{
		AuthorID: f.other.ID, PostID: otherPost.ID, ParentID: &root.ID, Content: "cross-post reply",
	})
	assertCode(t, err, models.CodeValidation)
}

func TestListComments_ReturnsThread(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	root := f.comment(t, f.author, nil, "root")
	reply := f.comment(t, f.other, root, "reply")
	f.comment(t, f.author, reply, "nested")
	f.comment(t, f.other, nil, "second root")

	tree, err := f.svc.ListComments(ctx, f.post.ID, 0)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "root", tree[0].Content)
	assert.Equal(t, "second root", tree[1].Content)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "reply", tree[0].Replies[0].Content)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, "nested", tree[0].Replies[0].Replies[0].Content)

	post, err := f.posts.GetPost(ctx, f.post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, post.CommentsCount)
}

func TestUpdateComment_AuthorOnly(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	c := f.comment(t, f.author, nil, "first draft")

	_, err := f.svc.UpdateComment(ctx, UpdateCommentInput{ActorID: f.teacher.ID, CommentID: c.ID, Content: "edited"})
	assertCode(t, err, models.CodeForbidden)

	updated, err := f.svc.UpdateComment(ctx, UpdateCommentInput{ActorID: f.author.ID, CommentID: c.ID, Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)

	_, err = f.svc.UpdateComment(ctx, UpdateCommentInput{ActorID: f.author.ID, CommentID: c.ID, Content: ""})
	assertCode(t, err, models.CodeValidation)
}

func TestDeleteComment_RemovesSubtree(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	root := f.comment(t, f.author, nil, "root")
	reply := f.comment(t, f.other, root, "reply")
	nested := f.comment(t, f.author, reply, "nested")
	keep := f.comment(t, f.other, nil, "keep")

	_, err := f.svc.ToggleCommentLike(ctx, f.other.ID, nested.ID)
	require.NoError(t, err)

	_, _, err = f.svc.DeleteComment(ctx, DeleteCommentInput{ActorID: f.other.ID, CommentID: root.ID})
	assertCode(t, err, models.CodeForbidden)

	deleted, removed, err := f.svc.DeleteComment(ctx, DeleteCommentInput{ActorID: f.teacher.ID, CommentID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, deleted.ID)
	assert.Equal(t, 3, removed)

	tree, err := f.svc.ListComments(ctx, f.post.ID, 0)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, keep.ID, tree[0].ID)

	_, err = f.svc.ToggleCommentLike(ctx, f.other.ID, nested.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestToggleCommentLike(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()
	c := f.comment(t, f.author, nil, "likeable")

	liked, err := f.svc.ToggleCommentLike(ctx, f.other.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikesCount)

	unliked, err := f.svc.ToggleCommentLike(ctx, f.other.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, unliked.Liked)
	assert.Equal(t, 0, unliked.LikesCount)

	_, err = f.svc.ToggleCommentLike(ctx, 0, c.ID)
	assertCode(t, err, models.CodeUnauthorized)
}
