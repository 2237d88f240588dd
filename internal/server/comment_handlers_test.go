package server

import (
	"net/http"
	"testing"

	"ainews/internal/models"
	"ainews/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentThread(t *testing.T) {
	env := newTestEnv(t)
	author, authorToken := env.profile(t, "author", models.RoleStudent)
	_, replierToken := env.profile(t, "replier", models.RoleStudent)
	post := repotest.MustPost(t, env.stores, author.ID, "discuss")
	commentsPath := "/api/posts/" + itoa(post.ID) + "/comments"

	resp, raw := env.do(t, http.MethodPost, commentsPath, CommentRequest{Content: "root"}, authorToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	root := decode[models.Comment](t, raw)

	resp, raw = env.do(t, http.MethodPost, commentsPath, CommentRequest{Content: "reply", ParentID: &root.ID}, replierToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	reply := decode[models.Comment](t, raw)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)

	resp, raw = env.do(t, http.MethodGet, commentsPath, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	tree := decode[[]*models.Comment](t, raw)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "reply", tree[0].Replies[0].Content)

	resp, raw = env.do(t, http.MethodPost, "/api/comments/"+itoa(reply.ID)+"/like", nil, authorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.True(t, decode[models.Comment](t, raw).Liked)

	resp, _ = env.do(t, http.MethodPut, "/api/comments/"+itoa(root.ID), CommentRequest{Content: "hijack"}, replierToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = env.do(t, http.MethodPut, "/api/comments/"+itoa(root.ID), CommentRequest{Content: "edited root"}, authorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "edited root", decode[models.Comment](t, raw).Content)

	resp, raw = env.do(t, http.MethodDelete, "/api/comments/"+itoa(root.ID), nil, authorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	deleted := decode[map[string]int](t, raw)
	assert.Equal(t, 2, deleted["removed"])

	_, raw = env.do(t, http.MethodGet, commentsPath, nil, "")
	assert.Empty(t, decode[[]*models.Comment](t, raw))
}

func TestCreateComment_Errors(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.profile(t, "author", models.RoleStudent)
	post := repotest.MustPost(t, env.stores, author.ID, "discuss")

	resp, raw := env.do(t, http.MethodPost, "/api/posts/"+itoa(post.ID)+"/comments", CommentRequest{Content: "  "}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, errorCode(t, raw))

	resp, raw = env.do(t, http.MethodPost, "/api/posts/999/comments", CommentRequest{Content: "hi"}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, models.CodeNotFound, errorCode(t, raw))

	resp, raw = env.do(t, http.MethodDelete, "/api/comments/abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "Invalid comment ID")
}
