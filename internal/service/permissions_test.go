package service

import (
	"testing"

	"ainews/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPostPermissions(t *testing.T) {
	author := &models.Profile{ID: 1, Role: models.RoleStudent}
	student := &models.Profile{ID: 2, Role: models.RoleStudent}
	teacher := &models.Profile{ID: 3, Role: models.RoleTeacher}
	admin := &models.Profile{ID: 4, Role: models.RoleAdmin}
	post := &models.Post{ID: 10, AuthorID: author.ID}

	tests := []struct {
		name  string
		check func(*models.Profile, *models.Post) error
		allow map[*models.Profile]bool
	}{
		{"edit", CanEditPost, map[*models.Profile]bool{author: true, student: false, teacher: false, admin: true}},
		{"delete", CanDeletePost, map[*models.Profile]bool{author: true, student: false, teacher: true, admin: true}},
		{"archive", CanArchivePost, map[*models.Profile]bool{author: true, student: false, teacher: true, admin: true}},
		{"pin", CanPinPost, map[*models.Profile]bool{author: false, student: false, teacher: true, admin: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for actor, allowed := range tt.allow {
				err := tt.check(actor, post)
				if allowed {
					assert.NoError(t, err, "actor %d", actor.ID)
				} else {
					assertCode(t, err, models.CodeForbidden)
				}
			}
			assertCode(t, tt.check(nil, post), models.CodeForbidden)
		})
	}
}

func TestCommentPermissions(t *testing.T) {
	author := &models.Profile{ID: 1, Role: models.RoleStudent}
	teacher := &models.Profile{ID: 3, Role: models.RoleTeacher}
	admin := &models.Profile{ID: 4, Role: models.RoleAdmin}
	comment := &models.Comment{ID: 5, AuthorID: author.ID}

	assert.NoError(t, CanEditComment(author, comment))
	assertCode(t, CanEditComment(teacher, comment), models.CodeForbidden)
	assertCode(t, CanEditComment(admin, comment), models.CodeForbidden)

	assert.NoError(t, CanDeleteComment(author, comment))
	assert.NoError(t, CanDeleteComment(teacher, comment))
	assert.NoError(t, CanDeleteComment(admin, comment))
	assertCode(t, CanDeleteComment(&models.Profile{ID: 9, Role: models.RoleStudent}, comment), models.CodeForbidden)
}

func TestRolePermissions(t *testing.T) {
	assert.NoError(t, CanManageRoles(&models.Profile{ID: 1, Role: models.RoleAdmin}))
	assertCode(t, CanManageRoles(&models.Profile{ID: 1, Role: models.RoleTeacher}), models.CodeForbidden)
	assertCode(t, CanManageRoles(nil), models.CodeForbidden)

	assert.NoError(t, CanScrape(&models.Profile{ID: 1, Role: models.RoleTeacher}))
	assertCode(t, CanScrape(&models.Profile{ID: 1, Role: models.RoleStudent}), models.CodeForbidden)
}

func TestAuthorCheckIgnoresZeroIDs(t *testing.T) {
	anonymous := &models.Profile{Role: models.RoleStudent}
	assertCode(t, CanEditPost(anonymous, &models.Post{}), models.CodeForbidden)
}
