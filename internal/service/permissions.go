package service

import "ainews/internal/models"

// The permission checks return nil when the actor may act and a FORBIDDEN
// AppError otherwise. A nil actor is never allowed.

func isAuthor(actor *models.Profile, authorID uint) bool {
	return actor != nil && actor.ID != 0 && actor.ID == authorID
}

func hasRole(actor *models.Profile, roles ...models.Role) bool {
	if actor == nil {
		return false
	}
	for _, r := range roles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

func deny(message string) error {
	return models.NewForbiddenError(message)
}

// CanEditPost allows the author and admins.
func CanEditPost(actor *models.Profile, post *models.Post) error {
	if isAuthor(actor, post.AuthorID) || hasRole(actor, models.RoleAdmin) {
		return nil
	}
	return deny("You can only edit your own posts")
}

// CanDeletePost allows the author, teachers and admins.
func CanDeletePost(actor *models.Profile, post *models.Post) error {
	if isAuthor(actor, post.AuthorID) || hasRole(actor, models.RoleTeacher, models.RoleAdmin) {
		return nil
	}
	return deny("You can only delete your own posts")
}

// CanArchivePost allows the author, teachers and admins.
func CanArchivePost(actor *models.Profile, post *models.Post) error {
	if isAuthor(actor, post.AuthorID) || hasRole(actor, models.RoleTeacher, models.RoleAdmin) {
		return nil
	}
	return deny("You can only archive your own posts")
}

// CanPinPost allows teachers and admins.
func CanPinPost(actor *models.Profile, _ *models.Post) error {
	if hasRole(actor, models.RoleTeacher, models.RoleAdmin) {
		return nil
	}
	return deny("Only teachers and admins can pin posts")
}

// CanEditComment allows the author only.
func CanEditComment(actor *models.Profile, comment *models.Comment) error {
	if isAuthor(actor, comment.AuthorID) {
		return nil
	}
	return deny("You can only edit your own comments")
}

// CanDeleteComment allows the author, teachers and admins.
func CanDeleteComment(actor *models.Profile, comment *models.Comment) error {
	if isAuthor(actor, comment.AuthorID) || hasRole(actor, models.RoleTeacher, models.RoleAdmin) {
		return nil
	}
	return deny("You can only delete your own comments")
}

// CanManageRoles allows admins.
func CanManageRoles(actor *models.Profile) error {
	if hasRole(actor, models.RoleAdmin) {
		return nil
	}
	return deny("Admin access required")
}

// CanScrape allows teachers and admins.
func CanScrape(actor *models.Profile) error {
	if hasRole(actor, models.RoleTeacher, models.RoleAdmin) {
		return nil
	}
	return deny("Only teachers and admins can import news")
}
