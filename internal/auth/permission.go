package auth

import (
	"github.com/sakif/qa-forum/internal/apperror"
	"github.com/sakif/qa-forum/internal/model"
)

// CheckOwnerOrAdmin allows user to act on a resource written by authorID when
// they wrote it or hold the ADMIN role. Otherwise it returns a PermissionDenied
// error such as "you do not have permission to delete this answer".
//
// The check has no side effects; callers load the resource first so that a
// missing resource is reported as NotFound, not as a permission failure.
func CheckOwnerOrAdmin(authorID string, user *model.User, action, resource string) error {
	if user != nil && (user.ID == authorID || user.IsAdmin()) {
		return nil
	}
	return apperror.PermissionDenied(action, resource)
}
