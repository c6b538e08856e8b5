// Package policy holds the centralized authorization decisions. Every
// mutating or object-scoped endpoint asks one of these functions before
// any business logic runs. The functions are pure: they look only at
// the Identity value and, for object-level checks, the resource's
// author id. Whether a resource exists is a separate question answered
// by the repositories with ErrNotFound; it is never folded into a
// denial here.
package policy

import "github.com/iliyamo/title-review-service/internal/model"

// Identity describes the caller as resolved from the access token.
// The zero value is the anonymous caller.
type Identity struct {
	ID          uint64
	Username    string
	Role        string
	IsSuperuser bool
	// Authenticated is true only when a valid access token was
	// presented. Role and ID are meaningless when it is false.
	Authenticated bool
}

// Anonymous is the identity of a request without credentials.
var Anonymous = Identity{}

// AdminOrSuperuser permits full control over the catalog and user
// management: authenticated callers with the admin role or the
// superuser flag.
func AdminOrSuperuser(id Identity) bool {
	return id.Authenticated && (id.Role == model.RoleAdmin || id.IsSuperuser)
}

// CanModifyAuthored is the object-level rule for editing or deleting a
// review or comment: moderators, admins and superusers may touch any,
// everyone else only their own.
func CanModifyAuthored(id Identity, authorID uint64) bool {
	if !id.Authenticated {
		return false
	}
	return id.Role == model.RoleAdmin ||
		id.Role == model.RoleModerator ||
		id.IsSuperuser ||
		id.ID == authorID
}

// CanCreateContent permits review and comment creation: any
// authenticated identity, regardless of role.
func CanCreateContent(id Identity) bool {
	return id.Authenticated
}
