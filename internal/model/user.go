package model

import "time"

// Role names stored in users.role. The hierarchy is flat: a role is a
// plain string column, and superuser powers come from the separate
// is_superuser flag rather than from a role value.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether s is one of the known role names.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleModerator || s == RoleAdmin
}

// User represents an application user record as stored in the `users`
// table. Accounts are created unconfirmed at signup; the account is
// considered confirmed once the emailed confirmation code has been
// exchanged for an access token, at which point ConfirmationHash is
// cleared.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Username         – unique login name ("me" is reserved and never stored).
//  Email            – unique email address.
//  FirstName        – optional given name.
//  LastName         – optional family name.
//  Bio              – optional free-form profile text.
//  Role             – role name (user, moderator or admin).
//  IsSuperuser      – escalation flag independent of Role.
//  ConfirmationHash – bcrypt hash of the last issued confirmation code,
//                     empty once the code has been consumed.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update; confirmation codes are
//                     bound to this marker and die when it moves.
type User struct {
	ID               uint64    // users.id
	Username         string    // users.username
	Email            string    // users.email
	FirstName        string    // users.first_name
	LastName         string    // users.last_name
	Bio              string    // users.bio
	Role             string    // users.role
	IsSuperuser      bool      // users.is_superuser
	ConfirmationHash string    // users.confirmation_hash
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}
