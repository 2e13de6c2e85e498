// Package rbac holds the static permission table and the authorization gate.
//
// Decisions trust the role embedded in the caller's access token, never a live
// database lookup. A role change therefore applies from the next login or
// refresh; tokens issued before it keep the old role until they expire.
package rbac

// Role names. Keep these stable; they are stored on users and embedded in tokens.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Roles lists every valid role, most privileged first.
var Roles = []string{RoleOwner, RoleAdmin, RoleMember}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func IsOwner(role string) bool { return role == RoleOwner }
