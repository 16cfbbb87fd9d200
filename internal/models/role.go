package models

import "strings"

// Role is the authorization level of an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var roleRank = map[Role]int{
	RoleUser:      0,
	RoleModerator: 1,
	RoleAdmin:     2,
}

// ParseRole normalizes s into a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roleRank[r]
	return r, ok
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above other. Unknown roles rank lowest.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// IsModerator is true for moderators and admins.
func (r Role) IsModerator() bool { return r.AtLeast(RoleModerator) }

// CanModify decides whether a caller may delete content authored by authorID.
// Only the author or an admin qualifies; moderators get nothing extra.
func CanModify(callerID uint, callerRole Role, authorID uint) bool {
	if callerID != 0 && callerID == authorID {
		return true
	}
	return callerRole.IsAdmin()
}
