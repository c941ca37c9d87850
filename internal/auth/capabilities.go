package auth

import "edubook.org/internal/user"

// Action is something a caller wants to do to a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
)

// Scope bounds which rows of a granted resource the caller may reach.
type Scope int

const (
	// ScopeAll grants every row of the resource.
	ScopeAll Scope = iota
	// ScopeCollege grants only rows belonging to the caller's own college.
	ScopeCollege
)

type capability struct {
	Resource string
	Action   Action
}

// grants is the flat capability table. Authorization is a lookup, not a
// role-hierarchy walk, so adding a role or a resource never ripples
// through unrelated checks. College-bound roles are scoped to their own
// college; platform-level roles are not, since they carry no affiliation
// to scope by.
var grants = map[user.Role]map[capability]Scope{
	user.RoleSuperAdmin: {
		{"colleges", ActionRead}:   ScopeAll,
		{"colleges", ActionCreate}: ScopeAll,
		{"users", ActionRead}:      ScopeAll,
	},
	user.RoleCollegeAdmin: {
		{"colleges", ActionRead}: ScopeCollege,
		{"users", ActionRead}:    ScopeCollege,
	},
	user.RoleStudent: {
		{"colleges", ActionRead}: ScopeCollege,
	},
	user.RoleIndividualUser: {
		{"colleges", ActionRead}: ScopeAll,
	},
}

// Allowed reports whether the role holds the (resource, action)
// capability and, if so, at which scope. Unknown roles and unknown
// resources are denied.
func Allowed(role user.Role, resource string, action Action) (Scope, bool) {
	caps, ok := grants[role]
	if !ok {
		return 0, false
	}
	scope, ok := caps[capability{Resource: resource, Action: action}]
	return scope, ok
}

// CanAccessCollege reports whether the principal's grant reaches rows of
// the given college.
func (p *Principal) CanAccessCollege(scope Scope, collegeID string) bool {
	if scope == ScopeAll {
		return true
	}
	return p.CollegeID != "" && p.CollegeID == collegeID
}
