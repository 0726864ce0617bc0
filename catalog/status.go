package catalog

import "github.com/google/uuid"

// Status represents the editorial lifecycle of a translation row.
type Status string

const (
	// StatusDraft indicates content still being authored; freely editable.
	StatusDraft Status = "draft"
	// StatusReview marks content submitted for review; locked against edits.
	StatusReview Status = "review"
	// StatusApproved marks reviewed content awaiting publication.
	StatusApproved Status = "approved"
	// StatusPublished identifies the content served to end-user reads.
	StatusPublished Status = "published"
	// StatusDeprecated is terminal; retained for history, never served.
	StatusDeprecated Status = "deprecated"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusPublished, StatusDeprecated:
		return true
	}
	return false
}

// Action identifies a mutation against a translation row.
type Action string

const (
	ActionUpsert    Action = "upsert"
	ActionSubmit    Action = "submit"
	ActionApprove   Action = "approve"
	ActionPublish   Action = "publish"
	ActionDeprecate Action = "deprecate"
	ActionRollback  Action = "rollback"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionUpsert, ActionSubmit, ActionApprove, ActionPublish, ActionDeprecate, ActionRollback:
		return true
	}
	return false
}

// Role is the editorial role carried by the identity assertion. Roles are
// ordered: a higher role satisfies any lower minimum.
type Role string

const (
	RoleEditor   Role = "editor"
	RoleReviewer Role = "reviewer"
	RoleManager  Role = "manager"
)

var roleRank = map[Role]int{
	RoleEditor:   1,
	RoleReviewer: 2,
	RoleManager:  3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r satisfies the given minimum role.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Identity is the opaque `{userId, role}` assertion issued by the external
// auth subsystem. The core trusts it; it never issues or verifies one.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Zero reports whether the assertion is missing or malformed.
func (id Identity) Zero() bool {
	return id.UserID == uuid.Nil || !id.Role.Valid()
}
