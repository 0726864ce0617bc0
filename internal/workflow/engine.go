package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition indicates the requested action has no edge from the current status.
	ErrInvalidTransition = errors.New("workflow: transition not allowed")
	// ErrRoleDenied indicates the identity's role does not meet the edge's minimum.
	ErrRoleDenied = errors.New("workflow: role not permitted")
	// ErrSelfApproval indicates the approver also submitted the draft under review.
	ErrSelfApproval = errors.New("workflow: approver cannot approve own submission")
	// ErrChangeReasonRequired indicates the transition needs an audit reason and none was given.
	ErrChangeReasonRequired = errors.New("workflow: change reason required")
)

// Rule declares one legal edge of the editorial state machine.
type Rule struct {
	From    catalog.Status
	To      catalog.Status
	Action  catalog.Action
	MinRole catalog.Role

	// FourEyes rejects the transition when the acting identity matches the
	// identity that last touched the row (the submitter, for approvals).
	FourEyes bool
}

// DefaultRules returns the translation lifecycle:
//
//	draft -> review -> approved -> published
//
// with deprecated reachable from every non-draft status. Approvals are
// four-eyes gated; publishing and deprecation are manager operations.
func DefaultRules() []Rule {
	return []Rule{
		{From: catalog.StatusDraft, To: catalog.StatusReview, Action: catalog.ActionSubmit, MinRole: catalog.RoleEditor},
		{From: catalog.StatusReview, To: catalog.StatusApproved, Action: catalog.ActionApprove, MinRole: catalog.RoleReviewer, FourEyes: true},
		{From: catalog.StatusApproved, To: catalog.StatusPublished, Action: catalog.ActionPublish, MinRole: catalog.RoleManager},
		{From: catalog.StatusReview, To: catalog.StatusDeprecated, Action: catalog.ActionDeprecate, MinRole: catalog.RoleManager},
		{From: catalog.StatusApproved, To: catalog.StatusDeprecated, Action: catalog.ActionDeprecate, MinRole: catalog.RoleManager},
		{From: catalog.StatusPublished, To: catalog.StatusDeprecated, Action: catalog.ActionDeprecate, MinRole: catalog.RoleManager},
	}
}

// TransitionContext carries everything the engine needs to authorize an edge.
type TransitionContext struct {
	From     catalog.Status
	Action   catalog.Action
	Identity catalog.Identity

	// AuthorID identifies who last wrote the content as a draft; used for
	// the four-eyes check on approvals.
	AuthorID uuid.UUID

	Reason string
}

// Decision is the engine's verdict for an authorized transition.
type Decision struct {
	To    catalog.Status
	Event catalog.EventType
}

type ruleKey struct {
	from   catalog.Status
	action catalog.Action
}

// Engine evaluates transitions against a fixed rule table. It holds no
// storage and performs no writes; callers apply the decision themselves.
type Engine struct {
	rules         map[ruleKey]Rule
	order         []ruleKey
	requireReason bool
}

// Option configures the engine.
type Option func(*Engine)

// WithRules replaces the default rule table.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		if len(rules) > 0 {
			e.install(rules)
		}
	}
}

// WithChangeReasonRequired toggles the audit-reason requirement for
// transitions whose source status is past draft.
func WithChangeReasonRequired(required bool) Option {
	return func(e *Engine) {
		e.requireReason = required
	}
}

// New constructs an engine seeded with the default translation lifecycle.
func New(opts ...Option) *Engine {
	engine := &Engine{requireReason: true}
	engine.install(DefaultRules())
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

func (e *Engine) install(rules []Rule) {
	e.rules = make(map[ruleKey]Rule, len(rules))
	e.order = make([]ruleKey, 0, len(rules))
	for _, rule := range rules {
		key := ruleKey{from: rule.From, action: rule.Action}
		if _, exists := e.rules[key]; !exists {
			e.order = append(e.order, key)
		}
		e.rules[key] = rule
	}
}

// Authorize validates the requested transition and returns the target status
// and the event type a successful commit must broadcast. Checks run in a
// fixed order: edge existence, role, four-eyes, change reason.
func (e *Engine) Authorize(tc TransitionContext) (Decision, error) {
	rule, ok := e.rules[ruleKey{from: tc.From, action: tc.Action}]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, tc.Action, tc.From)
	}

	if !tc.Identity.Role.AtLeast(rule.MinRole) {
		return Decision{}, fmt.Errorf("%w: %s requires %s", ErrRoleDenied, tc.Action, rule.MinRole)
	}

	if rule.FourEyes && tc.AuthorID != uuid.Nil && tc.Identity.UserID == tc.AuthorID {
		return Decision{}, fmt.Errorf("%w: %s", ErrSelfApproval, tc.Identity.UserID)
	}

	if e.requireReason && tc.From != catalog.StatusDraft && strings.TrimSpace(tc.Reason) == "" {
		return Decision{}, fmt.Errorf("%w: %s from %s", ErrChangeReasonRequired, tc.Action, tc.From)
	}

	return Decision{To: rule.To, Event: catalog.EventForAction(tc.Action)}, nil
}

// LegalActions lists the actions the identity may take from the given status,
// in rule-table order. Four-eyes is ignored here: it depends on which row is
// being acted on, so the caller filters when it knows the author.
func (e *Engine) LegalActions(from catalog.Status, identity catalog.Identity) []catalog.Action {
	var actions []catalog.Action
	for _, key := range e.order {
		if key.from != from {
			continue
		}
		rule := e.rules[key]
		if identity.Role.AtLeast(rule.MinRole) {
			actions = append(actions, rule.Action)
		}
	}
	return actions
}
