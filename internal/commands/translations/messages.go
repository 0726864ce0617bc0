// Package translationscmd exposes the catalog mutations as go-command
// messages so they can run through the dispatcher, cron registries, or any
// other transport that speaks command.Message.
package translationscmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
)

const (
	upsertDraftMessageType      = "translations.catalog.upsert_draft"
	transitionMessageType       = "translations.catalog.transition"
	rollbackMessageType         = "translations.catalog.rollback"
	rebuildSnapshotsMessageType = "translations.snapshot.rebuild"
)

// UpsertDraftCommand creates or updates the draft value for one (key, locale).
type UpsertDraftCommand struct {
	Identity        catalog.Identity  `json:"identity"`
	Key             string            `json:"key"`
	Locale          string            `json:"locale"`
	Value           string            `json:"value,omitempty"`
	Plural          map[string]string `json:"plural,omitempty"`
	ExpectedVersion int64             `json:"expected_version,omitempty"`
}

// Type implements command.Message.
func (UpsertDraftCommand) Type() string { return upsertDraftMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m UpsertDraftCommand) Validate() error {
	errs := validation.Errors{}
	if m.Identity.Zero() {
		errs["identity"] = validation.NewError("translations.catalog.upsert_draft.identity_required", "identity assertion is required")
	}
	if m.Key == "" {
		errs["key"] = validation.NewError("translations.catalog.upsert_draft.key_required", "key is required")
	}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("translations.catalog.upsert_draft.locale_required", "locale is required")
	}
	if m.Value == "" && len(m.Plural) == 0 {
		errs["value"] = validation.NewError("translations.catalog.upsert_draft.value_required", "value or plural forms are required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// TransitionCommand moves a translation row along the editorial lifecycle.
// Rows are addressed by ID when set, otherwise by (key, locale).
type TransitionCommand struct {
	Identity        catalog.Identity `json:"identity"`
	ID              uuid.UUID        `json:"id,omitempty"`
	Key             string           `json:"key,omitempty"`
	Locale          string           `json:"locale,omitempty"`
	Action          catalog.Action   `json:"action"`
	ExpectedVersion int64            `json:"expected_version,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}

// Type implements command.Message.
func (TransitionCommand) Type() string { return transitionMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m TransitionCommand) Validate() error {
	errs := validation.Errors{}
	if m.Identity.Zero() {
		errs["identity"] = validation.NewError("translations.catalog.transition.identity_required", "identity assertion is required")
	}
	switch m.Action {
	case catalog.ActionSubmit, catalog.ActionApprove, catalog.ActionPublish, catalog.ActionDeprecate:
	default:
		errs["action"] = validation.NewError("translations.catalog.transition.action_invalid", "action must be submit, approve, publish, or deprecate")
	}
	if m.ID == uuid.Nil && (m.Key == "" || m.Locale == "") {
		errs["target"] = validation.NewError("translations.catalog.transition.target_required", "id or key and locale are required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RollbackCommand restores a historical version's content as a fresh draft.
type RollbackCommand struct {
	Identity  catalog.Identity `json:"identity"`
	Key       string           `json:"key"`
	Locale    string           `json:"locale"`
	ToVersion int64            `json:"to_version"`
	Reason    string           `json:"reason,omitempty"`
}

// Type implements command.Message.
func (RollbackCommand) Type() string { return rollbackMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m RollbackCommand) Validate() error {
	errs := validation.Errors{}
	if m.Identity.Zero() {
		errs["identity"] = validation.NewError("translations.catalog.rollback.identity_required", "identity assertion is required")
	}
	if m.Key == "" {
		errs["key"] = validation.NewError("translations.catalog.rollback.key_required", "key is required")
	}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("translations.catalog.rollback.locale_required", "locale is required")
	}
	if m.ToVersion <= 0 {
		errs["to_version"] = validation.NewError("translations.catalog.rollback.version_invalid", "to_version must be greater than zero")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RebuildSnapshotsCommand forces a snapshot rebuild for one locale. When
// Namespaces is empty the handler rebuilds every registered namespace.
type RebuildSnapshotsCommand struct {
	Locale     string   `json:"locale"`
	Namespaces []string `json:"namespaces,omitempty"`
}

// Type implements command.Message.
func (RebuildSnapshotsCommand) Type() string { return rebuildSnapshotsMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m RebuildSnapshotsCommand) Validate() error {
	errs := validation.Errors{}
	if m.Locale == "" {
		errs["locale"] = validation.NewError("translations.snapshot.rebuild.locale_required", "locale is required")
	}
	for _, ns := range m.Namespaces {
		if ns == "" {
			errs["namespaces"] = validation.NewError("translations.snapshot.rebuild.namespace_invalid", "namespaces must not contain empty entries")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
