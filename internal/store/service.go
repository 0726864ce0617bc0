package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/history"
	"github.com/goliatone/go-translations/internal/identity"
	"github.com/goliatone/go-translations/internal/interpolate"
	"github.com/goliatone/go-translations/internal/validation"
	"github.com/goliatone/go-translations/internal/workflow"
	"github.com/google/uuid"
)

// Service owns translation rows and the transactional transition path. Every
// mutation writes the row and its history entry in one transaction; callers
// never see a status change without its audit record.
type Service interface {
	UpsertDraft(ctx context.Context, req UpsertDraftRequest) (*catalog.Translation, *catalog.ChangeEvent, error)
	Transition(ctx context.Context, req TransitionRequest) (*catalog.Translation, *catalog.ChangeEvent, error)
	Rollback(ctx context.Context, req RollbackRequest) (*catalog.Translation, *catalog.ChangeEvent, error)
	GetCurrent(ctx context.Context, keyName, locale string) (*catalog.Translation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Translation, error)
	GetPublished(ctx context.Context, keyName, locale string) (*catalog.Translation, error)
	ListPublished(ctx context.Context, locale, namespace string) ([]*catalog.Translation, error)
}

// UpsertDraftRequest creates or edits a draft. ExpectedVersion 0 means the
// row must not exist yet; otherwise it must equal the current version.
type UpsertDraftRequest struct {
	Identity        catalog.Identity
	KeyName         string
	Locale          string
	Value           string
	Plural          map[string]string
	ExpectedVersion int64
}

// TransitionRequest moves a row along the editorial lifecycle. Rows are
// addressed by ID when set, otherwise by (KeyName, Locale).
type TransitionRequest struct {
	Identity        catalog.Identity
	ID              uuid.UUID
	KeyName         string
	Locale          string
	Action          catalog.Action
	ExpectedVersion int64
	Reason          string
}

// RollbackRequest copies a historical version's content into a fresh draft.
type RollbackRequest struct {
	Identity  catalog.Identity
	KeyName   string
	Locale    string
	ToVersion int64
	Reason    string
}

var (
	ErrIdentityRequired       = errors.New("store: identity required")
	ErrKeyInactive            = errors.New("store: key is inactive")
	ErrLocaleDisabled         = errors.New("store: locale not enabled")
	ErrValueRequired          = errors.New("store: value or plural forms required")
	ErrPluralNotAllowed       = errors.New("store: key does not declare plural forms")
	ErrLockedForReview        = errors.New("store: row is locked for review")
	ErrNotEditable            = errors.New("store: row not editable in its current status")
	ErrConcurrentModification = errors.New("store: version conflict")
	ErrRollbackVersionInvalid = errors.New("store: rollback target version invalid")
)

// ConflictError reports a failed compare-and-set with the row's actual state
// so callers can re-read and retry deliberately.
type ConflictError struct {
	Expected int64
	Actual   int64
	Status   catalog.Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, row at %d (%s)", e.Expected, e.Actual, e.Status)
}

func (e *ConflictError) Unwrap() error {
	return ErrConcurrentModification
}

// NotFoundError represents missing translation rows.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Repository abstracts row storage. Create and UpdateCAS persist the row and
// its history entry atomically; UpdateCAS fails with *ConflictError when the
// stored version no longer matches expectedVersion.
type Repository interface {
	Get(ctx context.Context, keyName, locale string) (*catalog.Translation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Translation, error)
	GetPublished(ctx context.Context, keyName, locale string) (*catalog.Translation, error)
	ListPublished(ctx context.Context, locale, namespace string) ([]*catalog.Translation, error)
	Create(ctx context.Context, row *catalog.Translation, entry *catalog.HistoryEntry) (*catalog.Translation, error)
	UpdateCAS(ctx context.Context, row *catalog.Translation, expectedVersion int64, entry *catalog.HistoryEntry) (*catalog.Translation, error)
}

// KeyResolver resolves catalog keys by name; satisfied by registry.Service.
type KeyResolver interface {
	GetKey(ctx context.Context, name string) (*catalog.Key, error)
}

// LocaleResolver resolves locales by code; satisfied by registry.Service.
type LocaleResolver interface {
	LocaleByCode(ctx context.Context, code string) (*catalog.Locale, error)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type IDGenerator func() uuid.UUID

// WithIDGenerator overrides how history entry IDs are minted.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithMaxValueBytes caps translation content size.
func WithMaxValueBytes(limit int) ServiceOption {
	return func(s *service) {
		if limit > 0 {
			s.maxValueBytes = limit
		}
	}
}

type service struct {
	rows          Repository
	history       history.Repository
	keys          KeyResolver
	locales       LocaleResolver
	engine        *workflow.Engine
	now           func() time.Time
	id            IDGenerator
	maxValueBytes int
}

// NewService constructs the translation store.
func NewService(rows Repository, hist history.Repository, keys KeyResolver, locales LocaleResolver, engine *workflow.Engine, opts ...ServiceOption) Service {
	s := &service{
		rows:          rows,
		history:       hist,
		keys:          keys,
		locales:       locales,
		engine:        engine,
		now:           time.Now,
		id:            uuid.New,
		maxValueBytes: 16 * 1024,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.engine == nil {
		s.engine = workflow.New()
	}
	return s
}

func (s *service) UpsertDraft(ctx context.Context, req UpsertDraftRequest) (*catalog.Translation, *catalog.ChangeEvent, error) {
	if req.Identity.Zero() {
		return nil, nil, ErrIdentityRequired
	}

	key, localeCode, err := s.resolveTarget(ctx, req.KeyName, req.Locale)
	if err != nil {
		return nil, nil, err
	}

	if err := s.validateContent(key, req.Value, req.Plural); err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()

	existing, err := s.rows.Get(ctx, key.Name, localeCode)
	if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, err
		}
		existing = nil
	}

	if existing == nil {
		if req.ExpectedVersion != 0 {
			return nil, nil, &ConflictError{Expected: req.ExpectedVersion, Actual: 0}
		}
		row := &catalog.Translation{
			ID:         identity.TranslationUUID(key.ID, localeCode),
			KeyID:      key.ID,
			KeyName:    key.Name,
			Locale:     localeCode,
			Namespace:  key.Namespace,
			Value:      req.Value,
			Plural:     clonePlural(req.Plural),
			Version:    1,
			Status:     catalog.StatusDraft,
			CreatedBy:  req.Identity.UserID,
			UpdatedBy:  req.Identity.UserID,
			AuthoredBy: req.Identity.UserID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		entry := s.newEntry(row, catalog.ActionUpsert, "", catalog.StatusDraft, "", req.Value, 0, 1, req.Identity.UserID, "", now)
		created, err := s.rows.Create(ctx, row, entry)
		if err != nil {
			return nil, nil, err
		}
		return created, s.newEvent(catalog.EventUpdated, created, req.Identity.UserID, "", now), nil
	}

	switch existing.Status {
	case catalog.StatusDraft:
		// editable
	case catalog.StatusReview:
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrLockedForReview, key.Name, localeCode)
	default:
		return nil, nil, fmt.Errorf("%w: %s/%s is %s", ErrNotEditable, key.Name, localeCode, existing.Status)
	}

	if req.ExpectedVersion != existing.Version {
		return nil, nil, &ConflictError{Expected: req.ExpectedVersion, Actual: existing.Version, Status: existing.Status}
	}

	updated := *existing
	updated.Value = req.Value
	updated.Plural = clonePlural(req.Plural)
	updated.Version = existing.Version + 1
	updated.UpdatedBy = req.Identity.UserID
	updated.AuthoredBy = req.Identity.UserID
	updated.UpdatedAt = now

	entry := s.newEntry(&updated, catalog.ActionUpsert, existing.Status, catalog.StatusDraft, existing.Value, req.Value, existing.Version, updated.Version, req.Identity.UserID, "", now)
	saved, err := s.rows.UpdateCAS(ctx, &updated, existing.Version, entry)
	if err != nil {
		return nil, nil, err
	}
	return saved, s.newEvent(catalog.EventUpdated, saved, req.Identity.UserID, "", now), nil
}

func (s *service) Transition(ctx context.Context, req TransitionRequest) (*catalog.Translation, *catalog.ChangeEvent, error) {
	if req.Identity.Zero() {
		return nil, nil, ErrIdentityRequired
	}

	// Transitions skip the key-active check on purpose: rows under a
	// deactivated key still need to be deprecated.
	var row *catalog.Translation
	var err error
	if req.ID != uuid.Nil {
		row, err = s.rows.GetByID(ctx, req.ID)
	} else {
		var name, localeCode string
		name, localeCode, err = s.normalize(req.KeyName, req.Locale)
		if err != nil {
			return nil, nil, err
		}
		row, err = s.rows.Get(ctx, name, localeCode)
	}
	if err != nil {
		return nil, nil, err
	}

	if req.ExpectedVersion != row.Version {
		return nil, nil, &ConflictError{Expected: req.ExpectedVersion, Actual: row.Version, Status: row.Status}
	}

	// AuthoredBy survives the submit hop, so the four-eyes check compares
	// against whoever wrote the draft even when someone else sent it to
	// review.
	decision, err := s.engine.Authorize(workflow.TransitionContext{
		From:     row.Status,
		Action:   req.Action,
		Identity: req.Identity,
		AuthorID: row.AuthoredBy,
		Reason:   req.Reason,
	})
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	actor := req.Identity.UserID

	updated := *row
	updated.Version = row.Version + 1
	updated.Status = decision.To
	updated.UpdatedBy = actor
	updated.UpdatedAt = now
	switch req.Action {
	case catalog.ActionApprove:
		updated.ReviewedBy = &actor
		updated.ReviewedAt = &now
		updated.ApprovedBy = &actor
		updated.ApprovedAt = &now
	case catalog.ActionPublish:
		updated.PublishedBy = &actor
		updated.PublishedAt = &now
	}

	entry := s.newEntry(&updated, req.Action, row.Status, decision.To, row.Value, updated.Value, row.Version, updated.Version, actor, req.Reason, now)
	saved, err := s.rows.UpdateCAS(ctx, &updated, row.Version, entry)
	if err != nil {
		return nil, nil, err
	}
	return saved, s.newEvent(decision.Event, saved, actor, req.Reason, now), nil
}

func (s *service) Rollback(ctx context.Context, req RollbackRequest) (*catalog.Translation, *catalog.ChangeEvent, error) {
	if req.Identity.Zero() {
		return nil, nil, ErrIdentityRequired
	}

	key, localeCode, err := s.resolveTarget(ctx, req.KeyName, req.Locale)
	if err != nil {
		return nil, nil, err
	}

	row, err := s.rows.Get(ctx, key.Name, localeCode)
	if err != nil {
		return nil, nil, err
	}
	if row.Status == catalog.StatusReview {
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrLockedForReview, key.Name, localeCode)
	}
	if req.ToVersion <= 0 || req.ToVersion >= row.Version {
		return nil, nil, fmt.Errorf("%w: %d is not prior to %d", ErrRollbackVersionInvalid, req.ToVersion, row.Version)
	}

	target, err := s.history.Entry(ctx, key.Name, localeCode, req.ToVersion)
	if err != nil {
		var notFound *history.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("%w: no history at version %d", ErrRollbackVersionInvalid, req.ToVersion)
		}
		return nil, nil, err
	}

	now := s.now().UTC()
	actor := req.Identity.UserID

	updated := *row
	updated.Value = target.ToValue
	updated.Plural = clonePlural(target.Plural)
	updated.Version = row.Version + 1
	updated.Status = catalog.StatusDraft
	updated.UpdatedBy = actor
	updated.AuthoredBy = actor
	updated.UpdatedAt = now
	updated.ReviewedBy = nil
	updated.ReviewedAt = nil
	updated.ApprovedBy = nil
	updated.ApprovedAt = nil
	updated.PublishedBy = nil
	updated.PublishedAt = nil

	entry := s.newEntry(&updated, catalog.ActionRollback, row.Status, catalog.StatusDraft, row.Value, target.ToValue, row.Version, updated.Version, actor, req.Reason, now)
	saved, err := s.rows.UpdateCAS(ctx, &updated, row.Version, entry)
	if err != nil {
		return nil, nil, err
	}
	return saved, s.newEvent(catalog.EventRolledBack, saved, actor, req.Reason, now), nil
}

func (s *service) GetCurrent(ctx context.Context, keyName, locale string) (*catalog.Translation, error) {
	name, localeCode, err := s.normalize(keyName, locale)
	if err != nil {
		return nil, err
	}
	return s.rows.Get(ctx, name, localeCode)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Translation, error) {
	return s.rows.GetByID(ctx, id)
}

func (s *service) GetPublished(ctx context.Context, keyName, locale string) (*catalog.Translation, error) {
	name, localeCode, err := s.normalize(keyName, locale)
	if err != nil {
		return nil, err
	}
	return s.rows.GetPublished(ctx, name, localeCode)
}

func (s *service) ListPublished(ctx context.Context, locale, namespace string) ([]*catalog.Translation, error) {
	localeCode, err := validation.NormalizeLocale(locale)
	if err != nil {
		return nil, err
	}
	return s.rows.ListPublished(ctx, localeCode, strings.TrimSpace(namespace))
}

// resolveTarget normalizes the key/locale pair and enforces that the key is
// active and the locale enabled.
func (s *service) resolveTarget(ctx context.Context, keyName, locale string) (*catalog.Key, string, error) {
	name, localeCode, err := s.normalize(keyName, locale)
	if err != nil {
		return nil, "", err
	}

	key, err := s.keys.GetKey(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if !key.Active {
		return nil, "", fmt.Errorf("%w: %s", ErrKeyInactive, name)
	}

	loc, err := s.locales.LocaleByCode(ctx, localeCode)
	if err != nil {
		return nil, "", err
	}
	if !loc.IsActive {
		return nil, "", fmt.Errorf("%w: %s", ErrLocaleDisabled, localeCode)
	}

	return key, loc.Code, nil
}

func (s *service) normalize(keyName, locale string) (string, string, error) {
	name, err := validation.NormalizeKeyName(keyName)
	if err != nil {
		return "", "", err
	}
	localeCode, err := validation.NormalizeLocale(locale)
	if err != nil {
		return "", "", err
	}
	return name, localeCode, nil
}

func (s *service) validateContent(key *catalog.Key, value string, plural map[string]string) error {
	if strings.TrimSpace(value) == "" && len(plural) == 0 {
		return fmt.Errorf("%w: %s", ErrValueRequired, key.Name)
	}
	if err := validation.ValueSize(value, s.maxValueBytes); err != nil {
		return err
	}
	if err := interpolate.Validate(value, key.Variables); err != nil {
		return err
	}
	if len(plural) > 0 {
		if !key.Plural {
			return fmt.Errorf("%w: %s", ErrPluralNotAllowed, key.Name)
		}
		if err := validation.PluralForms(plural); err != nil {
			return err
		}
		for _, template := range plural {
			if err := validation.ValueSize(template, s.maxValueBytes); err != nil {
				return err
			}
			if err := interpolate.Validate(template, key.Variables); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) newEntry(row *catalog.Translation, action catalog.Action, fromStatus, toStatus catalog.Status, fromValue, toValue string, fromVersion, toVersion int64, actor uuid.UUID, reason string, at time.Time) *catalog.HistoryEntry {
	return &catalog.HistoryEntry{
		ID:          s.id(),
		KeyName:     row.KeyName,
		Locale:      row.Locale,
		Action:      action,
		FromStatus:  fromStatus,
		ToStatus:    toStatus,
		FromValue:   fromValue,
		ToValue:     toValue,
		Plural:      clonePlural(row.Plural),
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Actor:       actor,
		Reason:      reason,
		CreatedAt:   at,
	}
}

// newEvent builds the post-commit broadcast payload. Only published frames
// carry content; everything else notifies and lets clients re-fetch.
func (s *service) newEvent(eventType catalog.EventType, row *catalog.Translation, actor uuid.UUID, reason string, at time.Time) *catalog.ChangeEvent {
	event := &catalog.ChangeEvent{
		Type:       eventType,
		KeyName:    row.KeyName,
		Locale:     row.Locale,
		Namespace:  row.Namespace,
		Status:     row.Status,
		Version:    row.Version,
		Actor:      actor,
		Reason:     reason,
		OccurredAt: at,
	}
	if eventType == catalog.EventPublished {
		event.Value = row.Value
	}
	return event
}

func clonePlural(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
