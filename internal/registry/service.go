package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/identity"
	"github.com/goliatone/go-translations/internal/validation"
	"github.com/google/uuid"
)

// Service owns the key catalog and the locale catalog. It performs no
// workflow gating: key registration is open to any authenticated identity.
type Service interface {
	RegisterKey(ctx context.Context, req RegisterKeyRequest) (*catalog.Key, error)
	DeactivateKey(ctx context.Context, name string, actor catalog.Identity) (*catalog.Key, error)
	GetKey(ctx context.Context, name string) (*catalog.Key, error)
	ListKeys(ctx context.Context, req ListKeysRequest) ([]*catalog.Key, int, error)
	Namespaces(ctx context.Context) ([]string, error)

	EnsureLocale(ctx context.Context, code, display string) (*catalog.Locale, error)
	ListLocales(ctx context.Context) ([]*catalog.Locale, error)
	LocaleByCode(ctx context.Context, code string) (*catalog.Locale, error)
	EnsureDefaults(ctx context.Context) ([]*catalog.Locale, error)
}

// RegisterKeyRequest captures a new catalog entry. Namespace defaults to the
// key's first dotted segment when omitted.
type RegisterKeyRequest struct {
	Identity  catalog.Identity
	Name      string
	Namespace string
	Category  string
	Variables []string
	Plural    bool
}

// ListKeysRequest filters the key catalog.
type ListKeysRequest struct {
	Namespace string
	Category  string
	Active    *bool
	Limit     int
	Offset    int
}

var (
	ErrDuplicateKey  = errors.New("registry: key already registered")
	ErrActorRequired = errors.New("registry: actor identity required")
)

// KeyRepository abstracts storage for catalog keys.
type KeyRepository interface {
	Create(ctx context.Context, record *catalog.Key) (*catalog.Key, error)
	GetByName(ctx context.Context, name string) (*catalog.Key, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Key, error)
	List(ctx context.Context, filter KeyFilter) ([]*catalog.Key, int, error)
	Update(ctx context.Context, record *catalog.Key, columns ...string) (*catalog.Key, error)
	Namespaces(ctx context.Context) ([]string, error)
}

// KeyFilter mirrors ListKeysRequest at the storage layer.
type KeyFilter struct {
	Namespace string
	Category  string
	Active    *bool
	Limit     int
	Offset    int
}

// LocaleRepository abstracts storage for the locale catalog.
type LocaleRepository interface {
	Create(ctx context.Context, record *catalog.Locale) (*catalog.Locale, error)
	GetByCode(ctx context.Context, code string) (*catalog.Locale, error)
	List(ctx context.Context) ([]*catalog.Locale, error)
}

// NotFoundError represents missing records from repository lookups.
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

// WithIDGenerator overrides how new key IDs are minted.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithMaxVariables caps the declared-variable list per key.
func WithMaxVariables(limit int) ServiceOption {
	return func(s *service) {
		if limit > 0 {
			s.maxVariables = limit
		}
	}
}

// WithLocales configures the default locale and the seed list applied by
// EnsureDefaults.
func WithLocales(defaultCode string, enabled []string) ServiceOption {
	return func(s *service) {
		if code := strings.TrimSpace(defaultCode); code != "" {
			s.defaultLocale = code
		}
		if len(enabled) > 0 {
			s.enabledLocales = append([]string(nil), enabled...)
		}
	}
}

type service struct {
	keys           KeyRepository
	locales        LocaleRepository
	now            func() time.Time
	id             IDGenerator
	maxVariables   int
	defaultLocale  string
	enabledLocales []string
}

// NewService constructs a registry service backed by the given repositories.
func NewService(keys KeyRepository, locales LocaleRepository, opts ...ServiceOption) Service {
	s := &service{
		keys:          keys,
		locales:       locales,
		now:           time.Now,
		id:            uuid.New,
		maxVariables:  16,
		defaultLocale: "en",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if len(s.enabledLocales) == 0 {
		s.enabledLocales = []string{s.defaultLocale}
	}
	return s
}

func (s *service) RegisterKey(ctx context.Context, req RegisterKeyRequest) (*catalog.Key, error) {
	if req.Identity.UserID == uuid.Nil {
		return nil, ErrActorRequired
	}

	name, err := validation.NormalizeKeyName(req.Name)
	if err != nil {
		return nil, err
	}

	namespace := strings.TrimSpace(req.Namespace)
	if namespace == "" {
		namespace = catalog.NamespaceFor(name)
	} else {
		namespace, err = validation.NormalizeKeyName(namespace)
		if err != nil {
			return nil, err
		}
	}

	variables, err := validation.NormalizeVariables(req.Variables, s.maxVariables)
	if err != nil {
		return nil, err
	}

	existing, err := s.keys.GetByName(ctx, name)
	if err != nil {
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("registry: lookup key %q: %w", name, err)
		}
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, name)
	}

	now := s.now().UTC()
	record := &catalog.Key{
		ID:        s.id(),
		Name:      name,
		Namespace: namespace,
		Category:  strings.TrimSpace(req.Category),
		Variables: variables,
		Plural:    req.Plural,
		Active:    true,
		CreatedBy: req.Identity.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.keys.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("registry: create key %q: %w", name, err)
	}
	return created, nil
}

func (s *service) DeactivateKey(ctx context.Context, name string, actor catalog.Identity) (*catalog.Key, error) {
	if actor.UserID == uuid.Nil {
		return nil, ErrActorRequired
	}

	normalized, err := validation.NormalizeKeyName(name)
	if err != nil {
		return nil, err
	}

	record, err := s.keys.GetByName(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return record, nil
	}

	record.Active = false
	record.UpdatedAt = s.now().UTC()

	updated, err := s.keys.Update(ctx, record, "active", "updated_at")
	if err != nil {
		return nil, fmt.Errorf("registry: deactivate key %q: %w", normalized, err)
	}
	return updated, nil
}

func (s *service) GetKey(ctx context.Context, name string) (*catalog.Key, error) {
	normalized, err := validation.NormalizeKeyName(name)
	if err != nil {
		return nil, err
	}
	return s.keys.GetByName(ctx, normalized)
}

func (s *service) ListKeys(ctx context.Context, req ListKeysRequest) ([]*catalog.Key, int, error) {
	filter := KeyFilter{
		Namespace: strings.TrimSpace(req.Namespace),
		Category:  strings.TrimSpace(req.Category),
		Active:    req.Active,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.keys.List(ctx, filter)
}

func (s *service) Namespaces(ctx context.Context) ([]string, error) {
	return s.keys.Namespaces(ctx)
}

func (s *service) EnsureLocale(ctx context.Context, code, display string) (*catalog.Locale, error) {
	normalized, err := validation.NormalizeLocale(code)
	if err != nil {
		return nil, err
	}

	existing, err := s.locales.GetByCode(ctx, normalized)
	if err == nil {
		return existing, nil
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("registry: lookup locale %q: %w", normalized, err)
	}

	display = strings.TrimSpace(display)
	if display == "" {
		display = normalized
	}

	record := &catalog.Locale{
		ID:        identity.LocaleUUID(normalized),
		Code:      normalized,
		Display:   display,
		IsActive:  true,
		IsDefault: normalized == s.defaultLocale,
		CreatedAt: s.now().UTC(),
	}

	created, err := s.locales.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("registry: create locale %q: %w", normalized, err)
	}
	return created, nil
}

func (s *service) ListLocales(ctx context.Context) ([]*catalog.Locale, error) {
	return s.locales.List(ctx)
}

func (s *service) LocaleByCode(ctx context.Context, code string) (*catalog.Locale, error) {
	normalized, err := validation.NormalizeLocale(code)
	if err != nil {
		return nil, err
	}
	return s.locales.GetByCode(ctx, normalized)
}

func (s *service) EnsureDefaults(ctx context.Context) ([]*catalog.Locale, error) {
	codes := make([]string, 0, len(s.enabledLocales)+1)
	codes = append(codes, s.defaultLocale)
	for _, code := range s.enabledLocales {
		if code != s.defaultLocale {
			codes = append(codes, code)
		}
	}

	seeded := make([]*catalog.Locale, 0, len(codes))
	for _, code := range codes {
		locale, err := s.EnsureLocale(ctx, code, "")
		if err != nil {
			return seeded, err
		}
		seeded = append(seeded, locale)
	}
	return seeded, nil
}
