package history

import (
	"context"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/validation"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service is the read surface over the audit log. Writes happen through the
// store's transaction, never here.
type Service interface {
	List(ctx context.Context, keyName, locale string, limit int) ([]*catalog.HistoryEntry, error)
	ByActor(ctx context.Context, actor uuid.UUID, limit int) ([]*catalog.HistoryEntry, error)
	Entry(ctx context.Context, keyName, locale string, toVersion int64) (*catalog.HistoryEntry, error)
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithLogger attaches a logger; reads log at debug level only.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	repo   Repository
	logger interfaces.Logger
}

// NewService constructs a history service over the given repository.
func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:   repo,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) List(ctx context.Context, keyName, locale string, limit int) ([]*catalog.HistoryEntry, error) {
	keyName, localeCode, err := s.normalize(keyName, locale)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	entries, err := s.repo.List(ctx, keyName, localeCode, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("history list", "key", keyName, "locale", localeCode, "entries", len(entries))
	return entries, nil
}

func (s *service) ByActor(ctx context.Context, actor uuid.UUID, limit int) ([]*catalog.HistoryEntry, error) {
	limit = clampLimit(limit)
	entries, err := s.repo.ByActor(ctx, actor, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("history by actor", "actor", actor.String(), "entries", len(entries))
	return entries, nil
}

func (s *service) Entry(ctx context.Context, keyName, locale string, toVersion int64) (*catalog.HistoryEntry, error) {
	keyName, localeCode, err := s.normalize(keyName, locale)
	if err != nil {
		return nil, err
	}
	return s.repo.Entry(ctx, keyName, localeCode, toVersion)
}

func (s *service) normalize(keyName, locale string) (string, string, error) {
	name, err := validation.NormalizeKeyName(keyName)
	if err != nil {
		return "", "", err
	}
	code, err := validation.NormalizeLocale(locale)
	if err != nil {
		return "", "", err
	}
	return name, code, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
