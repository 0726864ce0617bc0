// Package query serves published translations to clients. Reads go through
// the snapshot manager and never touch the workflow engine; a stalled rebuild
// degrades to a direct store read instead of failing the request.
package query

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/interpolate"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/internal/validation"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

var (
	// ErrKeyRequired reports a resolve call without a key name.
	ErrKeyRequired = errors.New("query: key is required")
	// ErrCountRequired reports a resolve of a plural key without a count.
	ErrCountRequired = errors.New("query: count required for plural key")
)

// Request selects the published map for one locale. An empty Namespace
// merges every namespace; Keys narrows the result to the named keys.
type Request struct {
	Locale    string
	Namespace string
	Keys      []string
}

// Result is a client-consumable translation map. Version is the snapshot
// token; zero marks a degraded read the client must not cache.
type Result struct {
	Locale       string            `json:"locale"`
	Namespace    string            `json:"namespace,omitempty"`
	Translations map[string]string `json:"translations"`
	Version      int64             `json:"version"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// ResolveRequest renders a single key for a locale. Count selects the plural
// form for keys that declare plural content.
type ResolveRequest struct {
	Locale    string
	Key       string
	Variables map[string]string
	Count     *int
}

// SnapshotReader is the slice of the snapshot manager the service reads
// through. snapshot.Manager satisfies it.
type SnapshotReader interface {
	Get(ctx context.Context, locale, namespace string) (*snapshot.Snapshot, error)
}

// NamespaceLister enumerates active namespaces. registry.Service satisfies it.
type NamespaceLister interface {
	Namespaces(ctx context.Context) ([]string, error)
}

// PublishedReader is the direct store path used when the cache cannot answer
// in time. store.Service satisfies it.
type PublishedReader interface {
	GetPublished(ctx context.Context, keyName, locale string) (*catalog.Translation, error)
	ListPublished(ctx context.Context, locale, namespace string) ([]*catalog.Translation, error)
}

// Service answers read-side translation queries.
type Service interface {
	GetTranslations(ctx context.Context, req Request) (*Result, error)
	Resolve(ctx context.Context, req ResolveRequest) (string, error)
}

type service struct {
	snapshots  SnapshotReader
	namespaces NamespaceLister
	rows       PublishedReader
	logger     interfaces.Logger
	now        func() time.Time
}

// ServiceOption configures the query service.
type ServiceOption func(*service)

// WithLogger overrides the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the read path.
func NewService(snapshots SnapshotReader, namespaces NamespaceLister, rows PublishedReader, opts ...ServiceOption) Service {
	s := &service{
		snapshots:  snapshots,
		namespaces: namespaces,
		rows:       rows,
		logger:     logging.NoOp(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetTranslations(ctx context.Context, req Request) (*Result, error) {
	locale, err := validation.NormalizeLocale(req.Locale)
	if err != nil {
		return nil, err
	}

	namespace := strings.ToLower(strings.TrimSpace(req.Namespace))
	scopes := []string{namespace}
	if namespace == "" {
		scopes, err = s.namespaces.Namespaces(ctx)
		if err != nil {
			return nil, err
		}
		if len(scopes) == 0 {
			scopes = []string{catalog.DefaultNamespace}
		}
		sort.Strings(scopes)
	}

	result := &Result{
		Locale:       locale,
		Namespace:    namespace,
		Translations: make(map[string]string),
		GeneratedAt:  s.now(),
	}

	degraded := false
	for _, scope := range scopes {
		snap, err := s.snapshotOrFallback(ctx, locale, scope)
		if err != nil {
			return nil, err
		}
		for key, value := range snap.Entries {
			result.Translations[key] = value
		}
		if snap.Token == 0 {
			degraded = true
		}
		if snap.Token > result.Version {
			result.Version = snap.Token
		}
		if snap.GeneratedAt.After(result.GeneratedAt) {
			result.GeneratedAt = snap.GeneratedAt
		}
	}
	if degraded {
		result.Version = 0
	}

	if len(req.Keys) > 0 {
		result.Translations = filterKeys(result.Translations, req.Keys)
	}
	return result, nil
}

// snapshotOrFallback reads through the cache; when the rebuild window is
// exhausted it answers from the store with a zero token so clients skip
// caching the degraded payload.
func (s *service) snapshotOrFallback(ctx context.Context, locale, namespace string) (*snapshot.Snapshot, error) {
	snap, err := s.snapshots.Get(ctx, locale, namespace)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, snapshot.ErrRebuildTimeout) {
		return nil, err
	}

	s.logger.Warn("snapshot rebuild timed out, serving direct read",
		"locale", locale, "namespace", namespace)
	rows, err := s.rows.ListPublished(ctx, locale, namespace)
	if err != nil {
		return nil, err
	}
	return snapshot.Build(locale, namespace, 0, rows, s.now()), nil
}

func (s *service) Resolve(ctx context.Context, req ResolveRequest) (string, error) {
	locale, err := validation.NormalizeLocale(req.Locale)
	if err != nil {
		return "", err
	}
	keyName := strings.TrimSpace(req.Key)
	if keyName == "" {
		return "", ErrKeyRequired
	}

	template, err := s.lookup(ctx, locale, keyName, req.Count)
	if err != nil {
		return "", err
	}
	return interpolate.Render(template, req.Variables)
}

func (s *service) lookup(ctx context.Context, locale, keyName string, count *int) (string, error) {
	namespace := catalog.NamespaceFor(keyName)
	snap, err := s.snapshotOrFallback(ctx, locale, namespace)
	if err != nil {
		return "", err
	}

	if value, ok := snap.Entries[keyName]; ok {
		return value, nil
	}

	forms := make(map[string]string)
	for _, category := range validation.PluralCategories() {
		if form, ok := snap.Entries[snapshot.PluralEntryKey(keyName, category)]; ok {
			forms[category] = form
		}
	}
	if len(forms) > 0 {
		if count == nil {
			return "", ErrCountRequired
		}
		if form, ok := interpolate.PluralForm(forms, *count); ok {
			return form, nil
		}
		return "", ErrCountRequired
	}

	// Not in the snapshot: authoritative miss check against the store.
	row, err := s.rows.GetPublished(ctx, keyName, locale)
	if err != nil {
		return "", err
	}
	if len(row.Plural) > 0 {
		if count == nil {
			return "", ErrCountRequired
		}
		if form, ok := interpolate.PluralForm(row.Plural, *count); ok {
			return form, nil
		}
		return "", ErrCountRequired
	}
	return row.Value, nil
}

// filterKeys keeps entries whose base key (plural suffixes stripped) is in
// keys.
func filterKeys(entries map[string]string, keys []string) map[string]string {
	want := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key != "" {
			want[key] = struct{}{}
		}
	}

	out := make(map[string]string, len(want))
	for entryKey, value := range entries {
		base := entryKey
		if idx := strings.IndexByte(entryKey, '#'); idx >= 0 {
			base = entryKey[:idx]
		}
		if _, ok := want[base]; ok {
			out[entryKey] = value
		}
	}
	return out
}
