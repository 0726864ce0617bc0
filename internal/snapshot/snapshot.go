package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-translations/catalog"
)

// ErrRebuildTimeout reports that a cache miss could not be repaired within
// the configured rebuild window. Callers fall back to a direct store read.
var ErrRebuildTimeout = errors.New("snapshot: rebuild timed out")

// ErrNotFound reports that no snapshot exists for the requested scope and
// the manager was asked not to rebuild one.
var ErrNotFound = errors.New("snapshot: not found")

// ErrLocaleRequired reports an empty locale argument.
var ErrLocaleRequired = errors.New("snapshot: locale is required")

// Snapshot is the read-optimized published map for one (locale, namespace).
// Entries hold rendered values keyed by translation key name; plural keys
// carry their serialized plural forms under "<key>#<category>".
type Snapshot struct {
	Locale      string            `json:"locale"`
	Namespace   string            `json:"namespace"`
	Token       int64             `json:"token"`
	Entries     map[string]string `json:"entries"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Clone returns a copy safe to hand to callers; the manager caches the
// original and must never observe external mutation.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Locale:      s.Locale,
		Namespace:   s.Namespace,
		Token:       s.Token,
		GeneratedAt: s.GeneratedAt,
		Entries:     make(map[string]string, len(s.Entries)),
	}
	for k, v := range s.Entries {
		out.Entries[k] = v
	}
	return out
}

// Source lists the published rows a snapshot is built from. store.Service
// satisfies it.
type Source interface {
	ListPublished(ctx context.Context, locale, namespace string) ([]*catalog.Translation, error)
}

// Repository persists built snapshots as the durable tier. Records survive
// process restarts and seed the warmer tiers after a cold start.
type Repository interface {
	Get(ctx context.Context, locale, namespace string) (*catalog.SnapshotRecord, error)
	Put(ctx context.Context, record *catalog.SnapshotRecord) error
	Delete(ctx context.Context, locale, namespace string) error
}

// TokenSource issues version tokens for freshly built snapshots. Tokens are
// strictly monotonic per process so a rebuilt snapshot always outranks the
// one it replaces, and comparisons against row versions stay meaningful.
type TokenSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTokenSource returns a TokenSource backed by the supplied clock.
func NewTokenSource(now func() time.Time) *TokenSource {
	if now == nil {
		now = time.Now
	}
	return &TokenSource{now: now}
}

// Next returns a token greater than every token issued before it and
// strictly greater than floor. The high bits carry a millisecond timestamp
// and the low 16 bits a counter, so tokens order across rebuilds within the
// same millisecond and always dominate row versions.
func (t *TokenSource) Next(floor int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	token := t.now().UnixMilli() << 16
	if token <= t.last {
		token = t.last + 1
	}
	if token <= floor {
		token = floor + 1
	}
	t.last = token
	return token
}

// Observe raises the monotonic floor so tokens loaded from the durable tier
// are never reissued after a restart.
func (t *TokenSource) Observe(token int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token > t.last {
		t.last = token
	}
}

// Build assembles a snapshot from published rows. Plural translations expand
// into one entry per CLDR category so render paths stay map lookups.
func Build(locale, namespace string, token int64, rows []*catalog.Translation, generatedAt time.Time) *Snapshot {
	entries := make(map[string]string, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		if len(row.Plural) > 0 {
			for category, form := range row.Plural {
				entries[row.KeyName+"#"+category] = form
			}
			continue
		}
		entries[row.KeyName] = row.Value
	}
	return &Snapshot{
		Locale:      locale,
		Namespace:   namespace,
		Token:       token,
		Entries:     entries,
		GeneratedAt: generatedAt,
	}
}

// PluralEntryKey returns the entry key a plural form is stored under.
func PluralEntryKey(keyName, category string) string {
	return keyName + "#" + category
}
