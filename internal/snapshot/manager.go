package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/identity"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"golang.org/x/sync/singleflight"
)

const sharedKeyPrefix = "translations:snapshot:"

// Manager owns the three snapshot tiers and the rebuild path. Reads walk
// hot -> shared -> durable and fall through to a coalesced rebuild from the
// published rows; writes land in all three tiers.
type Manager struct {
	source  Source
	shared  interfaces.CacheProvider
	durable Repository
	tokens  *TokenSource
	logger  interfaces.Logger
	now     func() time.Time

	hotTTL         time.Duration
	sharedTTL      time.Duration
	durableTTL     time.Duration
	rebuildTimeout time.Duration

	group singleflight.Group

	mu     sync.RWMutex
	hot    map[string]*hotEntry
	floors map[string]int64
}

type hotEntry struct {
	snap      *Snapshot
	expiresAt time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSharedTier installs the cross-instance cache used as the middle tier.
func WithSharedTier(cache interfaces.CacheProvider) Option {
	return func(m *Manager) {
		if cache != nil {
			m.shared = cache
		}
	}
}

// WithDurableTier installs the persistent snapshot store used as the lowest
// tier and as the rebuild source after a cold start.
func WithDurableTier(repo Repository) Option {
	return func(m *Manager) {
		if repo != nil {
			m.durable = repo
		}
	}
}

// WithTTLs overrides the per-tier freshness windows.
func WithTTLs(hot, shared, durable time.Duration) Option {
	return func(m *Manager) {
		if hot > 0 {
			m.hotTTL = hot
		}
		if shared > 0 {
			m.sharedTTL = shared
		}
		if durable > 0 {
			m.durableTTL = durable
		}
	}
}

// WithRebuildTimeout bounds how long a read blocks on a miss before the
// manager gives up with ErrRebuildTimeout.
func WithRebuildTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.rebuildTimeout = d
		}
	}
}

// WithLogger overrides the manager logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTokenSource shares a token source across managers.
func WithTokenSource(tokens *TokenSource) Option {
	return func(m *Manager) {
		if tokens != nil {
			m.tokens = tokens
		}
	}
}

// NewManager builds a Manager reading misses from source. Without options it
// runs hot-tier only with library defaults.
func NewManager(source Source, opts ...Option) *Manager {
	m := &Manager{
		source:         source,
		logger:         logging.NoOp(),
		now:            time.Now,
		hotTTL:         15 * time.Minute,
		sharedTTL:      time.Hour,
		durableTTL:     time.Hour,
		rebuildTimeout: 2 * time.Second,
		hot:            make(map[string]*hotEntry),
		floors:         make(map[string]int64),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tokens == nil {
		m.tokens = NewTokenSource(m.now)
	}
	return m
}

// Get returns the snapshot for (locale, namespace), rebuilding it when no
// tier holds a fresh copy. Concurrent misses for the same scope collapse
// into one rebuild; if that rebuild does not finish within the configured
// window the caller receives ErrRebuildTimeout and the rebuild keeps running
// so its result still lands in the tiers.
func (m *Manager) Get(ctx context.Context, locale, namespace string) (*Snapshot, error) {
	locale, namespace, key, err := m.scope(locale, namespace)
	if err != nil {
		return nil, err
	}

	floor := m.floor(key)
	if snap := m.fromHot(key, floor); snap != nil {
		return snap.Clone(), nil
	}
	if snap := m.fromShared(ctx, key, floor); snap != nil {
		m.storeHot(key, snap)
		return snap.Clone(), nil
	}

	ch := m.group.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.rebuildTimeout)
		defer cancel()
		return m.rebuild(rctx, locale, namespace, key, true)
	})

	timer := time.NewTimer(m.rebuildTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, context.DeadlineExceeded) {
				return nil, ErrRebuildTimeout
			}
			return nil, res.Err
		}
		return res.Val.(*Snapshot).Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		m.logger.Warn("snapshot rebuild exceeded deadline",
			"locale", locale, "namespace", namespace, "timeout", m.rebuildTimeout)
		return nil, ErrRebuildTimeout
	}
}

// Peek returns the cached snapshot without triggering a rebuild, or
// ErrNotFound when no tier holds a fresh copy.
func (m *Manager) Peek(ctx context.Context, locale, namespace string) (*Snapshot, error) {
	_, _, key, err := m.scope(locale, namespace)
	if err != nil {
		return nil, err
	}

	floor := m.floor(key)
	if snap := m.fromHot(key, floor); snap != nil {
		return snap.Clone(), nil
	}
	if snap := m.fromShared(ctx, key, floor); snap != nil {
		m.storeHot(key, snap)
		return snap.Clone(), nil
	}
	return nil, ErrNotFound
}

// Invalidate marks every cached snapshot for (locale, namespace) older than
// this call stale. Hot and shared entries bearing a lower token are removed;
// the durable row stays until the next rebuild replaces it, but reads treat
// it as a miss. Nothing is rebuilt here: scopes with no readers never rebuild.
//
// Only the writing instance's manager is invalidated synchronously. Peers
// converge through the shared-tier delete and their hot-tier TTL; hosts that
// need a tighter bound feed peer change events into ApplyChange.
func (m *Manager) Invalidate(ctx context.Context, locale, namespace string, version int64) error {
	locale, namespace, key, err := m.scope(locale, namespace)
	if err != nil {
		return err
	}

	watermark := m.tokens.Next(version)

	m.mu.Lock()
	if watermark > m.floors[key] {
		m.floors[key] = watermark
	}
	if entry, ok := m.hot[key]; ok && entry.snap.Token < watermark {
		delete(m.hot, key)
	}
	m.mu.Unlock()

	if m.shared != nil {
		if snap := m.readShared(ctx, key); snap == nil || snap.Token < watermark {
			if err := m.shared.Delete(ctx, sharedKeyPrefix+key); err != nil {
				m.logger.Warn("shared tier invalidation failed",
					"locale", locale, "namespace", namespace, "error", err)
			}
		}
	}

	m.logger.Debug("snapshot invalidated",
		"locale", locale, "namespace", namespace, "version", version, "watermark", watermark)
	return nil
}

// ApplyChange applies one peer change event to the local cache. Hosts running
// several instances subscribe each one to the others' change feeds and pipe
// the frames here; editorial events that cannot move published content are
// ignored.
func (m *Manager) ApplyChange(ctx context.Context, event catalog.ChangeEvent) error {
	switch event.Type {
	case catalog.EventPublished, catalog.EventDeprecated, catalog.EventRolledBack:
		return m.Invalidate(ctx, event.Locale, event.Namespace, event.Version)
	}
	return nil
}

// Refresh rebuilds the snapshot from published rows immediately, skipping
// the durable tier as a source. The jobs worker uses it for asynchronous
// refresh after publish and deprecate.
func (m *Manager) Refresh(ctx context.Context, locale, namespace string) (*Snapshot, error) {
	locale, namespace, key, err := m.scope(locale, namespace)
	if err != nil {
		return nil, err
	}
	snap, err := m.rebuild(ctx, locale, namespace, key, false)
	if err != nil {
		return nil, err
	}
	return snap.Clone(), nil
}

// Drop removes every tier's entry for (locale, namespace), including the
// durable row. Used when a locale is disabled or a namespace is retired.
func (m *Manager) Drop(ctx context.Context, locale, namespace string) error {
	locale, namespace, key, err := m.scope(locale, namespace)
	if err != nil {
		return err
	}

	watermark := m.tokens.Next(0)
	m.mu.Lock()
	if watermark > m.floors[key] {
		m.floors[key] = watermark
	}
	delete(m.hot, key)
	m.mu.Unlock()

	if m.shared != nil {
		if err := m.shared.Delete(ctx, sharedKeyPrefix+key); err != nil {
			m.logger.Warn("shared tier drop failed",
				"locale", locale, "namespace", namespace, "error", err)
		}
	}
	if m.durable != nil {
		if err := m.durable.Delete(ctx, locale, namespace); err != nil {
			return fmt.Errorf("snapshot: drop durable %s/%s: %w", locale, namespace, err)
		}
	}
	return nil
}

func (m *Manager) scope(locale, namespace string) (string, string, string, error) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		return "", "", "", ErrLocaleRequired
	}
	namespace = strings.ToLower(strings.TrimSpace(namespace))
	if namespace == "" {
		namespace = catalog.DefaultNamespace
	}
	return locale, namespace, locale + "/" + namespace, nil
}

func (m *Manager) floor(key string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.floors[key]
}

func (m *Manager) fromHot(key string, floor int64) *Snapshot {
	m.mu.RLock()
	entry, ok := m.hot[key]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if entry.snap.Token < floor || m.now().After(entry.expiresAt) {
		return nil
	}
	return entry.snap
}

func (m *Manager) storeHot(key string, snap *Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Served tokens never go backwards, even when rebuilds race.
	if existing, ok := m.hot[key]; ok && existing.snap.Token > snap.Token {
		return
	}
	m.hot[key] = &hotEntry{snap: snap, expiresAt: m.now().Add(m.hotTTL)}
}

func (m *Manager) readShared(ctx context.Context, key string) *Snapshot {
	if m.shared == nil {
		return nil
	}
	raw, err := m.shared.Get(ctx, sharedKeyPrefix+key)
	if err != nil || raw == nil {
		return nil
	}
	snap, ok := raw.(*Snapshot)
	if !ok {
		return nil
	}
	return snap
}

func (m *Manager) fromShared(ctx context.Context, key string, floor int64) *Snapshot {
	snap := m.readShared(ctx, key)
	if snap == nil || snap.Token < floor {
		return nil
	}
	m.tokens.Observe(snap.Token)
	return snap
}

func (m *Manager) storeShared(ctx context.Context, key string, snap *Snapshot) {
	if m.shared == nil {
		return
	}
	if err := m.shared.Set(ctx, sharedKeyPrefix+key, snap, m.sharedTTL); err != nil {
		m.logger.Warn("shared tier write failed", "key", key, "error", err)
	}
}

// rebuild repairs a miss. With useDurable set it first tries the persisted
// row; otherwise, and whenever the row is stale, it queries the published
// rows and writes the result through every tier.
func (m *Manager) rebuild(ctx context.Context, locale, namespace, key string, useDurable bool) (*Snapshot, error) {
	floor := m.floor(key)

	if useDurable && m.durable != nil {
		record, err := m.durable.Get(ctx, locale, namespace)
		if err == nil && record != nil && record.Token >= floor &&
			m.now().Before(record.GeneratedAt.Add(m.durableTTL)) {
			m.tokens.Observe(record.Token)
			snap := &Snapshot{
				Locale:      record.Locale,
				Namespace:   record.Namespace,
				Token:       record.Token,
				Entries:     record.Entries,
				GeneratedAt: record.GeneratedAt,
			}
			m.storeShared(ctx, key, snap)
			m.storeHot(key, snap)
			return snap, nil
		}
	}

	rows, err := m.source.ListPublished(ctx, locale, namespace)
	if err != nil {
		return nil, fmt.Errorf("snapshot: list published %s/%s: %w", locale, namespace, err)
	}

	maxVersion := floor
	for _, row := range rows {
		if row != nil && row.Version > maxVersion {
			maxVersion = row.Version
		}
	}

	snap := Build(locale, namespace, m.tokens.Next(maxVersion), rows, m.now())

	if m.durable != nil {
		record := &catalog.SnapshotRecord{
			ID:          identity.SnapshotUUID(locale, namespace),
			Locale:      locale,
			Namespace:   namespace,
			Token:       snap.Token,
			Entries:     snap.Entries,
			GeneratedAt: snap.GeneratedAt,
		}
		if err := m.durable.Put(ctx, record); err != nil {
			m.logger.Warn("durable tier write failed",
				"locale", locale, "namespace", namespace, "error", err)
		}
	}
	m.storeShared(ctx, key, snap)
	m.storeHot(key, snap)

	m.logger.Debug("snapshot rebuilt",
		"locale", locale, "namespace", namespace, "token", snap.Token, "entries", len(snap.Entries))
	return snap, nil
}
