package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// MemoryCache is an in-process interfaces.CacheProvider. It is the default
// shared tier when no distributed cache is injected, so the manager behaves
// the same single-instance as it does behind Redis.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value     any
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (any, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, nil
	}
	return item.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()
	return nil
}

var _ interfaces.CacheProvider = (*MemoryCache)(nil)

// MemoryRepository is an in-memory durable tier for embedding and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*catalog.SnapshotRecord
}

// NewMemoryRepository creates an empty in-memory snapshot repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*catalog.SnapshotRecord)}
}

func (m *MemoryRepository) Get(_ context.Context, locale, namespace string) (*catalog.SnapshotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[locale+"/"+namespace]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(record), nil
}

func (m *MemoryRepository) Put(_ context.Context, record *catalog.SnapshotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Locale+"/"+record.Namespace] = cloneRecord(record)
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, locale, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, locale+"/"+namespace)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)

func cloneRecord(record *catalog.SnapshotRecord) *catalog.SnapshotRecord {
	if record == nil {
		return nil
	}
	copied := *record
	copied.Entries = make(map[string]string, len(record.Entries))
	for k, v := range record.Entries {
		copied.Entries[k] = v
	}
	return &copied
}
