package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MemoryRepository is an in-memory append-only log for embedding and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*catalog.HistoryEntry
}

// NewMemoryRepository creates an empty in-memory history log.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Append(_ context.Context, _ bun.IDB, entry *catalog.HistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("history: entry is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *MemoryRepository) List(_ context.Context, keyName, locale string, limit int) ([]*catalog.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.HistoryEntry, 0)
	for _, entry := range m.entries {
		if entry.KeyName == keyName && entry.Locale == locale {
			copied := *entry
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToVersion > out[j].ToVersion })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) ByActor(_ context.Context, actor uuid.UUID, limit int) ([]*catalog.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.HistoryEntry, 0)
	for _, entry := range m.entries {
		if entry.Actor == actor {
			copied := *entry
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ToVersion > out[j].ToVersion
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Entry(_ context.Context, keyName, locale string, toVersion int64) (*catalog.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.entries {
		if entry.KeyName == keyName && entry.Locale == locale && entry.ToVersion == toVersion {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, &NotFoundError{Resource: "history_entry", Key: fmt.Sprintf("%s/%s@%d", keyName, locale, toVersion)}
}
