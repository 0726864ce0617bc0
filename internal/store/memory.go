package store

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/history"
	"github.com/google/uuid"
)

// MemoryTranslationRepository is an in-memory row store for embedding and
// tests. It enforces the same version guard as the bun implementation.
type MemoryTranslationRepository struct {
	mu      sync.RWMutex
	rows    map[string]*catalog.Translation
	byID    map[uuid.UUID]string
	history history.Repository
}

func NewMemoryTranslationRepository(hist history.Repository) *MemoryTranslationRepository {
	return &MemoryTranslationRepository{
		rows:    make(map[string]*catalog.Translation),
		byID:    make(map[uuid.UUID]string),
		history: hist,
	}
}

func rowKey(keyName, locale string) string {
	return keyName + "\x00" + locale
}

// Put seeds a row directly, bypassing history. Test helper.
func (m *MemoryTranslationRepository) Put(row *catalog.Translation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := cloneTranslation(row)
	key := rowKey(copied.KeyName, copied.Locale)
	m.rows[key] = copied
	m.byID[copied.ID] = key
}

func (m *MemoryTranslationRepository) Get(_ context.Context, keyName, locale string) (*catalog.Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[rowKey(keyName, locale)]
	if !ok {
		return nil, &NotFoundError{Resource: "translation", Key: keyName + "/" + locale}
	}
	return cloneTranslation(row), nil
}

func (m *MemoryTranslationRepository) GetByID(_ context.Context, id uuid.UUID) (*catalog.Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "translation", Key: id.String()}
	}
	return cloneTranslation(m.rows[key]), nil
}

func (m *MemoryTranslationRepository) GetPublished(_ context.Context, keyName, locale string) (*catalog.Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[rowKey(keyName, locale)]
	if !ok || row.Status != catalog.StatusPublished {
		return nil, &NotFoundError{Resource: "published translation", Key: keyName + "/" + locale}
	}
	return cloneTranslation(row), nil
}

func (m *MemoryTranslationRepository) ListPublished(_ context.Context, locale, namespace string) ([]*catalog.Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.Translation, 0)
	for _, row := range m.rows {
		if row.Locale != locale || row.Status != catalog.StatusPublished {
			continue
		}
		if namespace != "" && row.Namespace != namespace {
			continue
		}
		out = append(out, cloneTranslation(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyName < out[j].KeyName })
	return out, nil
}

func (m *MemoryTranslationRepository) Create(ctx context.Context, row *catalog.Translation, entry *catalog.HistoryEntry) (*catalog.Translation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rowKey(row.KeyName, row.Locale)
	if existing, ok := m.rows[key]; ok {
		return nil, &ConflictError{Expected: 0, Actual: existing.Version, Status: existing.Status}
	}

	copied := cloneTranslation(row)
	m.rows[key] = copied
	m.byID[copied.ID] = key

	if err := m.history.Append(ctx, nil, entry); err != nil {
		delete(m.rows, key)
		delete(m.byID, copied.ID)
		return nil, err
	}
	return cloneTranslation(copied), nil
}

func (m *MemoryTranslationRepository) UpdateCAS(ctx context.Context, row *catalog.Translation, expectedVersion int64, entry *catalog.HistoryEntry) (*catalog.Translation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rowKey(row.KeyName, row.Locale)
	current, ok := m.rows[key]
	if !ok {
		return nil, &NotFoundError{Resource: "translation", Key: row.KeyName + "/" + row.Locale}
	}
	if current.Version != expectedVersion {
		return nil, &ConflictError{Expected: expectedVersion, Actual: current.Version, Status: current.Status}
	}

	copied := cloneTranslation(row)
	m.rows[key] = copied

	if err := m.history.Append(ctx, nil, entry); err != nil {
		m.rows[key] = current
		return nil, err
	}
	return cloneTranslation(copied), nil
}

func cloneTranslation(row *catalog.Translation) *catalog.Translation {
	if row == nil {
		return nil
	}
	copied := *row
	copied.Plural = clonePlural(row.Plural)
	if row.ReviewedBy != nil {
		v := *row.ReviewedBy
		copied.ReviewedBy = &v
	}
	if row.ReviewedAt != nil {
		v := *row.ReviewedAt
		copied.ReviewedAt = &v
	}
	if row.ApprovedBy != nil {
		v := *row.ApprovedBy
		copied.ApprovedBy = &v
	}
	if row.ApprovedAt != nil {
		v := *row.ApprovedAt
		copied.ApprovedAt = &v
	}
	if row.PublishedBy != nil {
		v := *row.PublishedBy
		copied.PublishedBy = &v
	}
	if row.PublishedAt != nil {
		v := *row.PublishedAt
		copied.PublishedAt = &v
	}
	return &copied
}
