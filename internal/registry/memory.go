package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
)

// MemoryKeyRepository is an in-memory implementation for embedding and tests.
type MemoryKeyRepository struct {
	mu        sync.RWMutex
	keys      map[uuid.UUID]*catalog.Key
	nameIndex map[string]uuid.UUID
}

// NewMemoryKeyRepository creates an empty in-memory key repository.
func NewMemoryKeyRepository() *MemoryKeyRepository {
	return &MemoryKeyRepository{
		keys:      make(map[uuid.UUID]*catalog.Key),
		nameIndex: make(map[string]uuid.UUID),
	}
}

// Put inserts or replaces a key; seeding helper.
func (m *MemoryKeyRepository) Put(record *catalog.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := cloneKey(record)
	m.keys[copied.ID] = copied
	m.nameIndex[copied.Name] = copied.ID
}

func (m *MemoryKeyRepository) Create(_ context.Context, record *catalog.Key) (*catalog.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneKey(record)
	m.keys[copied.ID] = copied
	m.nameIndex[copied.Name] = copied.ID
	return cloneKey(copied), nil
}

func (m *MemoryKeyRepository) GetByName(_ context.Context, name string) (*catalog.Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.nameIndex[name]
	if !ok {
		return nil, &NotFoundError{Resource: "key", Key: name}
	}
	return cloneKey(m.keys[id]), nil
}

func (m *MemoryKeyRepository) GetByID(_ context.Context, id uuid.UUID) (*catalog.Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.keys[id]
	if !ok {
		return nil, &NotFoundError{Resource: "key", Key: id.String()}
	}
	return cloneKey(record), nil
}

func (m *MemoryKeyRepository) List(_ context.Context, filter KeyFilter) ([]*catalog.Key, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*catalog.Key, 0, len(m.keys))
	for _, record := range m.keys {
		if filter.Namespace != "" && record.Namespace != filter.Namespace {
			continue
		}
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		if filter.Active != nil && record.Active != *filter.Active {
			continue
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]*catalog.Key, 0, len(matched))
	for _, record := range matched {
		out = append(out, cloneKey(record))
	}
	return out, total, nil
}

func (m *MemoryKeyRepository) Update(_ context.Context, record *catalog.Key, _ ...string) (*catalog.Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[record.ID]; !ok {
		return nil, &NotFoundError{Resource: "key", Key: record.Name}
	}
	copied := cloneKey(record)
	m.keys[copied.ID] = copied
	m.nameIndex[copied.Name] = copied.ID
	return cloneKey(copied), nil
}

func (m *MemoryKeyRepository) Namespaces(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, record := range m.keys {
		if record.Active {
			seen[record.Namespace] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for namespace := range seen {
		out = append(out, namespace)
	}
	sort.Strings(out)
	return out, nil
}

func cloneKey(src *catalog.Key) *catalog.Key {
	if src == nil {
		return nil
	}
	copied := *src
	if len(src.Variables) > 0 {
		copied.Variables = append([]string(nil), src.Variables...)
	}
	return &copied
}

// MemoryLocaleRepository stores locales in-memory.
type MemoryLocaleRepository struct {
	mu        sync.RWMutex
	locales   map[uuid.UUID]*catalog.Locale
	codeIndex map[string]uuid.UUID
}

// NewMemoryLocaleRepository constructs the repository.
func NewMemoryLocaleRepository() *MemoryLocaleRepository {
	return &MemoryLocaleRepository{
		locales:   make(map[uuid.UUID]*catalog.Locale),
		codeIndex: make(map[string]uuid.UUID),
	}
}

// Put inserts or replaces a locale; seeding helper.
func (m *MemoryLocaleRepository) Put(record *catalog.Locale) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *record
	m.locales[copied.ID] = &copied
	m.codeIndex[copied.Code] = copied.ID
}

func (m *MemoryLocaleRepository) Create(_ context.Context, record *catalog.Locale) (*catalog.Locale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.locales[copied.ID] = &copied
	m.codeIndex[copied.Code] = copied.ID
	out := copied
	return &out, nil
}

func (m *MemoryLocaleRepository) GetByCode(_ context.Context, code string) (*catalog.Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codeIndex[code]
	if !ok {
		return nil, &NotFoundError{Resource: "locale", Key: code}
	}
	copied := *m.locales[id]
	return &copied, nil
}

func (m *MemoryLocaleRepository) List(_ context.Context) ([]*catalog.Locale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.Locale, 0, len(m.locales))
	for _, record := range m.locales {
		copied := *record
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
