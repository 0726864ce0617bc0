package history

import (
	"context"
	"fmt"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the append-only audit log. There is deliberately no update
// or delete path: entries are immutable once written.
type Repository interface {
	// Append writes one entry. When idb is non-nil the insert joins the
	// caller's transaction; status changes and their audit rows must commit
	// together.
	Append(ctx context.Context, idb bun.IDB, entry *catalog.HistoryEntry) error
	List(ctx context.Context, keyName, locale string, limit int) ([]*catalog.HistoryEntry, error)
	ByActor(ctx context.Context, actor uuid.UUID, limit int) ([]*catalog.HistoryEntry, error)
	Entry(ctx context.Context, keyName, locale string, toVersion int64) (*catalog.HistoryEntry, error)
}

// NotFoundError represents a missing history entry.
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

func NewHistoryRepository(db *bun.DB) repository.Repository[*catalog.HistoryEntry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*catalog.HistoryEntry]{
		NewRecord: func() *catalog.HistoryEntry { return &catalog.HistoryEntry{} },
		GetID: func(h *catalog.HistoryEntry) uuid.UUID {
			return h.ID
		},
		SetID: func(h *catalog.HistoryEntry, id uuid.UUID) {
			h.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(h *catalog.HistoryEntry) string {
			if h == nil {
				return ""
			}
			return h.ID.String()
		},
	})
}
