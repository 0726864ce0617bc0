package snapshot

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists snapshots as the durable tier. It stays deliberately
// uncached: these rows back the cache, so another cache layer in front of
// them could hand the manager a token older than one it already served.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*catalog.SnapshotRecord]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db, repo: NewSnapshotRepository(db)}
}

func NewSnapshotRepository(db *bun.DB) repository.Repository[*catalog.SnapshotRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*catalog.SnapshotRecord]{
		NewRecord: func() *catalog.SnapshotRecord { return &catalog.SnapshotRecord{} },
		GetID: func(s *catalog.SnapshotRecord) uuid.UUID {
			return s.ID
		},
		SetID: func(s *catalog.SnapshotRecord, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(s *catalog.SnapshotRecord) string {
			return s.ID.String()
		},
	})
}

func (r *BunRepository) Get(ctx context.Context, locale, namespace string) (*catalog.SnapshotRecord, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.locale = ?", locale).
				Where("?TableAlias.namespace = ?", namespace)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("snapshot repository error: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Put inserts or replaces the row for (locale, namespace). The deterministic
// ID keeps replay across instances idempotent; the conflict target is the
// unique scope index so racing writers last-write-win on token.
func (r *BunRepository) Put(ctx context.Context, record *catalog.SnapshotRecord) error {
	_, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (locale, namespace) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("entries = EXCLUDED.entries").
		Set("generated_at = EXCLUDED.generated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s/%s: %w", record.Locale, record.Namespace, err)
	}
	return nil
}

func (r *BunRepository) Delete(ctx context.Context, locale, namespace string) error {
	_, err := r.db.NewDelete().
		Model((*catalog.SnapshotRecord)(nil)).
		Where("?TableAlias.locale = ?", locale).
		Where("?TableAlias.namespace = ?", namespace).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete snapshot %s/%s: %w", locale, namespace, err)
	}
	return nil
}

var _ Repository = (*BunRepository)(nil)
