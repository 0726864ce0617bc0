package history

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*catalog.HistoryEntry]
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{
		db:   db,
		repo: NewHistoryRepository(db),
	}
}

func (r *BunRepository) Append(ctx context.Context, idb bun.IDB, entry *catalog.HistoryEntry) error {
	if entry == nil {
		return fmt.Errorf("history: entry is nil")
	}
	if idb == nil {
		idb = r.db
	}
	if _, err := idb.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("history: append %s/%s v%d: %w", entry.KeyName, entry.Locale, entry.ToVersion, err)
	}
	return nil
}

func (r *BunRepository) List(ctx context.Context, keyName, locale string, limit int) ([]*catalog.HistoryEntry, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.key_name = ?", keyName).
				Where("?TableAlias.locale = ?", locale).
				OrderExpr("?TableAlias.to_version DESC")
		}),
	}
	if limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(limit, 0))
	}
	records, _, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return nil, mapRepositoryError(err, "history", keyName+"/"+locale)
	}
	return records, nil
}

func (r *BunRepository) ByActor(ctx context.Context, actor uuid.UUID, limit int) ([]*catalog.HistoryEntry, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.actor = ?", actor).
				OrderExpr("?TableAlias.created_at DESC").
				OrderExpr("?TableAlias.to_version DESC")
		}),
	}
	if limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(limit, 0))
	}
	records, _, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return nil, mapRepositoryError(err, "history", actor.String())
	}
	return records, nil
}

func (r *BunRepository) Entry(ctx context.Context, keyName, locale string, toVersion int64) (*catalog.HistoryEntry, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.key_name = ?", keyName).
				Where("?TableAlias.locale = ?", locale).
				Where("?TableAlias.to_version = ?", toVersion)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "history_entry", fmt.Sprintf("%s/%s@%d", keyName, locale, toVersion))
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "history_entry", Key: fmt.Sprintf("%s/%s@%d", keyName, locale, toVersion)}
	}
	return records[0], nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
