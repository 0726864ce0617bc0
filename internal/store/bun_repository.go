package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/history"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunTranslationRepository persists translation rows. Reads go through the
// generic repository; writes run raw statements inside a transaction so the
// version guard and the history insert commit together. Rows are served
// straight from the database: the snapshot tiers are the read cache, and a
// row cache here would go stale the moment a CAS write lands.
type BunTranslationRepository struct {
	db      *bun.DB
	repo    repository.Repository[*catalog.Translation]
	history history.Repository
}

func NewBunTranslationRepository(db *bun.DB, hist history.Repository) *BunTranslationRepository {
	return &BunTranslationRepository{
		db:      db,
		repo:    NewTranslationRepository(db),
		history: hist,
	}
}

func (r *BunTranslationRepository) Get(ctx context.Context, keyName, locale string) (*catalog.Translation, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.key_name = ?", keyName).
				Where("?TableAlias.locale = ?", locale)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapTranslationError(err, keyName+"/"+locale)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "translation", Key: keyName + "/" + locale}
	}
	return records[0], nil
}

func (r *BunTranslationRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Translation, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapTranslationError(err, id.String())
	}
	return record, nil
}

func (r *BunTranslationRepository) GetPublished(ctx context.Context, keyName, locale string) (*catalog.Translation, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.key_name = ?", keyName).
				Where("?TableAlias.locale = ?", locale).
				Where("?TableAlias.status = ?", catalog.StatusPublished)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapTranslationError(err, keyName+"/"+locale)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "published translation", Key: keyName + "/" + locale}
	}
	return records[0], nil
}

func (r *BunTranslationRepository) ListPublished(ctx context.Context, locale, namespace string) ([]*catalog.Translation, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.locale = ?", locale).
				Where("?TableAlias.status = ?", catalog.StatusPublished)
			if namespace != "" {
				q = q.Where("?TableAlias.namespace = ?", namespace)
			}
			return q.OrderExpr("?TableAlias.key_name ASC")
		}),
	)
	if err != nil {
		return nil, mapTranslationError(err, locale)
	}
	return records, nil
}

func (r *BunTranslationRepository) Create(ctx context.Context, row *catalog.Translation, entry *catalog.HistoryEntry) (*catalog.Translation, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert translation %s/%s: %w", row.KeyName, row.Locale, err)
		}
		return r.history.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *BunTranslationRepository) UpdateCAS(ctx context.Context, row *catalog.Translation, expectedVersion int64, entry *catalog.HistoryEntry) (*catalog.Translation, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(row).
			WherePK().
			Where("?TableAlias.version = ?", expectedVersion).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update translation %s/%s: %w", row.KeyName, row.Locale, err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			current := &catalog.Translation{}
			err := tx.NewSelect().
				Model(current).
				Where("?TableAlias.id = ?", row.ID).
				Scan(ctx)
			if errors.Is(err, sql.ErrNoRows) {
				return &NotFoundError{Resource: "translation", Key: row.KeyName + "/" + row.Locale}
			}
			if err != nil {
				return fmt.Errorf("reload translation %s/%s: %w", row.KeyName, row.Locale, err)
			}
			return &ConflictError{Expected: expectedVersion, Actual: current.Version, Status: current.Status}
		}
		return r.history.Append(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func mapTranslationError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: "translation",
			Key:      key,
		}
	}
	return fmt.Errorf("translation repository error: %w", err)
}
