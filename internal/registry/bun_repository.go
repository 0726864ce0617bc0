package registry

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BunKeyRepository struct {
	db   *bun.DB
	repo repository.Repository[*catalog.Key]
}

func NewBunKeyRepository(db *bun.DB) *BunKeyRepository {
	return NewBunKeyRepositoryWithCache(db, nil, nil)
}

// NewBunKeyRepositoryWithCache constructs a KeyRepository with optional caching.
func NewBunKeyRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunKeyRepository {
	base := NewKeyRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunKeyRepository{db: db, repo: wrapped}
}

func (r *BunKeyRepository) Create(ctx context.Context, record *catalog.Key) (*catalog.Key, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunKeyRepository) GetByName(ctx context.Context, name string) (*catalog.Key, error) {
	record, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "key", name)
	}
	return record, nil
}

func (r *BunKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Key, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "key", id.String())
	}
	return record, nil
}

func (r *BunKeyRepository) List(ctx context.Context, filter KeyFilter) ([]*catalog.Key, int, error) {
	criteria := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if filter.Namespace != "" {
				q = q.Where("?TableAlias.namespace = ?", filter.Namespace)
			}
			if filter.Category != "" {
				q = q.Where("?TableAlias.category = ?", filter.Category)
			}
			if filter.Active != nil {
				q = q.Where("?TableAlias.active = ?", *filter.Active)
			}
			return q.OrderExpr("?TableAlias.name ASC")
		}),
	}
	if filter.Limit > 0 {
		criteria = append(criteria, repository.SelectPaginate(filter.Limit, filter.Offset))
	}
	records, total, err := r.repo.List(ctx, criteria...)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *BunKeyRepository) Update(ctx context.Context, record *catalog.Key, columns ...string) (*catalog.Key, error) {
	var criteria []repository.UpdateCriteria
	if len(columns) > 0 {
		criteria = append(criteria, repository.UpdateColumns(columns...))
	}
	updated, err := r.repo.Update(ctx, record, criteria...)
	if err != nil {
		return nil, mapRepositoryError(err, "key", record.Name)
	}
	return updated, nil
}

func (r *BunKeyRepository) Namespaces(ctx context.Context) ([]string, error) {
	var namespaces []string
	err := r.db.NewSelect().
		Model((*catalog.Key)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.namespace").
		Where("?TableAlias.active = ?", true).
		OrderExpr("namespace ASC").
		Scan(ctx, &namespaces)
	if err != nil {
		return nil, fmt.Errorf("key repository error: %w", err)
	}
	return namespaces, nil
}

type BunLocaleRepository struct {
	repo repository.Repository[*catalog.Locale]
}

func NewBunLocaleRepository(db *bun.DB) *BunLocaleRepository {
	return NewBunLocaleRepositoryWithCache(db, nil, nil)
}

// NewBunLocaleRepositoryWithCache constructs a LocaleRepository with optional caching.
func NewBunLocaleRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunLocaleRepository {
	base := NewLocaleRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunLocaleRepository{repo: wrapped}
}

func (r *BunLocaleRepository) Create(ctx context.Context, record *catalog.Locale) (*catalog.Locale, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunLocaleRepository) GetByCode(ctx context.Context, code string) (*catalog.Locale, error) {
	record, err := r.repo.GetByIdentifier(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err, "locale", code)
	}
	return record, nil
}

func (r *BunLocaleRepository) List(ctx context.Context) ([]*catalog.Locale, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.code ASC")
		}),
	)
	return records, err
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

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
