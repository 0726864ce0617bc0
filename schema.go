package translations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/catalog"
)

// SchemaModels lists the bun models the module persists, in dependency
// order. Hosts with their own migration tooling can generate DDL from these
// instead of calling CreateSchema.
func SchemaModels() []any {
	return []any{
		(*catalog.Locale)(nil),
		(*catalog.Key)(nil),
		(*catalog.Translation)(nil),
		(*catalog.HistoryEntry)(nil),
		(*catalog.SnapshotRecord)(nil),
	}
}

// CreateSchema creates the module's tables when they do not exist. It is
// idempotent and leaves existing tables untouched, so hosts without a
// migration pipeline can call it on every boot.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range SchemaModels() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("translations: create table for %T: %w", model, err)
		}
	}
	return nil
}
