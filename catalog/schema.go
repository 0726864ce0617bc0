package catalog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the catalog tables and their uniqueness indexes when
// they do not exist yet. Embedders with managed migrations can skip it; the
// server binary and the test harnesses call it at bootstrap.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Locale)(nil),
		(*Key)(nil),
		(*Translation)(nil),
		(*HistoryEntry)(nil),
		(*SnapshotRecord)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("catalog: create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		name    string
		model   any
		columns []string
	}{
		{"idx_translation_locales_code", (*Locale)(nil), []string{"code"}},
		{"idx_translation_keys_name", (*Key)(nil), []string{"name"}},
		{"idx_translations_key_locale", (*Translation)(nil), []string{"key_name", "locale"}},
		{"idx_translation_snapshots_scope", (*SnapshotRecord)(nil), []string{"locale", "namespace"}},
	}
	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Unique().IfNotExists()
		for _, col := range idx.columns {
			q = q.Column(col)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("catalog: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
