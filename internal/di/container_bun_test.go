package di_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/di"
	"github.com/goliatone/go-translations/internal/identity"
	"github.com/goliatone/go-translations/internal/query"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/runtimeconfig"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)
	createCatalogTables(t, bunDB)
	return bunDB
}

func createCatalogTables(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()
	models := []any{
		(*catalog.Locale)(nil),
		(*catalog.Key)(nil),
		(*catalog.Translation)(nil),
		(*catalog.HistoryEntry)(nil),
		(*catalog.SnapshotRecord)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("create table for %T: %v", model, err)
		}
	}
}

func bunConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales.Default = "en"
	cfg.Locales.Enabled = []string{"en", "es"}
	cfg.Logging.Level = "error"
	return cfg
}

func TestContainerSeedsLocalesInEmptyDatabase(t *testing.T) {
	bunDB := newBunDB(t)

	container, err := di.NewContainer(bunConfig(), di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}

	ctx := context.Background()

	// Database-backed containers wait for the host: nothing is written
	// until EnsureDefaults runs after migrations.
	count, err := bunDB.NewSelect().Model((*catalog.Locale)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count locales: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no locales before EnsureDefaults, got %d", count)
	}

	if err := container.EnsureDefaults(ctx); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}

	count, err = bunDB.NewSelect().Model((*catalog.Locale)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count locales: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 locales, got %d", count)
	}

	var en catalog.Locale
	if err := bunDB.NewSelect().Model(&en).Where("code = ?", "en").Scan(ctx); err != nil {
		t.Fatalf("select en locale: %v", err)
	}
	if expected := identity.LocaleUUID("en"); en.ID != expected {
		t.Fatalf("expected deterministic en locale id %s, got %s", expected, en.ID)
	}
	if !en.IsDefault {
		t.Fatal("expected en to be flagged as the default locale")
	}
}

func TestContainerEnsureDefaultsDoesNotOverrideExistingLocales(t *testing.T) {
	bunDB := newBunDB(t)
	ctx := context.Background()

	existingID := uuid.New()
	if _, err := bunDB.NewInsert().Model(&catalog.Locale{
		ID:       existingID,
		Code:     "en",
		Display:  "Existing",
		IsActive: true,
	}).Exec(ctx); err != nil {
		t.Fatalf("insert existing locale: %v", err)
	}

	container, err := di.NewContainer(bunConfig(), di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	if err := container.EnsureDefaults(ctx); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}

	var en catalog.Locale
	if err := bunDB.NewSelect().Model(&en).Where("code = ?", "en").Scan(ctx); err != nil {
		t.Fatalf("select en locale: %v", err)
	}
	if en.ID != existingID {
		t.Fatalf("expected existing locale id %s, got %s", existingID, en.ID)
	}
	if en.Display != "Existing" {
		t.Fatalf("expected existing locale display to remain, got %q", en.Display)
	}

	count, err := bunDB.NewSelect().Model((*catalog.Locale)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count locales: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected en to be kept and es to be added, got %d locales", count)
	}
}

func TestContainerPublishLifecycleOverBun(t *testing.T) {
	bunDB := newBunDB(t)
	ctx := context.Background()

	container, err := di.NewContainer(bunConfig(), di.WithBunDB(bunDB))
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	if err := container.EnsureDefaults(ctx); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}

	editor := catalog.Identity{UserID: uuid.New(), Role: catalog.RoleEditor}
	reviewer := catalog.Identity{UserID: uuid.New(), Role: catalog.RoleReviewer}
	manager := catalog.Identity{UserID: uuid.New(), Role: catalog.RoleManager}

	if _, err := container.Registry().RegisterKey(ctx, registry.RegisterKeyRequest{
		Identity: manager,
		Name:     "checkout.cart.title",
	}); err != nil {
		t.Fatalf("register key: %v", err)
	}

	row, err := container.Mutations().UpsertDraft(ctx, store.UpsertDraftRequest{
		Identity: editor,
		KeyName:  "checkout.cart.title",
		Locale:   "en",
		Value:    "Cart",
	})
	if err != nil {
		t.Fatalf("upsert draft: %v", err)
	}

	steps := []struct {
		identity catalog.Identity
		action   catalog.Action
		reason   string
	}{
		{editor, catalog.ActionSubmit, ""},
		{reviewer, catalog.ActionApprove, "reviewed"},
		{manager, catalog.ActionPublish, "release"},
	}
	for _, step := range steps {
		row, err = container.Mutations().Transition(ctx, store.TransitionRequest{
			Identity:        step.identity,
			KeyName:         "checkout.cart.title",
			Locale:          "en",
			Action:          step.action,
			ExpectedVersion: row.Version,
			Reason:          step.reason,
		})
		if err != nil {
			t.Fatalf("%s: %v", step.action, err)
		}
	}

	result, err := container.Queries().GetTranslations(ctx, query.Request{Locale: "en"})
	if err != nil {
		t.Fatalf("get translations: %v", err)
	}
	if result.Translations["checkout.cart.title"] != "Cart" {
		t.Fatalf("expected published value, got %q", result.Translations["checkout.cart.title"])
	}
	if result.Version == 0 {
		t.Fatal("expected a snapshot version token, got degraded read")
	}

	historyCount, err := bunDB.NewSelect().Model((*catalog.HistoryEntry)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count history: %v", err)
	}
	if historyCount != 4 {
		t.Fatalf("expected 4 history rows, got %d", historyCount)
	}

	snapshotCount, err := bunDB.NewSelect().
		Model((*catalog.SnapshotRecord)(nil)).
		Where("locale = ?", "en").
		Count(ctx)
	if err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if snapshotCount == 0 {
		t.Fatal("expected the rebuilt snapshot to land in the durable tier")
	}
}
