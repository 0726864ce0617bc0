package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/validation"
	"github.com/google/uuid"
)

func newService(opts ...registry.ServiceOption) registry.Service {
	return registry.NewService(registry.NewMemoryKeyRepository(), registry.NewMemoryLocaleRepository(), opts...)
}

func editor() catalog.Identity {
	return catalog.Identity{UserID: uuid.New(), Role: catalog.RoleEditor}
}

func TestRegisterKeyNormalizesAndDefaultsNamespace(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	key, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{
		Identity:  editor(),
		Name:      " Checkout.Cart.Title ",
		Variables: []string{"name", "name", " count "},
	})
	if err != nil {
		t.Fatalf("register key: %v", err)
	}
	if key.Name != "checkout.cart.title" {
		t.Fatalf("expected normalized name got %q", key.Name)
	}
	if key.Namespace != "checkout" {
		t.Fatalf("expected namespace from first segment got %q", key.Namespace)
	}
	if len(key.Variables) != 2 || key.Variables[0] != "name" || key.Variables[1] != "count" {
		t.Fatalf("expected deduplicated variables got %v", key.Variables)
	}
	if !key.Active {
		t.Fatalf("expected new key active")
	}
}

func TestRegisterKeyRejectsDuplicates(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{Identity: editor(), Name: "common.welcome"}); err != nil {
		t.Fatalf("register key: %v", err)
	}
	_, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{Identity: editor(), Name: "common.welcome"})
	if !errors.Is(err, registry.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error got %v", err)
	}

	// Deactivated names stay reserved.
	if _, err := svc.DeactivateKey(ctx, "common.welcome", editor()); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = svc.RegisterKey(ctx, registry.RegisterKeyRequest{Identity: editor(), Name: "common.welcome"})
	if !errors.Is(err, registry.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error for inactive name got %v", err)
	}
}

func TestRegisterKeyValidation(t *testing.T) {
	svc := newService(registry.WithMaxVariables(2))
	ctx := context.Background()

	if _, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{Identity: editor(), Name: "bad..name"}); !errors.Is(err, validation.ErrKeyNameInvalid) {
		t.Fatalf("expected key name error got %v", err)
	}
	if _, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{Name: "common.ok"}); !errors.Is(err, registry.ErrActorRequired) {
		t.Fatalf("expected actor error got %v", err)
	}
	if _, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{
		Identity:  editor(),
		Name:      "common.vars",
		Variables: []string{"a", "b", "c"},
	}); !errors.Is(err, validation.ErrTooManyVariables) {
		t.Fatalf("expected variable cap error got %v", err)
	}
}

func TestDeactivateKeyIsIdempotent(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	actor := editor()

	if _, err := svc.RegisterKey(ctx, registry.RegisterKeyRequest{Identity: actor, Name: "common.bye"}); err != nil {
		t.Fatalf("register key: %v", err)
	}

	first, err := svc.DeactivateKey(ctx, "common.bye", actor)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if first.Active {
		t.Fatalf("expected inactive key")
	}

	second, err := svc.DeactivateKey(ctx, "common.bye", actor)
	if err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	if second.Active {
		t.Fatalf("expected key to stay inactive")
	}

	var notFound *registry.NotFoundError
	if _, err := svc.DeactivateKey(ctx, "common.missing", actor); !errors.As(err, &notFound) {
		t.Fatalf("expected not found error got %v", err)
	}
}

func TestListKeysFilters(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	actor := editor()

	seed := []registry.RegisterKeyRequest{
		{Identity: actor, Name: "checkout.cart.title", Category: "ui"},
		{Identity: actor, Name: "checkout.cart.subtitle", Category: "ui"},
		{Identity: actor, Name: "emails.receipt.subject", Category: "email"},
	}
	for _, req := range seed {
		if _, err := svc.RegisterKey(ctx, req); err != nil {
			t.Fatalf("register %s: %v", req.Name, err)
		}
	}
	if _, err := svc.DeactivateKey(ctx, "checkout.cart.subtitle", actor); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	keys, total, err := svc.ListKeys(ctx, registry.ListKeysRequest{Namespace: "checkout"})
	if err != nil {
		t.Fatalf("list keys: %v", err)
	}
	if total != 2 || len(keys) != 2 {
		t.Fatalf("expected 2 checkout keys got %d (%d total)", len(keys), total)
	}

	active := true
	keys, _, err = svc.ListKeys(ctx, registry.ListKeysRequest{Namespace: "checkout", Active: &active})
	if err != nil {
		t.Fatalf("list active keys: %v", err)
	}
	if len(keys) != 1 || keys[0].Name != "checkout.cart.title" {
		t.Fatalf("expected only the active checkout key got %v", keys)
	}

	keys, _, err = svc.ListKeys(ctx, registry.ListKeysRequest{Category: "email"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(keys) != 1 || keys[0].Name != "emails.receipt.subject" {
		t.Fatalf("expected email key got %v", keys)
	}

	namespaces, err := svc.Namespaces(ctx)
	if err != nil {
		t.Fatalf("namespaces: %v", err)
	}
	if len(namespaces) != 2 || namespaces[0] != "checkout" || namespaces[1] != "emails" {
		t.Fatalf("expected [checkout emails] got %v", namespaces)
	}
}

func TestEnsureLocaleDeterministicAndIdempotent(t *testing.T) {
	svc := newService(registry.WithLocales("en", []string{"en", "es-MX"}))
	ctx := context.Background()

	first, err := svc.EnsureLocale(ctx, "ES-mx", "Spanish (Mexico)")
	if err != nil {
		t.Fatalf("ensure locale: %v", err)
	}
	if first.Code != "es-MX" {
		t.Fatalf("expected normalized code got %q", first.Code)
	}

	second, err := svc.EnsureLocale(ctx, "es-MX", "ignored on existing")
	if err != nil {
		t.Fatalf("ensure locale twice: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected stable locale id, got %s then %s", first.ID, second.ID)
	}
	if second.Display != "Spanish (Mexico)" {
		t.Fatalf("expected original display got %q", second.Display)
	}

	if _, err := svc.EnsureLocale(ctx, "not-a-locale", ""); !errors.Is(err, validation.ErrLocaleInvalid) {
		t.Fatalf("expected locale error got %v", err)
	}
}

func TestEnsureDefaultsSeedsConfiguredLocales(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := newService(
		registry.WithLocales("en", []string{"en", "es", "fr"}),
		registry.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	seeded, err := svc.EnsureDefaults(ctx)
	if err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	if len(seeded) != 3 {
		t.Fatalf("expected 3 locales got %d", len(seeded))
	}

	locales, err := svc.ListLocales(ctx)
	if err != nil {
		t.Fatalf("list locales: %v", err)
	}
	if len(locales) != 3 {
		t.Fatalf("expected 3 stored locales got %d", len(locales))
	}

	en, err := svc.LocaleByCode(ctx, "en")
	if err != nil {
		t.Fatalf("locale by code: %v", err)
	}
	if !en.IsDefault {
		t.Fatalf("expected en to be the default locale")
	}
	es, err := svc.LocaleByCode(ctx, "es")
	if err != nil {
		t.Fatalf("locale by code: %v", err)
	}
	if es.IsDefault {
		t.Fatalf("expected es not to be the default locale")
	}

	// Re-seeding is a no-op.
	if _, err := svc.EnsureDefaults(ctx); err != nil {
		t.Fatalf("ensure defaults twice: %v", err)
	}
	locales, _ = svc.ListLocales(ctx)
	if len(locales) != 3 {
		t.Fatalf("expected seeding to stay idempotent, got %d locales", len(locales))
	}
}
