package translationscmd

import (
	"testing"

	"github.com/goliatone/go-translations/catalog"
	"github.com/google/uuid"
)

func editorIdentity() catalog.Identity {
	return catalog.Identity{UserID: uuid.New(), Role: catalog.RoleEditor}
}

func TestUpsertDraftCommandValidate(t *testing.T) {
	cmd := UpsertDraftCommand{}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error for empty command")
	}

	cmd.Identity = editorIdentity()
	cmd.Key = "checkout.cart.title"
	cmd.Locale = "en"
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when value and plural forms missing")
	}

	cmd.Value = "Cart"
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd.Value = ""
	cmd.Plural = map[string]string{"one": "item", "other": "items"}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error with plural forms only: %v", err)
	}
}

func TestTransitionCommandValidateAction(t *testing.T) {
	cmd := TransitionCommand{
		Identity: editorIdentity(),
		Key:      "checkout.cart.title",
		Locale:   "en",
		Action:   catalog.ActionRollback,
	}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected rollback to be rejected as a transition action")
	}

	cmd.Action = catalog.ActionSubmit
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionCommandValidateTarget(t *testing.T) {
	cmd := TransitionCommand{
		Identity: editorIdentity(),
		Action:   catalog.ActionApprove,
	}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when no target given")
	}

	cmd.ID = uuid.New()
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error addressing by id: %v", err)
	}

	cmd.ID = uuid.Nil
	cmd.Key = "checkout.cart.title"
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when locale missing")
	}
	cmd.Locale = "en"
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error addressing by key+locale: %v", err)
	}
}

func TestRollbackCommandValidate(t *testing.T) {
	cmd := RollbackCommand{
		Identity: editorIdentity(),
		Key:      "checkout.cart.title",
		Locale:   "en",
	}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when to_version missing")
	}

	cmd.ToVersion = 2
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRebuildSnapshotsCommandValidate(t *testing.T) {
	cmd := RebuildSnapshotsCommand{}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error when locale missing")
	}

	cmd.Locale = "en"
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd.Namespaces = []string{"checkout", ""}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error for empty namespace entry")
	}
}
