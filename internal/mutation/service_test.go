package mutation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/history"
	"github.com/goliatone/go-translations/internal/mutation"
	"github.com/goliatone/go-translations/internal/notifier"
	"github.com/goliatone/go-translations/internal/registry"
	"github.com/goliatone/go-translations/internal/scheduler"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/internal/workflow"
	"github.com/goliatone/go-translations/pkg/activity"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/google/uuid"
)

type fixture struct {
	svc       mutation.Service
	store     store.Service
	snapshots *snapshot.Manager
	broker    *notifier.Broker
	scheduler interfaces.Scheduler
	captured  *activity.CaptureHook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	reg := registry.NewService(registry.NewMemoryKeyRepository(), registry.NewMemoryLocaleRepository(),
		registry.WithLocales("en", []string{"en", "es"}))
	if _, err := reg.EnsureDefaults(ctx); err != nil {
		t.Fatalf("seed locales: %v", err)
	}
	for _, name := range []string{"checkout.cart.title", "checkout.cart.subtitle"} {
		if _, err := reg.RegisterKey(ctx, registry.RegisterKeyRequest{
			Identity: catalog.Identity{UserID: uuid.New(), Role: catalog.RoleEditor},
			Name:     name,
		}); err != nil {
			t.Fatalf("register key %s: %v", name, err)
		}
	}

	hist := history.NewMemoryRepository()
	st := store.NewService(store.NewMemoryTranslationRepository(hist), hist, reg, reg, workflow.New())
	snapshots := snapshot.NewManager(st)
	broker := notifier.New()
	captured := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{captured}, activity.Config{Enabled: true, Channel: "translations"})
	jobs := scheduler.NewInMemory()

	svc := mutation.NewService(st,
		mutation.WithInvalidator(snapshots),
		mutation.WithPublisher(broker),
		mutation.WithActivityEmitter(emitter),
		mutation.WithScheduler(jobs),
		mutation.WithDispatcher(mutation.NewSyncDispatcher()),
	)

	return &fixture{
		svc:       svc,
		store:     st,
		snapshots: snapshots,
		broker:    broker,
		scheduler: jobs,
		captured:  captured,
	}
}

func identityWithRole(role catalog.Role) catalog.Identity {
	return catalog.Identity{UserID: uuid.New(), Role: role}
}

func (f *fixture) publish(t *testing.T) *catalog.Translation {
	t.Helper()
	ctx := context.Background()

	row, err := f.svc.UpsertDraft(ctx, store.UpsertDraftRequest{
		Identity: identityWithRole(catalog.RoleEditor),
		KeyName:  "checkout.cart.title",
		Locale:   "en",
		Value:    "Cart",
	})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	for _, step := range []struct {
		role   catalog.Role
		action catalog.Action
		reason string
	}{
		{catalog.RoleEditor, catalog.ActionSubmit, ""},
		{catalog.RoleReviewer, catalog.ActionApprove, "reviewed"},
		{catalog.RoleManager, catalog.ActionPublish, "release"},
	} {
		row, err = f.svc.Transition(ctx, store.TransitionRequest{
			Identity:        identityWithRole(step.role),
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
	return row
}

func waitEvent(t *testing.T, session *notifier.Session) catalog.ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-session.Events():
		if !ok {
			t.Fatalf("event channel closed")
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return catalog.ChangeEvent{}
}

func TestUpsertDraftRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpsertDraft(context.Background(), store.UpsertDraftRequest{
		KeyName: "checkout.cart.title",
		Locale:  "en",
		Value:   "Cart",
	})
	if !errors.Is(err, store.ErrIdentityRequired) {
		t.Fatalf("expected ErrIdentityRequired, got %v", err)
	}
}

func TestPublishRunsAllSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale, err := f.snapshots.Get(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("warm snapshot: %v", err)
	}

	session, err := f.broker.Subscribe(ctx, notifier.Subscription{
		Events: []catalog.EventType{catalog.EventPublished},
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	row := f.publish(t)

	event := waitEvent(t, session)
	if event.Type != catalog.EventPublished || event.Version != row.Version {
		t.Fatalf("unexpected broadcast: %+v", event)
	}
	if event.Value != "Cart" {
		t.Fatalf("published frames carry the value, got %q", event.Value)
	}
	if event.Seq == 0 {
		t.Fatalf("broadcast must carry a broker sequence")
	}

	fresh, err := f.snapshots.Get(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("fresh snapshot: %v", err)
	}
	if fresh.Token <= stale.Token {
		t.Fatalf("publish must invalidate the snapshot: %d <= %d", fresh.Token, stale.Token)
	}
	if fresh.Entries["checkout.cart.title"] != "Cart" {
		t.Fatalf("rebuilt snapshot missing published value: %#v", fresh.Entries)
	}

	job, err := f.scheduler.GetByKey(ctx, scheduler.SnapshotRefreshJobKey("en", "checkout"))
	if err != nil {
		t.Fatalf("refresh job not enqueued: %v", err)
	}
	if job.Type != scheduler.JobTypeSnapshotRefresh {
		t.Fatalf("unexpected job type %q", job.Type)
	}

	var sawPublish bool
	for _, entry := range f.captured.Events {
		if entry.Verb == string(catalog.EventPublished) && entry.ObjectID == "checkout.cart.title/en" {
			sawPublish = true
		}
	}
	if !sawPublish {
		t.Fatalf("activity feed missing publish event: %+v", f.captured.Events)
	}
}

func TestEditorialEventsDoNotInvalidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publish(t)

	before, err := f.snapshots.Get(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	// A second key moves draft -> review -> approved without publishing.
	row, err := f.svc.UpsertDraft(ctx, store.UpsertDraftRequest{
		Identity: identityWithRole(catalog.RoleEditor),
		KeyName:  "checkout.cart.subtitle",
		Locale:   "en",
		Value:    "Review your items",
	})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	for _, step := range []struct {
		role   catalog.Role
		action catalog.Action
		reason string
	}{
		{catalog.RoleEditor, catalog.ActionSubmit, ""},
		{catalog.RoleReviewer, catalog.ActionApprove, "reviewed"},
	} {
		row, err = f.svc.Transition(ctx, store.TransitionRequest{
			Identity:        identityWithRole(step.role),
			KeyName:         "checkout.cart.subtitle",
			Locale:          "en",
			Action:          step.action,
			ExpectedVersion: row.Version,
			Reason:          step.reason,
		})
		if err != nil {
			t.Fatalf("%s: %v", step.action, err)
		}
	}

	after, err := f.snapshots.Get(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("snapshot after editorial flow: %v", err)
	}
	if after.Token != before.Token {
		t.Fatalf("editorial events must not invalidate: token changed %d -> %d", before.Token, after.Token)
	}
	if _, ok := after.Entries["checkout.cart.subtitle"]; ok {
		t.Fatalf("unpublished key leaked into the snapshot")
	}
}

func TestTransitionConflictPassesThrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.UpsertDraft(ctx, store.UpsertDraftRequest{
		Identity: identityWithRole(catalog.RoleEditor),
		KeyName:  "checkout.cart.title",
		Locale:   "en",
		Value:    "Cart",
	}); err != nil {
		t.Fatalf("draft: %v", err)
	}

	_, err := f.svc.Transition(ctx, store.TransitionRequest{
		Identity:        identityWithRole(catalog.RoleEditor),
		KeyName:         "checkout.cart.title",
		Locale:          "en",
		Action:          catalog.ActionSubmit,
		ExpectedVersion: 7,
	})
	var conflict *store.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, store.ErrConcurrentModification) {
		t.Fatalf("conflict must unwrap to ErrConcurrentModification")
	}
}

func TestRollbackInvalidatesPublishedContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publish(t)

	before, err := f.snapshots.Get(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if before.Entries["checkout.cart.title"] != "Cart" {
		t.Fatalf("expected published entry before rollback")
	}

	session, err := f.broker.Subscribe(ctx, notifier.Subscription{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	if _, err := f.svc.Rollback(ctx, store.RollbackRequest{
		Identity:  identityWithRole(catalog.RoleManager),
		KeyName:   "checkout.cart.title",
		Locale:    "en",
		ToVersion: 1,
		Reason:    "undo bad copy",
	}); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	event := waitEvent(t, session)
	if event.Type != catalog.EventRolledBack {
		t.Fatalf("expected rolled_back broadcast, got %+v", event)
	}

	after, err := f.snapshots.Get(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("snapshot after rollback: %v", err)
	}
	if _, ok := after.Entries["checkout.cart.title"]; ok {
		t.Fatalf("rolled back row must leave the published map: %#v", after.Entries)
	}
}

// heldDispatcher withholds effect batches until flushed, then runs them
// newest first, standing in for goroutine scheduling that inverts batch
// order under load.
type heldDispatcher struct {
	batches []func(context.Context)
}

func (d *heldDispatcher) Dispatch(_ context.Context, fn func(ctx context.Context)) {
	d.batches = append(d.batches, fn)
}

func (d *heldDispatcher) flush(ctx context.Context) {
	for i := len(d.batches) - 1; i >= 0; i-- {
		d.batches[i](ctx)
	}
	d.batches = nil
}

type versionRecorder struct {
	seq      int64
	versions []int64
}

func (p *versionRecorder) Publish(event catalog.ChangeEvent) (int64, error) {
	p.seq++
	p.versions = append(p.versions, event.Version)
	return p.seq, nil
}

func TestBroadcastOrderMatchesCommitOrder(t *testing.T) {
	ctx := context.Background()

	reg := registry.NewService(registry.NewMemoryKeyRepository(), registry.NewMemoryLocaleRepository(),
		registry.WithLocales("en", []string{"en"}))
	if _, err := reg.EnsureDefaults(ctx); err != nil {
		t.Fatalf("seed locales: %v", err)
	}
	if _, err := reg.RegisterKey(ctx, registry.RegisterKeyRequest{
		Identity: identityWithRole(catalog.RoleEditor),
		Name:     "common.welcome",
	}); err != nil {
		t.Fatalf("register key: %v", err)
	}

	hist := history.NewMemoryRepository()
	st := store.NewService(store.NewMemoryTranslationRepository(hist), hist, reg, reg, workflow.New())

	recorder := &versionRecorder{}
	held := &heldDispatcher{}
	svc := mutation.NewService(st,
		mutation.WithPublisher(recorder),
		mutation.WithDispatcher(held),
	)

	row, err := svc.UpsertDraft(ctx, store.UpsertDraftRequest{
		Identity: identityWithRole(catalog.RoleEditor),
		KeyName:  "common.welcome",
		Locale:   "en",
		Value:    "Welcome",
	})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	for _, step := range []struct {
		role   catalog.Role
		action catalog.Action
		reason string
	}{
		{catalog.RoleEditor, catalog.ActionSubmit, ""},
		{catalog.RoleReviewer, catalog.ActionApprove, "reviewed"},
	} {
		row, err = svc.Transition(ctx, store.TransitionRequest{
			Identity:        identityWithRole(step.role),
			KeyName:         "common.welcome",
			Locale:          "en",
			Action:          step.action,
			ExpectedVersion: row.Version,
			Reason:          step.reason,
		})
		if err != nil {
			t.Fatalf("%s: %v", step.action, err)
		}
	}

	// The broadcast happens before the caller regains control, so the
	// broker saw every commit already, in commit order.
	want := []int64{1, 2, 3}
	if len(recorder.versions) != len(want) {
		t.Fatalf("expected %d broadcasts before effects ran, got %v", len(want), recorder.versions)
	}
	for i, version := range want {
		if recorder.versions[i] != version {
			t.Fatalf("broadcast versions out of commit order: %v", recorder.versions)
		}
	}

	// Effect batches replayed newest first must not add or reorder
	// broadcasts.
	held.flush(ctx)
	if len(recorder.versions) != len(want) {
		t.Fatalf("effect batches must not broadcast again: %v", recorder.versions)
	}
}
