package jobs_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/jobs"
	"github.com/goliatone/go-translations/internal/scheduler"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/pkg/activity"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/google/uuid"
)

type publishedRows struct {
	mu    sync.Mutex
	calls int
	rows  map[string][]*catalog.Translation
	err   error
}

func (s *publishedRows) ListPublished(_ context.Context, locale, namespace string) ([]*catalog.Translation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[locale+"/"+namespace], nil
}

func (s *publishedRows) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *publishedRows) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func publishedRow(key, locale, namespace, value string, version int64) *catalog.Translation {
	return &catalog.Translation{
		ID:        uuid.New(),
		KeyID:     uuid.New(),
		KeyName:   key,
		Locale:    locale,
		Namespace: namespace,
		Value:     value,
		Version:   version,
		Status:    catalog.StatusPublished,
	}
}

func enqueueRefresh(t *testing.T, sched interfaces.Scheduler, locale, namespace string, runAt time.Time) *interfaces.Job {
	t.Helper()
	job, err := sched.Enqueue(context.Background(), interfaces.JobSpec{
		Key:         scheduler.SnapshotRefreshJobKey(locale, namespace),
		Type:        scheduler.JobTypeSnapshotRefresh,
		RunAt:       runAt,
		Payload:     scheduler.SnapshotRefreshPayload(locale, namespace),
		MaxAttempts: 3,
	})
	if err != nil {
		t.Fatalf("enqueue refresh: %v", err)
	}
	return job
}

func TestWorkerProcessSnapshotRefresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	source := &publishedRows{rows: map[string][]*catalog.Translation{
		"en/checkout": {publishedRow("checkout.cart.title", "en", "checkout", "Cart", 4)},
	}}
	snapshots := snapshot.NewManager(source)
	sched := scheduler.NewInMemory()
	audit := jobs.NewInMemoryAuditRecorder()
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true, Channel: "translations"})
	worker := jobs.NewWorker(sched, snapshots,
		jobs.WithAuditRecorder(audit),
		jobs.WithActivityEmitter(emitter),
		jobs.WithClock(func() time.Time { return now }),
	)

	enqueued := enqueueRefresh(t, sched, "en", "checkout", now.Add(-time.Minute))

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	snap, err := snapshots.Peek(ctx, "en", "checkout")
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got := snap.Entries["checkout.cart.title"]; got != "Cart" {
		t.Fatalf("expected refreshed entry, got %q", got)
	}
	if snap.Token < 4 {
		t.Fatalf("expected token at or above published version, got %d", snap.Token)
	}

	events := audit.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(events))
	}
	if events[0].Action != "refreshed" {
		t.Fatalf("expected refreshed action, got %s", events[0].Action)
	}
	if events[0].EntityID != scheduler.SnapshotRefreshJobKey("en", "checkout") {
		t.Fatalf("unexpected audit entity %s", events[0].EntityID)
	}
	if events[0].Metadata["locale"] != "en" || events[0].Metadata["namespace"] != "checkout" {
		t.Fatalf("unexpected audit metadata %v", events[0].Metadata)
	}

	if len(capture.Events) != 1 || capture.Events[0].Verb != "snapshot.refreshed" {
		t.Fatalf("expected snapshot.refreshed activity, got %v", capture.Events)
	}

	stored, err := sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed, got %s", stored.Status)
	}
}

func TestWorkerRetriesFailedRefresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	source := &publishedRows{rows: map[string][]*catalog.Translation{
		"en/common": {publishedRow("app.title", "en", "common", "Translations", 2)},
	}}
	source.setErr(errors.New("db offline"))
	snapshots := snapshot.NewManager(source)
	sched := scheduler.NewInMemory()
	audit := jobs.NewInMemoryAuditRecorder()
	worker := jobs.NewWorker(sched, snapshots,
		jobs.WithAuditRecorder(audit),
		jobs.WithClock(func() time.Time { return now }),
	)

	enqueued := enqueueRefresh(t, sched, "en", "common", now.Add(-time.Minute))

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, err := sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusPending {
		t.Fatalf("expected job re-queued, got %s", stored.Status)
	}
	if stored.Attempt != 1 {
		t.Fatalf("expected attempt 1, got %d", stored.Attempt)
	}
	if !strings.Contains(stored.LastError, "db offline") {
		t.Fatalf("expected failure cause recorded, got %q", stored.LastError)
	}
	if got := audit.ByAction("failed"); len(got) != 1 {
		t.Fatalf("expected 1 failed audit event, got %d", len(got))
	}

	source.setErr(nil)
	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process retry: %v", err)
	}
	stored, err = sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job after retry: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed after retry, got %s", stored.Status)
	}
	if got := audit.ByAction("refreshed"); len(got) != 1 {
		t.Fatalf("expected 1 refreshed audit event, got %d", len(got))
	}
}

func TestWorkerSkipsUnknownJobType(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	source := &publishedRows{}
	snapshots := snapshot.NewManager(source)
	sched := scheduler.NewInMemory()
	audit := jobs.NewInMemoryAuditRecorder()
	worker := jobs.NewWorker(sched, snapshots,
		jobs.WithAuditRecorder(audit),
		jobs.WithClock(func() time.Time { return now }),
	)

	enqueued, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Key:   "export:en:csv",
		Type:  "translations.export.csv",
		RunAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, err := sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected unknown job drained, got %s", stored.Status)
	}
	if source.callCount() != 0 {
		t.Fatalf("expected no refresh for unknown job type, got %d calls", source.callCount())
	}
	if len(audit.Events()) != 0 {
		t.Fatalf("expected no audit events, got %d", len(audit.Events()))
	}
}

func TestWorkerAuditOutageRequeuesJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 4, 7, 0, 0, 0, time.UTC)
	source := &publishedRows{rows: map[string][]*catalog.Translation{
		"de/common": {publishedRow("app.title", "de", "common", "Übersetzungen", 1)},
	}}
	snapshots := snapshot.NewManager(source)
	sched := scheduler.NewInMemory()
	audit := jobs.NewInMemoryAuditRecorder()
	audit.Fail(errors.New("audit sink offline"))
	worker := jobs.NewWorker(sched, snapshots,
		jobs.WithAuditRecorder(audit),
		jobs.WithClock(func() time.Time { return now }),
	)

	enqueued := enqueueRefresh(t, sched, "de", "common", now.Add(-time.Minute))

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, err := sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusPending {
		t.Fatalf("expected job re-queued on audit outage, got %s", stored.Status)
	}
	if !strings.Contains(stored.LastError, "audit sink offline") {
		t.Fatalf("expected audit failure recorded, got %q", stored.LastError)
	}

	audit.Fail(nil)
	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process retry: %v", err)
	}
	stored, err = sched.Get(ctx, enqueued.ID)
	if err != nil {
		t.Fatalf("get job after retry: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("expected job completed once audit recovered, got %s", stored.Status)
	}
}

func TestWorkerRunDrainsQueueUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	source := &publishedRows{rows: map[string][]*catalog.Translation{
		"en/common": {publishedRow("app.title", "en", "common", "Translations", 1)},
	}}
	snapshots := snapshot.NewManager(source)
	sched := scheduler.NewInMemory()
	worker := jobs.NewWorker(sched, snapshots)

	enqueued := enqueueRefresh(t, sched, "en", "common", time.Now().Add(-time.Minute))

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx, 2*time.Millisecond)
	}()

	deadline := time.After(2 * time.Second)
	for {
		stored, err := sched.Get(context.Background(), enqueued.ID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if stored.Status == interfaces.JobStatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job never completed, status %s", stored.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run loop did not stop after cancel")
	}
}
