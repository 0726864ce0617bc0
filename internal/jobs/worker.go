// Package jobs drains the scheduler queue. The only job type today is the
// asynchronous snapshot refresh enqueued after publish and deprecate; the
// worker keeps the durable tier warm so cold starts do not stampede the
// database.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/scheduler"
	"github.com/goliatone/go-translations/internal/snapshot"
	"github.com/goliatone/go-translations/pkg/activity"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// SnapshotRefresher rebuilds one scope from published rows. snapshot.Manager
// satisfies it.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, locale, namespace string) (*snapshot.Snapshot, error)
}

// Worker polls the scheduler for due jobs and executes them.
type Worker struct {
	scheduler interfaces.Scheduler
	snapshots SnapshotRefresher
	audit     AuditRecorder
	activity  *activity.Emitter
	logger    interfaces.Logger
	now       func() time.Time
	batchSize int
}

// Option configures a Worker.
type Option func(*Worker)

// WithAuditRecorder records which jobs ran and how they ended.
func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

// WithActivityEmitter mirrors job outcomes into the activity feed.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(w *Worker) {
		if emitter != nil {
			w.activity = emitter
		}
	}
}

// WithLogger overrides the worker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithBatchSize caps how many due jobs one Process pass claims.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// NewWorker wires a worker to the scheduler queue and the snapshot manager.
func NewWorker(sched interfaces.Scheduler, snapshots SnapshotRefresher, opts ...Option) *Worker {
	w := &Worker{
		scheduler: sched,
		snapshots: snapshots,
		logger:    logging.NoOp(),
		now:       time.Now,
		batchSize: 50,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process claims one batch of due jobs and runs each to completion, marking
// it done or failed. Failures stay queued until the scheduler exhausts the
// job's attempts.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job); err != nil {
			w.logger.Error("job failed",
				"job", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)
			_ = w.recordAudit(ctx, job, "failed", map[string]any{"error": err.Error()})
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
	}
	return nil
}

// Run polls the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Process(ctx); err != nil {
				w.logger.Error("job pass failed", "error", err)
			}
		}
	}
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job) error {
	switch job.Type {
	case scheduler.JobTypeSnapshotRefresh:
		return w.processSnapshotRefresh(ctx, job)
	default:
		// Unknown types complete silently so a rolled-back deploy cannot
		// wedge the queue.
		w.logger.Warn("skipping unknown job type", "job", job.ID, "type", job.Type)
		return nil
	}
}

func (w *Worker) processSnapshotRefresh(ctx context.Context, job *interfaces.Job) error {
	if w.snapshots == nil {
		return errors.New("jobs: snapshot refresher is nil")
	}
	locale, namespace, ok := scheduler.SnapshotRefreshScope(job.Payload)
	if !ok {
		return fmt.Errorf("jobs: job %s has no refresh scope", job.ID)
	}

	snap, err := w.snapshots.Refresh(ctx, locale, namespace)
	if err != nil {
		return fmt.Errorf("refresh %s/%s: %w", locale, namespace, err)
	}

	if err := w.recordAudit(ctx, job, "refreshed", map[string]any{
		"locale":    locale,
		"namespace": namespace,
		"token":     snap.Token,
		"entries":   len(snap.Entries),
	}); err != nil {
		return fmt.Errorf("jobs: record audit: %w", err)
	}
	w.emitActivity(ctx, "snapshot.refreshed", locale+"/"+namespace, map[string]any{
		"job_id": job.ID,
		"token":  snap.Token,
	})
	w.logger.Debug("snapshot refreshed",
		"locale", locale, "namespace", namespace, "token", snap.Token)
	return nil
}

func (w *Worker) recordAudit(ctx context.Context, job *interfaces.Job, action string, metadata map[string]any) error {
	if w.audit == nil {
		return nil
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["job_id"] = job.ID
	metadata["job_type"] = job.Type
	metadata["attempt"] = job.Attempt
	return w.audit.Record(ctx, AuditEvent{
		EntityType: "snapshot",
		EntityID:   job.Key,
		Action:     action,
		OccurredAt: w.now(),
		Metadata:   metadata,
	})
}

func (w *Worker) emitActivity(ctx context.Context, verb, objectID string, metadata map[string]any) {
	if w.activity == nil || !w.activity.Enabled() {
		return
	}
	_ = w.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ObjectType: "snapshot",
		ObjectID:   objectID,
		Metadata:   metadata,
	})
}
