// Package mutation is the write façade. It delegates to the store — which
// commits the row and its history entry in one transaction — and only then
// lets the side effects run: the change broadcast inline, then cache
// invalidation, activity, and the async snapshot refresh job. Nothing is
// visible before it is durable.
package mutation

import (
	"context"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/scheduler"
	"github.com/goliatone/go-translations/internal/store"
	"github.com/goliatone/go-translations/pkg/activity"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// Invalidator drops stale cache entries. snapshot.Manager satisfies it.
type Invalidator interface {
	Invalidate(ctx context.Context, locale, namespace string, version int64) error
}

// Publisher fans a committed change event out. notifier.Broker satisfies it.
type Publisher interface {
	Publish(event catalog.ChangeEvent) (int64, error)
}

// Service accepts writes and guarantees side-effect ordering.
type Service interface {
	UpsertDraft(ctx context.Context, req store.UpsertDraftRequest) (*catalog.Translation, error)
	Transition(ctx context.Context, req store.TransitionRequest) (*catalog.Translation, error)
	Rollback(ctx context.Context, req store.RollbackRequest) (*catalog.Translation, error)
}

type service struct {
	rows        store.Service
	invalidator Invalidator
	publisher   Publisher
	emitter     *activity.Emitter
	jobs        interfaces.Scheduler
	dispatcher  Dispatcher
	logger      interfaces.Logger
	now         func() time.Time
}

// ServiceOption configures the mutation service.
type ServiceOption func(*service)

// WithInvalidator wires the snapshot cache.
func WithInvalidator(inv Invalidator) ServiceOption {
	return func(s *service) { s.invalidator = inv }
}

// WithPublisher wires the change notifier.
func WithPublisher(pub Publisher) ServiceOption {
	return func(s *service) { s.publisher = pub }
}

// WithActivityEmitter wires the activity feed.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) { s.emitter = emitter }
}

// WithScheduler wires the async refresh queue.
func WithScheduler(jobs interfaces.Scheduler) ServiceOption {
	return func(s *service) { s.jobs = jobs }
}

// WithDispatcher overrides how side effects run; tests inject the
// synchronous dispatcher.
func WithDispatcher(d Dispatcher) ServiceOption {
	return func(s *service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the write path around the store.
func NewService(rows store.Service, opts ...ServiceOption) Service {
	s := &service{
		rows:       rows,
		dispatcher: NewAsyncDispatcher(),
		logger:     logging.NoOp(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) UpsertDraft(ctx context.Context, req store.UpsertDraftRequest) (*catalog.Translation, error) {
	if req.Identity.Zero() {
		return nil, store.ErrIdentityRequired
	}
	row, event, err := s.rows.UpsertDraft(ctx, req)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, event)
	return row, nil
}

func (s *service) Transition(ctx context.Context, req store.TransitionRequest) (*catalog.Translation, error) {
	if req.Identity.Zero() {
		return nil, store.ErrIdentityRequired
	}
	row, event, err := s.rows.Transition(ctx, req)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, event)
	return row, nil
}

func (s *service) Rollback(ctx context.Context, req store.RollbackRequest) (*catalog.Translation, error) {
	if req.Identity.Zero() {
		return nil, store.ErrIdentityRequired
	}
	row, event, err := s.rows.Rollback(ctx, req)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, event)
	return row, nil
}

// afterCommit broadcasts the event and schedules the remaining effects.
// The broadcast runs inline: Publish only stamps a sequence and hands the
// event to non-blocking session queues, and doing it here — before the
// caller regains control — keeps broker order equal to commit order for
// successive writes to the same row. The dispatcher carries the effects
// that tolerate reordering: invalidation is monotonic via version floors,
// and refresh jobs coalesce on their (locale, namespace) key.
func (s *service) afterCommit(ctx context.Context, event *catalog.ChangeEvent) {
	if event == nil {
		return
	}
	captured := *event
	if s.publisher != nil {
		seq, err := s.publisher.Publish(captured)
		if err != nil {
			s.logger.Error("change broadcast failed",
				"key", captured.KeyName, "locale", captured.Locale, "error", err)
		} else {
			captured.Seq = seq
		}
	}
	s.dispatcher.Dispatch(ctx, func(ctx context.Context) {
		s.applyEffects(ctx, captured)
	})
}

func (s *service) applyEffects(ctx context.Context, event catalog.ChangeEvent) {
	if s.invalidator != nil && touchesPublished(event.Type) {
		if err := s.invalidator.Invalidate(ctx, event.Locale, event.Namespace, event.Version); err != nil {
			s.logger.Error("cache invalidation failed",
				"key", event.KeyName, "locale", event.Locale, "error", err)
		}
	}

	if s.jobs != nil && touchesPublished(event.Type) {
		_, err := s.jobs.Enqueue(ctx, interfaces.JobSpec{
			Key:     scheduler.SnapshotRefreshJobKey(event.Locale, event.Namespace),
			Type:    scheduler.JobTypeSnapshotRefresh,
			RunAt:   s.now(),
			Payload: scheduler.SnapshotRefreshPayload(event.Locale, event.Namespace),
		})
		if err != nil {
			s.logger.Error("refresh job enqueue failed",
				"key", event.KeyName, "locale", event.Locale, "error", err)
		}
	}

	if s.emitter != nil {
		if err := s.emitter.Emit(ctx, activityEvent(event)); err != nil {
			s.logger.Warn("activity emit failed",
				"key", event.KeyName, "locale", event.Locale, "error", err)
		}
	}
}

// touchesPublished reports whether the event can change what readers see.
// Draft edits, submissions, and approvals never invalidate: only published
// content feeds the snapshots.
func touchesPublished(eventType catalog.EventType) bool {
	switch eventType {
	case catalog.EventPublished, catalog.EventDeprecated, catalog.EventRolledBack:
		return true
	}
	return false
}

func activityEvent(event catalog.ChangeEvent) activity.Event {
	return activity.Event{
		Verb:       string(event.Type),
		ActorID:    event.Actor.String(),
		ObjectType: "translation",
		ObjectID:   event.KeyName + "/" + event.Locale,
		Metadata: map[string]any{
			"namespace": event.Namespace,
			"status":    string(event.Status),
			"version":   event.Version,
			"seq":       event.Seq,
			"reason":    event.Reason,
		},
		OccurredAt: event.OccurredAt,
	}
}
