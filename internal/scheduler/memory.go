package scheduler

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// NewInMemory creates the in-process refresh queue. It is the default for
// embedded deployments: snapshot rebuilds are idempotent per scope, so keyed
// jobs coalesce instead of piling up when publishes burst.
func NewInMemory(opts ...Option) interfaces.Scheduler {
	q := &memoryQueue{
		now:        time.Now,
		id:         func() string { return uuid.NewString() },
		jobs:       make(map[string]*interfaces.Job),
		byKey:      make(map[string]string),
		maxAttempt: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Option allows customizing the behaviour of the in-memory queue.
type Option func(*memoryQueue)

// WithClock overrides the internal clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(q *memoryQueue) {
		if clock != nil {
			q.now = clock
		}
	}
}

// WithIDGenerator overrides the ID generator used when enqueuing jobs.
func WithIDGenerator(generator func() string) Option {
	return func(q *memoryQueue) {
		if generator != nil {
			q.id = generator
		}
	}
}

// WithDefaultMaxAttempts overrides the retry attempts applied when the job
// spec leaves them unset.
func WithDefaultMaxAttempts(limit int) Option {
	return func(q *memoryQueue) {
		if limit > 0 {
			q.maxAttempt = limit
		}
	}
}

type memoryQueue struct {
	mu         sync.Mutex
	now        func() time.Time
	id         func() string
	maxAttempt int
	jobs       map[string]*interfaces.Job
	byKey      map[string]string
}

// Enqueue adds a pending job. A keyed enqueue that finds a pending job under
// the same key — ten publishes into the same (locale, namespace) scope —
// coalesces onto it: the earliest RunAt wins, the payload refreshes, and the
// job keeps its identity and attempt count. Terminal jobs are replaced.
func (q *memoryQueue) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, errors.New("scheduler: run_at is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()

	if spec.Key != "" {
		if existing := q.pendingByKeyLocked(spec.Key); existing != nil {
			if spec.RunAt.Before(existing.RunAt) {
				existing.RunAt = spec.RunAt
			}
			existing.Payload = clonePayload(spec.Payload)
			existing.UpdatedAt = now
			return cloneJob(existing), nil
		}
		if staleID, ok := q.byKey[spec.Key]; ok {
			delete(q.jobs, staleID)
		}
	}

	job := &interfaces.Job{
		JobSpec: interfaces.JobSpec{
			Key:         spec.Key,
			Type:        spec.Type,
			RunAt:       spec.RunAt,
			Payload:     clonePayload(spec.Payload),
			MaxAttempts: spec.MaxAttempts,
		},
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = q.maxAttempt
	}
	job.ID = q.id()
	job.Status = interfaces.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	q.jobs[job.ID] = job
	if job.Key != "" {
		q.byKey[job.Key] = job.ID
	}
	return cloneJob(job), nil
}

// pendingByKeyLocked returns the live job under key, or nil when the key is
// free or points at a terminal job.
func (q *memoryQueue) pendingByKeyLocked(key string) *interfaces.Job {
	id, ok := q.byKey[key]
	if !ok {
		return nil
	}
	job := q.jobs[id]
	if job == nil || job.Status != interfaces.JobStatusPending {
		return nil
	}
	return job
}

func (q *memoryQueue) Cancel(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job.Status = interfaces.JobStatusCanceled
	job.UpdatedAt = q.now()
	if job.Key != "" {
		delete(q.byKey, job.Key)
	}
	return nil
}

func (q *memoryQueue) CancelByKey(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	id, ok := q.byKey[key]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job := q.jobs[id]
	if job == nil {
		return interfaces.ErrJobNotFound
	}
	job.Status = interfaces.JobStatusCanceled
	job.UpdatedAt = q.now()
	delete(q.byKey, key)
	return nil
}

func (q *memoryQueue) Get(_ context.Context, id string) (*interfaces.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (q *memoryQueue) GetByKey(_ context.Context, key string) (*interfaces.Job, error) {
	if key == "" {
		return nil, interfaces.ErrJobNotFound
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	id, ok := q.byKey[key]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	job, ok := q.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// ListDue returns pending jobs whose RunAt has passed, oldest deadline first
// so a backlog of refresh scopes drains in the order writers created it.
func (q *memoryQueue) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if limit <= 0 {
		limit = len(q.jobs)
	}
	due := make([]*interfaces.Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		if job.Status != interfaces.JobStatusPending {
			continue
		}
		if job.RunAt.After(until) {
			continue
		}
		due = append(due, cloneJob(job))
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].RunAt.Equal(due[j].RunAt) {
			return due[i].CreatedAt.Before(due[j].CreatedAt)
		}
		return due[i].RunAt.Before(due[j].RunAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (q *memoryQueue) MarkDone(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job.Status = interfaces.JobStatusCompleted
	job.UpdatedAt = q.now()
	if job.Key != "" {
		delete(q.byKey, job.Key)
	}
	return nil
}

func (q *memoryQueue) MarkFailed(_ context.Context, id string, failure error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job.Attempt++
	job.UpdatedAt = q.now()
	job.LastError = ""
	if failure != nil {
		job.LastError = failure.Error()
	}
	if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts {
		job.Status = interfaces.JobStatusFailed
	} else {
		job.Status = interfaces.JobStatusPending
	}
	return nil
}

func cloneJob(job *interfaces.Job) *interfaces.Job {
	if job == nil {
		return nil
	}
	clone := *job
	if job.Payload != nil {
		clone.Payload = maps.Clone(job.Payload)
	}
	return &clone
}

func clonePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	return maps.Clone(payload)
}
