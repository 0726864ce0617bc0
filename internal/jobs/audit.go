package jobs

import (
	"context"
	"sync"
	"time"
)

// AuditEvent records one job outcome: which scope was refreshed (or why it
// failed), when, and the job bookkeeping that produced it.
type AuditEvent struct {
	EntityType string
	EntityID   string
	Action     string
	OccurredAt time.Time
	Metadata   map[string]any
}

// AuditRecorder receives job outcomes. The worker only ever appends; reading
// the trail back is up to the concrete recorder.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
}

// InMemoryAuditRecorder accumulates events for tests and single-process
// deployments.
type InMemoryAuditRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
	err    error
}

// NewInMemoryAuditRecorder constructs an empty recorder.
func NewInMemoryAuditRecorder() *InMemoryAuditRecorder {
	return &InMemoryAuditRecorder{}
}

// Record appends the event, copying its metadata so callers can reuse maps.
func (r *InMemoryAuditRecorder) Record(_ context.Context, event AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	copied := event
	if copied.Metadata != nil {
		metadata := make(map[string]any, len(copied.Metadata))
		for k, v := range copied.Metadata {
			metadata[k] = v
		}
		copied.Metadata = metadata
	}
	r.events = append(r.events, copied)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *InMemoryAuditRecorder) Events() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	copy(out, r.events)
	return out
}

// ByAction filters recorded events to one action.
func (r *InMemoryAuditRecorder) ByAction(action string) []AuditEvent {
	var out []AuditEvent
	for _, event := range r.Events() {
		if event.Action == action {
			out = append(out, event)
		}
	}
	return out
}

// Fail makes subsequent Record calls return err. Tests use it to exercise
// recorder outages.
func (r *InMemoryAuditRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Reset drops all recorded events.
func (r *InMemoryAuditRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
