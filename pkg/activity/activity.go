package activity

import (
	"context"
	"sync"
	"time"
)

// Event is the transport-neutral payload describing something that happened
// in the translation pipeline. Hooks receive it verbatim apart from the
// defaults the emitter fills in (channel, occurred_at).
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Hook consumes activity events. Implementations must be safe for concurrent
// use; the emitter may deliver from multiple goroutines.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// Hooks fans an event out to an ordered list of hooks.
type Hooks []Hook

// Config controls emitter behaviour.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter applies defaults and forwards events to the registered hooks.
type Emitter struct {
	hooks   Hooks
	config  Config
	nowFunc func() time.Time
}

// EmitterOption customises emitter construction.
type EmitterOption func(*Emitter)

// WithClock overrides the time source used for occurred_at defaults.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) {
		if now != nil {
			e.nowFunc = now
		}
	}
}

// NewEmitter builds an emitter for the given hooks. A nil hook list or a
// disabled config produces an emitter whose Emit is a no-op.
func NewEmitter(hooks Hooks, cfg Config, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		hooks:   hooks,
		config:  cfg,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Enabled reports whether Emit will deliver events.
func (e *Emitter) Enabled() bool {
	return e != nil && e.config.Enabled && len(e.hooks) > 0
}

// Emit applies defaults and notifies every hook. Hook errors do not stop the
// fan-out; the first error encountered is returned.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if event.Channel == "" {
		event.Channel = e.config.Channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.nowFunc().UTC()
	}
	var firstErr error
	for _, hook := range e.hooks {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CaptureHook records events in memory; test helper.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
}

// Notify appends the event to the captured list.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, event)
	return nil
}
