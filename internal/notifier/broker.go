// Package notifier fans committed change events out to subscribed sessions.
// Delivery is at-least-once and ordered by a broker-assigned sequence number;
// a bounded replay ring lets reconnecting clients catch up, and clients whose
// watermark fell off the ring are told to resync instead.
package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

var (
	// ErrInvalidEvent reports a publish with an unknown or control event type.
	ErrInvalidEvent = errors.New("notifier: invalid event type")
	// ErrBrokerClosed reports use after Close.
	ErrBrokerClosed = errors.New("notifier: broker closed")
)

// Subscription selects which events a session receives. Empty filter slices
// match everything. LastSeenSeq is the client's stream watermark from a
// previous connection; zero means a fresh client.
type Subscription struct {
	Locales     []string
	Namespaces  []string
	Events      []catalog.EventType
	LastSeenSeq int64
}

// Broker assigns sequence numbers, keeps the replay ring, and owns every
// session's lifecycle. All channels are closed here, never by callers.
type Broker struct {
	logger    interfaces.Logger
	now       func() time.Time
	queueSize int
	capacity  int
	retention time.Duration

	mu             sync.Mutex
	seq            int64
	ring           []catalog.ChangeEvent
	trimmedThrough int64
	sessions       map[uint64]*Session
	nextSessionID  uint64
	closed         bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithReplayCapacity bounds how many events the replay ring holds.
func WithReplayCapacity(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithReplayRetention bounds how long replayed events stay available.
func WithReplayRetention(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.retention = d
		}
	}
}

// WithQueueSize sets each session's outbound channel capacity.
func WithQueueSize(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithLogger overrides the broker logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Broker) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a Broker with library defaults: 1024 replayable events kept
// for five minutes, 64 queued frames per session.
func New(opts ...Option) *Broker {
	b := &Broker{
		logger:    logging.NoOp(),
		now:       time.Now,
		queueSize: 64,
		capacity:  1024,
		retention: 5 * time.Minute,
		sessions:  make(map[uint64]*Session),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish stamps the event with the next sequence number, records it in the
// replay ring, and fans it out to matching sessions. The sequence is assigned
// under the broker mutex, so global order — and therefore per-(key, locale)
// order — is the publish order.
func (b *Broker) Publish(event catalog.ChangeEvent) (int64, error) {
	if !event.Type.Valid() {
		return 0, ErrInvalidEvent
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0, ErrBrokerClosed
	}

	b.seq++
	event.Seq = b.seq
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.now()
	}

	b.ring = append(b.ring, event)
	b.trimRingLocked()

	// Delivery stays under the broker mutex: enqueue never blocks, and
	// handing off outside the lock would let two Publish calls reach a
	// session's queue inverted relative to their sequence numbers.
	for _, session := range b.sessions {
		if session.matches(event) {
			session.enqueue(event)
		}
	}
	b.mu.Unlock()
	return event.Seq, nil
}

// Subscribe registers a session and starts its delivery pump. Replay happens
// before any live event: either the buffered events after LastSeenSeq, or a
// single resync frame when the ring no longer reaches back that far. Cancel
// ctx or call Session.Close to unregister; the broker closes the channel.
func (b *Broker) Subscribe(ctx context.Context, sub Subscription) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBrokerClosed
	}

	b.nextSessionID++
	session := newSession(b, b.nextSessionID, sub, b.queueSize)

	// A watermark below the ring means missed events; one above the current
	// sequence means it came from an earlier broker epoch. Both force resync.
	if sub.LastSeenSeq > 0 && (sub.LastSeenSeq < b.trimmedThrough || sub.LastSeenSeq > b.seq) {
		session.stage(catalog.ChangeEvent{
			Type:       catalog.EventResync,
			Seq:        b.seq,
			OccurredAt: b.now(),
		})
	} else {
		for _, event := range b.ring {
			if event.Seq > sub.LastSeenSeq && session.matches(event) {
				session.stage(event)
			}
		}
	}

	b.sessions[session.id] = session
	b.mu.Unlock()

	go session.pump()
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-session.done:
		}
	}()

	b.logger.Debug("session subscribed",
		"session", session.id, "last_seen", sub.LastSeenSeq,
		"locales", sub.Locales, "namespaces", sub.Namespaces)
	return session, nil
}

// CurrentSeq returns the last assigned sequence number.
func (b *Broker) CurrentSeq() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// SessionCount returns the number of live sessions.
func (b *Broker) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Close unregisters every session and rejects further publishes.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sessions := make([]*Session, 0, len(b.sessions))
	for _, session := range b.sessions {
		sessions = append(sessions, session)
	}
	b.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	return nil
}

func (b *Broker) unregister(session *Session) {
	b.mu.Lock()
	delete(b.sessions, session.id)
	b.mu.Unlock()
	b.logger.Debug("session unregistered", "session", session.id)
}

// trimRingLocked drops events beyond capacity or older than the retention
// window and advances the resync watermark past everything dropped.
func (b *Broker) trimRingLocked() {
	cutoff := b.now().Add(-b.retention)
	drop := 0
	for drop < len(b.ring) {
		overCapacity := len(b.ring)-drop > b.capacity
		if !overCapacity && !b.ring[drop].OccurredAt.Before(cutoff) {
			break
		}
		drop++
	}
	if drop == 0 {
		return
	}
	b.trimmedThrough = b.ring[drop-1].Seq
	b.ring = append(b.ring[:0], b.ring[drop:]...)
}

func normalizeSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func normalizeEvents(values []catalog.EventType) map[catalog.EventType]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[catalog.EventType]struct{}, len(values))
	for _, v := range values {
		if v.Valid() {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
