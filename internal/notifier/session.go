package notifier

import (
	"sync"

	"github.com/goliatone/go-translations/catalog"
)

// Session is one subscriber's view of the stream. Events arrive on Events()
// in sequence order. The channel is bounded; when a consumer falls behind,
// staged events for the same (key, locale) collapse to the newest version
// rather than disconnecting the subscriber or blocking the broker.
type Session struct {
	id     uint64
	broker *Broker

	locales    map[string]struct{}
	namespaces map[string]struct{}
	events     map[catalog.EventType]struct{}

	mu     sync.Mutex
	staged []catalog.ChangeEvent
	closed bool

	wake chan struct{}
	out  chan catalog.ChangeEvent
	done chan struct{}
}

func newSession(broker *Broker, id uint64, sub Subscription, queueSize int) *Session {
	return &Session{
		id:         id,
		broker:     broker,
		locales:    normalizeSet(sub.Locales),
		namespaces: normalizeSet(sub.Namespaces),
		events:     normalizeEvents(sub.Events),
		wake:       make(chan struct{}, 1),
		out:        make(chan catalog.ChangeEvent, queueSize),
		done:       make(chan struct{}),
	}
}

// Events streams matching change events in order. The broker closes the
// channel when the session ends.
func (s *Session) Events() <-chan catalog.ChangeEvent {
	return s.out
}

// Close unregisters the session. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.broker.unregister(s)
	return nil
}

// matches applies the subscription filters. Control frames bypass them:
// a resync matters to every session it was staged for.
func (s *Session) matches(event catalog.ChangeEvent) bool {
	if event.Type == catalog.EventResync {
		return true
	}
	if s.events != nil {
		if _, ok := s.events[event.Type]; !ok {
			return false
		}
	}
	if s.locales != nil {
		if _, ok := s.locales[event.Locale]; !ok {
			return false
		}
	}
	if s.namespaces != nil {
		if _, ok := s.namespaces[event.Namespace]; !ok {
			return false
		}
	}
	return true
}

// stage buffers an event before the pump starts; used for replay so live
// events published during Subscribe keep their order behind the backlog.
func (s *Session) stage(event catalog.ChangeEvent) {
	s.staged = append(s.staged, event)
}

// enqueue hands a live event to the session. Never blocks the broker: the
// event lands in the staged buffer, which coalesces once it outgrows the
// outbound queue.
func (s *Session) enqueue(event catalog.ChangeEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.staged = append(s.staged, event)
	if len(s.staged) > cap(s.out) {
		s.staged = coalesce(s.staged)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves staged events onto the bounded outbound channel, blocking on a
// slow consumer while enqueue keeps absorbing and coalescing behind it.
func (s *Session) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.staged) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		event := s.staged[0]
		s.staged = s.staged[1:]
		s.mu.Unlock()

		select {
		case s.out <- event:
		case <-s.done:
			return
		}
	}
}

// coalesce collapses events for the same (key, locale) down to the newest,
// keeping each survivor at its latest stream position so ordering holds.
func coalesce(events []catalog.ChangeEvent) []catalog.ChangeEvent {
	type scope struct {
		key    string
		locale string
	}
	keep := make(map[scope]int, len(events))
	for i, event := range events {
		if event.Type == catalog.EventResync {
			continue
		}
		keep[scope{key: event.KeyName, locale: event.Locale}] = i
	}

	out := events[:0]
	for i, event := range events {
		if event.Type == catalog.EventResync {
			out = append(out, event)
			continue
		}
		if keep[scope{key: event.KeyName, locale: event.Locale}] == i {
			out = append(out, event)
		}
	}
	return out
}
