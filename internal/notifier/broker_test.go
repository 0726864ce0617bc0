package notifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/notifier"
	"github.com/google/uuid"
)

func changeEvent(eventType catalog.EventType, key, locale string, version int64) catalog.ChangeEvent {
	return catalog.ChangeEvent{
		Type:      eventType,
		KeyName:   key,
		Locale:    locale,
		Namespace: "checkout",
		Status:    catalog.StatusPublished,
		Version:   version,
		Actor:     uuid.New(),
	}
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

func waitClosed(t *testing.T, session *notifier.Session) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-session.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for channel close")
		}
	}
}

func TestPublishAssignsMonotonicSequence(t *testing.T) {
	broker := notifier.New()
	for want := int64(1); want <= 3; want++ {
		seq, err := broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", want))
		if err != nil {
			t.Fatalf("publish: %v", err)
		}
		if seq != want {
			t.Fatalf("expected seq %d, got %d", want, seq)
		}
	}
	if got := broker.CurrentSeq(); got != 3 {
		t.Fatalf("expected current seq 3, got %d", got)
	}
}

func TestPublishRejectsControlFrames(t *testing.T) {
	broker := notifier.New()
	if _, err := broker.Publish(catalog.ChangeEvent{Type: catalog.EventResync}); !errors.Is(err, notifier.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if _, err := broker.Publish(catalog.ChangeEvent{Type: "bogus"}); !errors.Is(err, notifier.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestLiveDeliveryInSequenceOrder(t *testing.T) {
	broker := notifier.New()
	session, err := broker.Subscribe(context.Background(), notifier.Subscription{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", 1))
	broker.Publish(changeEvent(catalog.EventSubmitted, "checkout.cart.title", "en", 2))
	broker.Publish(changeEvent(catalog.EventUpdated, "common.welcome", "es", 1))

	var lastSeq int64
	for i := 0; i < 3; i++ {
		event := waitEvent(t, session)
		if event.Seq <= lastSeq {
			t.Fatalf("sequence went backwards: %d after %d", event.Seq, lastSeq)
		}
		lastSeq = event.Seq
	}
}

func TestConcurrentPublishDeliversInSeqOrder(t *testing.T) {
	broker := notifier.New(notifier.WithQueueSize(256))
	session, err := broker.Subscribe(context.Background(), notifier.Subscription{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	const publishers = 8
	const perPublisher = 20

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				key := "checkout.item." + string(rune('a'+p))
				if _, err := broker.Publish(changeEvent(catalog.EventUpdated, key, "en", int64(i+1))); err != nil {
					t.Errorf("publish: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()

	var lastSeq int64
	for i := 0; i < publishers*perPublisher; i++ {
		event := waitEvent(t, session)
		if event.Seq <= lastSeq {
			t.Fatalf("sequence went backwards: %d after %d", event.Seq, lastSeq)
		}
		lastSeq = event.Seq
	}
}

func TestSubscriptionFilters(t *testing.T) {
	broker := notifier.New()
	session, err := broker.Subscribe(context.Background(), notifier.Subscription{
		Locales:    []string{"es"},
		Namespaces: []string{"checkout"},
		Events:     []catalog.EventType{catalog.EventPublished},
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	broker.Publish(changeEvent(catalog.EventPublished, "checkout.cart.title", "en", 1))
	broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "es", 2))
	match := changeEvent(catalog.EventPublished, "checkout.cart.title", "es", 3)
	broker.Publish(match)

	event := waitEvent(t, session)
	if event.Version != match.Version || event.Locale != "es" || event.Type != catalog.EventPublished {
		t.Fatalf("filter passed wrong event: %+v", event)
	}
}

func TestReplayAfterReconnect(t *testing.T) {
	broker := notifier.New()
	for v := int64(1); v <= 5; v++ {
		broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", v))
	}

	session, err := broker.Subscribe(context.Background(), notifier.Subscription{LastSeenSeq: 2})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	for _, want := range []int64{3, 4, 5} {
		event := waitEvent(t, session)
		if event.Seq != want {
			t.Fatalf("expected replayed seq %d, got %d", want, event.Seq)
		}
	}

	broker.Publish(changeEvent(catalog.EventPublished, "checkout.cart.title", "en", 6))
	if event := waitEvent(t, session); event.Seq != 6 {
		t.Fatalf("expected live seq 6 after replay, got %d", event.Seq)
	}
}

func TestResyncWhenRingTrimmed(t *testing.T) {
	broker := notifier.New(notifier.WithReplayCapacity(2))
	for v := int64(1); v <= 5; v++ {
		broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", v))
	}

	session, err := broker.Subscribe(context.Background(), notifier.Subscription{LastSeenSeq: 2})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	event := waitEvent(t, session)
	if event.Type != catalog.EventResync {
		t.Fatalf("expected resync frame, got %+v", event)
	}
	if event.Seq != 5 {
		t.Fatalf("resync frame should carry the current seq, got %d", event.Seq)
	}
}

func TestResyncAfterBrokerEpochReset(t *testing.T) {
	broker := notifier.New()
	session, err := broker.Subscribe(context.Background(), notifier.Subscription{LastSeenSeq: 40})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	if event := waitEvent(t, session); event.Type != catalog.EventResync {
		t.Fatalf("watermark from an older epoch must resync, got %+v", event)
	}
}

func TestReplayRetentionExpires(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	broker := notifier.New(notifier.WithClock(clock), notifier.WithReplayRetention(5*time.Minute))
	broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", 1))
	broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", 2))

	mu.Lock()
	now = now.Add(6 * time.Minute)
	mu.Unlock()
	broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", 3))

	session, err := broker.Subscribe(context.Background(), notifier.Subscription{LastSeenSeq: 1})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	if event := waitEvent(t, session); event.Type != catalog.EventResync {
		t.Fatalf("expected resync after retention trim, got %+v", event)
	}
}

func TestSlowConsumerCoalescesInsteadOfDisconnecting(t *testing.T) {
	broker := notifier.New(notifier.WithQueueSize(2))
	session, err := broker.Subscribe(context.Background(), notifier.Subscription{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer session.Close()

	const publishes = 10
	for v := int64(1); v <= publishes; v++ {
		if _, err := broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", v)); err != nil {
			t.Fatalf("publish %d: %v", v, err)
		}
	}

	var received []int64
	deadline := time.After(2 * time.Second)
	for {
		var event catalog.ChangeEvent
		select {
		case event = <-session.Events():
		case <-deadline:
			t.Fatalf("never saw the newest version; received %v", received)
		}
		received = append(received, event.Version)
		if event.Version == publishes {
			break
		}
	}

	if len(received) >= publishes {
		t.Fatalf("slow consumer should coalesce, got all %d events", len(received))
	}
	for i := 1; i < len(received); i++ {
		if received[i] <= received[i-1] {
			t.Fatalf("versions must be increasing, got %v", received)
		}
	}

	// The session survived the backlog: live delivery still works.
	broker.Publish(changeEvent(catalog.EventPublished, "checkout.cart.title", "en", publishes+1))
	if event := waitEvent(t, session); event.Version != publishes+1 {
		t.Fatalf("expected live event after backlog, got %+v", event)
	}
	if broker.SessionCount() != 1 {
		t.Fatalf("session must not be dropped for slowness")
	}
}

func TestContextCancelUnregisters(t *testing.T) {
	broker := notifier.New()
	ctx, cancel := context.WithCancel(context.Background())
	session, err := broker.Subscribe(ctx, notifier.Subscription{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cancel()
	waitClosed(t, session)

	deadline := time.Now().Add(2 * time.Second)
	for broker.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session still registered after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBrokerClose(t *testing.T) {
	broker := notifier.New()
	session, err := broker.Subscribe(context.Background(), notifier.Subscription{})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := broker.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	waitClosed(t, session)

	if _, err := broker.Publish(changeEvent(catalog.EventUpdated, "checkout.cart.title", "en", 1)); !errors.Is(err, notifier.ErrBrokerClosed) {
		t.Fatalf("expected ErrBrokerClosed, got %v", err)
	}
	if _, err := broker.Subscribe(context.Background(), notifier.Subscription{}); !errors.Is(err, notifier.ErrBrokerClosed) {
		t.Fatalf("expected ErrBrokerClosed on subscribe, got %v", err)
	}
}
