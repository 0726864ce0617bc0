package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/httpapi"
	"github.com/gorilla/websocket"
)

func dialRealtime(t *testing.T, f *apiFixture, frame map[string]any) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/realtime"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	if frame != nil {
		if err := conn.WriteJSON(frame); err != nil {
			t.Fatalf("send subscribe frame: %v", err)
		}
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) catalog.ChangeEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var event catalog.ChangeEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func waitSessions(t *testing.T, f *apiFixture, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.broker.SessionCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("broker never reached %d sessions", want)
}

func TestRealtimeStreamsEditorialEvents(t *testing.T) {
	f := newAPIFixture(t)
	f.registerKey(t, "checkout.cart.title")

	conn := dialRealtime(t, f, map[string]any{"locales": []string{"en"}})
	waitSessions(t, f, 1)

	f.publishWalk(t, "checkout.cart.title", "en", "Cart")

	wantOrder := []catalog.EventType{
		catalog.EventUpdated,
		catalog.EventSubmitted,
		catalog.EventApproved,
		catalog.EventPublished,
	}
	var lastSeq int64
	var published catalog.ChangeEvent
	for _, want := range wantOrder {
		event := readEvent(t, conn)
		if event.Type != want {
			t.Fatalf("expected %s got %s (seq %d)", want, event.Type, event.Seq)
		}
		if event.Seq <= lastSeq {
			t.Fatalf("sequence must increase: %d after %d", event.Seq, lastSeq)
		}
		lastSeq = event.Seq
		published = event
	}
	if published.KeyName != "checkout.cart.title" || published.Locale != "en" {
		t.Fatalf("published frame misaddressed: %+v", published)
	}
	if published.Value != "Cart" || published.Version != 4 {
		t.Fatalf("published frame must carry the live value: %+v", published)
	}
}

func TestRealtimeEventFilter(t *testing.T) {
	f := newAPIFixture(t)
	f.registerKey(t, "checkout.cart.title")
	f.registerKey(t, "checkout.cart.subtitle")

	conn := dialRealtime(t, f, map[string]any{
		"locales": []string{"en"},
		"events":  []string{"translation.published"},
	})
	waitSessions(t, f, 1)

	f.publishWalk(t, "checkout.cart.title", "en", "Cart")
	f.publishWalk(t, "checkout.cart.subtitle", "en", "Review your items")

	first := readEvent(t, conn)
	if first.Type != catalog.EventPublished || first.KeyName != "checkout.cart.title" {
		t.Fatalf("expected filtered publish for title got %+v", first)
	}
	second := readEvent(t, conn)
	if second.Type != catalog.EventPublished || second.KeyName != "checkout.cart.subtitle" {
		t.Fatalf("intermediate events leaked through the filter: %+v", second)
	}
}

func TestRealtimeReplayFromLastSeen(t *testing.T) {
	f := newAPIFixture(t)
	f.registerKey(t, "checkout.cart.title")

	f.publishWalk(t, "checkout.cart.title", "en", "Cart")

	// Seqs 1..4 sit in the replay ring; a client that saw 2 gets 3 and 4.
	conn := dialRealtime(t, f, map[string]any{"last_seen_seq": 2})

	event := readEvent(t, conn)
	if event.Type != catalog.EventApproved || event.Seq != 3 {
		t.Fatalf("expected replayed approve at seq 3 got %+v", event)
	}
	event = readEvent(t, conn)
	if event.Type != catalog.EventPublished || event.Seq != 4 {
		t.Fatalf("expected replayed publish at seq 4 got %+v", event)
	}
}

func TestRealtimeResyncOnForeignWatermark(t *testing.T) {
	f := newAPIFixture(t)
	f.registerKey(t, "checkout.cart.title")

	f.publishWalk(t, "checkout.cart.title", "en", "Cart")

	// A watermark above the current sequence comes from an earlier broker
	// epoch; the client must drop state and refetch over REST.
	conn := dialRealtime(t, f, map[string]any{"last_seen_seq": 999})

	event := readEvent(t, conn)
	if event.Type != catalog.EventResync {
		t.Fatalf("expected resync frame got %+v", event)
	}
	if event.Seq != 4 {
		t.Fatalf("resync must carry the current sequence, got %d", event.Seq)
	}
}

func TestRealtimeRejectsMalformedSubscribe(t *testing.T) {
	f := newAPIFixture(t)

	conn := dialRealtime(t, f, nil)
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write garbage frame: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected close after malformed subscribe")
	}
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close got %v", err)
	}
}

func TestRealtimeUnavailableWithoutBroker(t *testing.T) {
	api := httpapi.NewAPI()
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		t.Fatalf("register: %v", err)
	}
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/realtime")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.StatusCode)
	}
}
