package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-translations/catalog"
	"github.com/goliatone/go-translations/internal/notifier"
	"github.com/gorilla/websocket"
)

// subscribeFrame is the first frame a client sends after the upgrade. Empty
// filter lists match everything. last_seen_seq is the stream watermark from a
// previous connection; the broker replays from there or opens with a resync
// event when the gap is no longer covered.
type subscribeFrame struct {
	Locales     []string `json:"locales,omitempty"`
	Namespaces  []string `json:"namespaces,omitempty"`
	Events      []string `json:"events,omitempty"`
	LastSeenSeq int64    `json:"last_seen_seq,omitempty"`
}

func (api *API) handleRealtime(w http.ResponseWriter, r *http.Request) {
	if api.broker == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable", Message: "realtime feed not configured"})
		return
	}

	conn, err := api.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the handshake error response.
		api.logger.Debug("websocket upgrade rejected", "error", err)
		return
	}
	api.serveRealtime(r.Context(), conn)
}

// serveRealtime runs the session until the client disconnects, the broker
// closes the stream, or the connection idles out. The request context ends
// when this returns, which also unregisters the broker session.
func (api *API) serveRealtime(parent context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer conn.Close()

	idle := api.realtime.IdleTimeout
	writeWait := api.realtime.WriteTimeout

	_ = conn.SetReadDeadline(time.Now().Add(idle))
	var frame subscribeFrame
	if err := conn.ReadJSON(&frame); err != nil {
		api.closeConn(conn, websocket.ClosePolicyViolation, "subscribe frame required")
		return
	}

	events := make([]catalog.EventType, 0, len(frame.Events))
	for _, raw := range frame.Events {
		events = append(events, catalog.EventType(raw))
	}

	session, err := api.broker.Subscribe(ctx, notifier.Subscription{
		Locales:     frame.Locales,
		Namespaces:  frame.Namespaces,
		Events:      events,
		LastSeenSeq: frame.LastSeenSeq,
	})
	if err != nil {
		api.closeConn(conn, websocket.CloseTryAgainLater, "stream unavailable")
		return
	}
	defer session.Close()

	// Read pump. Client frames carry no commands after subscribe; reading
	// keeps pong handling alive and detects the close handshake.
	go func() {
		defer cancel()
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(idle))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		}
	}()

	ticker := time.NewTicker(api.realtime.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-session.Events():
			if !ok {
				api.closeConn(conn, websocket.CloseGoingAway, "stream closed")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (api *API) closeConn(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(api.realtime.WriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
