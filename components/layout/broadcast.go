package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type noopChangeHook struct{}

func (noopChangeHook) LayoutUpdated(context.Context, LayoutEvent) error { return nil }

// BroadcastHook fans out committed layouts to in-process subscribers so other
// open editors of the same page can reload.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]chan LayoutEvent
	next int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]chan LayoutEvent),
	}
}

// LayoutUpdated satisfies ChangeHook. Slow subscribers miss events.
func (h *BroadcastHook) LayoutUpdated(_ context.Context, event LayoutEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of layout events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan LayoutEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan LayoutEvent, 8)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Stream subscribes and hands every event to send until ctx ends, the hook
// drops the subscription or send fails. A non-empty clientID keeps only that
// tenant's events.
func (h *BroadcastHook) Stream(ctx context.Context, clientID string, send func(LayoutEvent) error) error {
	events, cancel := h.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if clientID != "" && event.Key.ClientID != clientID {
				continue
			}
			if err := send(event); err != nil {
				return err
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams layout events as JSON.
// A client_id query parameter narrows the stream to one tenant.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()
	_ = h.Stream(r.Context(), r.URL.Query().Get("client_id"), func(event LayoutEvent) error {
		return conn.WriteJSON(event)
	})
}

// ServeSSE streams layout events as Server-Sent Events, one JSON document per
// data line. It takes the same client_id filter as ServeWebSocket.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	_ = h.Stream(r.Context(), r.URL.Query().Get("client_id"), func(event LayoutEvent) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}
