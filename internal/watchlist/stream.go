package watchlist

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/JustinTDCT/CineList/internal/auth"
)

const updateEvent = "watchlist:update"

type streamMessage struct {
	Event string   `json:"event"`
	Data  Snapshot `json:"data"`
}

// Streams tracks connected watchlist stream clients.
type Streams struct {
	mu      sync.RWMutex
	clients map[*streamClient]bool
}

type streamClient struct {
	sessionID string
	// dirty holds at most one pending wake-up; the writer always sends the
	// store's latest snapshot, so bursts of changes coalesce.
	dirty chan struct{}
}

func NewStreams() *Streams {
	return &Streams{clients: make(map[*streamClient]bool)}
}

func (s *Streams) add(c *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = true
}

func (s *Streams) remove(c *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *Streams) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (c *streamClient) wake() {
	select {
	case c.dirty <- struct{}{}:
	default:
	}
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	store := h.registry.For(u.SessionID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("Watchlist: websocket accept error: %v", err)
		return
	}

	client := &streamClient{sessionID: u.SessionID, dirty: make(chan struct{}, 1)}
	h.streams.add(client)
	unsubscribe := store.Subscribe(func(Snapshot) { client.wake() })
	client.wake()
	log.Printf("Watchlist: stream connected for session %s", u.SessionID)

	ctx, cancel := context.WithCancel(r.Context())

	// Writer goroutine
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-store.Done():
				conn.Close(websocket.StatusNormalClosure, "session ended")
				return
			case <-client.dirty:
				msg, err := json.Marshal(streamMessage{Event: updateEvent, Data: store.List()})
				if err != nil {
					log.Printf("Watchlist: encode snapshot: %v", err)
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop keeps the connection alive and notices client disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}
	cancel()

	unsubscribe()
	h.streams.remove(client)
	conn.Close(websocket.StatusNormalClosure, "")
	log.Printf("Watchlist: stream disconnected for session %s", u.SessionID)
}
