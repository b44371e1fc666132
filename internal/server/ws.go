package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/castevet/empire-core/internal/empire"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin; auth is the empire header,
	// not the origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsClient struct {
	conn     *websocket.Conn
	empireID string
	send     chan empire.Event
}

// Hub fans progression events out to websocket subscribers. Each
// client subscribes to one empire's feed; slow clients are dropped
// rather than allowed to stall the engine's notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Broadcast delivers an event to every subscriber of its empire.
// Never blocks: a full client buffer loses the event.
func (h *Hub) Broadcast(ev empire.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.empireID != ev.EmpireID {
			continue
		}
		select {
		case c.send <- ev:
		default:
		}
	}
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// serve upgrades the request and pumps events until the peer goes away
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, empireID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &wsClient{conn: conn, empireID: empireID, send: make(chan empire.Event, wsSendBuffer)}
	h.add(c)

	go func() {
		defer conn.Close()
		// Discard inbound frames; the feed is one-way. Reading drives
		// close detection.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(c)
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer func() {
			ticker.Stop()
			conn.Close()
		}()
		for {
			select {
			case ev, ok := <-c.send:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, nil)
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					h.remove(c)
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					h.remove(c)
					return
				}
			}
		}
	}()
	return nil
}
