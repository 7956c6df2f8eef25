// Package realtime pushes bus and notification events to socket clients.
// Every connection joins the room of its user; events go either to one room
// or to everyone, and are optionally mirrored to message brokers.
package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"smartbus/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Envelope is the wire format of every pushed event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RoomFor names the private room of a user.
func RoomFor(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64
	room   string
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	rooms    map[string]map[*client]struct{}
	sinks    []Sink
	metrics  *metrics.Collector
	upgrader websocket.Upgrader
}

func NewHub(m *metrics.Collector, sinks ...Sink) *Hub {
	return &Hub{
		clients: map[*client]struct{}{},
		rooms:   map[string]map[*client]struct{}{},
		sinks:   sinks,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and attaches the connection to the user's room.
// Authentication happens before Serve is called.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		room:   RoomFor(userID),
	}
	h.register(c)
	log.Printf("[SOCKET] user_id=%d connected room=%s", userID, c.room)

	go c.writePump()
	go c.readPump()
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	members := h.rooms[c.room]
	if members == nil {
		members = map[*client]struct{}{}
		h.rooms[c.room] = members
	}
	members[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientConnected()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	if members := h.rooms[c.room]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	close(c.send)
	h.mu.Unlock()
	h.metrics.ClientDisconnected()
	log.Printf("[SOCKET] user_id=%d disconnected", c.userID)
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) EmitToUser(userID int64, event string, payload any) {
	h.emit(RoomFor(userID), event, payload)
}

func (h *Hub) EmitAll(event string, payload any) {
	h.emit("", event, payload)
}

// emit delivers to room, or to every client when room is empty. Slow
// clients whose buffer is full miss the event.
func (h *Hub) emit(room, event string, payload any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("[SOCKET] event=%s marshal error=%v", event, err)
		return
	}

	h.mu.RLock()
	targets := h.clients
	if room != "" {
		targets = h.rooms[room]
	}
	for c := range targets {
		select {
		case c.send <- msg:
		default:
			log.Printf("[SOCKET] user_id=%d event=%s dropped: send buffer full", c.userID, event)
		}
	}
	h.mu.RUnlock()
	h.metrics.EventEmitted(event)

	for _, s := range h.sinks {
		if err := s.Publish(event, msg); err != nil {
			h.metrics.SinkFailed(s.Name())
			log.Printf("[SOCKET] sink=%s event=%s error=%v", s.Name(), event, err)
		}
	}
}

// Close disconnects every client and closes the sinks.
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
	for _, s := range h.sinks {
		s.Close()
	}
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// clients only listen; inbound frames are discarded
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
