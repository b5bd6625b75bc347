// Package events fans board change events out to connected websocket clients.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 32
)

// Message is the frame sent to clients.
type Message struct {
	Type string           `json:"type"`
	Data model.BoardEvent `json:"data"`
}

// Client is one websocket connection of an owner.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	owner uuid.UUID
}

type envelope struct {
	owner   uuid.UUID
	payload []byte
}

// Hub keeps the connected clients and delivers each event only to the
// clients of the board owner.
type Hub struct {
	log        *zap.Logger
	clients    map[*Client]struct{}
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}
}

// NewHub creates a hub; Run must be started before clients connect.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:        log.Named("events"),
		clients:    map[*Client]struct{}{},
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run delivers events until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug("client connected", zap.String("owner", c.owner.String()))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Debug("client disconnected", zap.String("owner", c.owner.String()))
			}
		case e := <-h.broadcast:
			for c := range h.clients {
				if c.owner != e.owner {
					continue
				}
				select {
				case c.send <- e.payload:
				default:
					// slow consumer
					delete(h.clients, c)
					close(c.send)
				}
			}
		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

// Publish queues an event for the owner's clients. It never blocks; events
// are dropped when the queue is full.
func (h *Hub) Publish(ev model.BoardEvent) {
	payload, err := json.Marshal(Message{Type: string(ev.Kind), Data: ev})
	if err != nil {
		h.log.Warn("marshal event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- envelope{owner: ev.OwnerID, payload: payload}:
	default:
		h.log.Warn("event dropped", zap.String("kind", string(ev.Kind)))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients(ctx context.Context) int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-ctx.Done():
		return 0
	case <-h.done:
		return 0
	}
}

// Serve attaches conn to the hub for owner and pumps it until it closes.
func (h *Hub) Serve(conn *websocket.Conn, owner uuid.UUID) {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), owner: owner}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

// readPump only watches for close and pong frames; clients do not send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("websocket read", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
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
