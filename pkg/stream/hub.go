package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
)

// MessageType discriminates hub messages.
type MessageType string

const (
	// MessageSnapshot carries the full host tree, sent on connect.
	MessageSnapshot MessageType = "snapshot"
	// MessageCommit carries the ops of one commit.
	MessageCommit MessageType = "commit"
)

// Message is sent to subscribers as JSON.
type Message struct {
	Type      MessageType `json:"type"`
	Seq       uint64      `json:"seq,omitempty"`
	Component string      `json:"component,omitempty"`
	Ops       []host.Op   `json:"ops,omitempty"`
	HTML      string      `json:"html,omitempty"`
}

// client serializes writes to one connection; gorilla connections allow
// a single concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub broadcasts committed host ops to websocket subscribers.
//
// Wire it into a root with two pieces: the decorated adapter records
// every mutation, and the commit hook publishes what was recorded as
// one message per commit.
//
//	hub := stream.NewHub(stream.WithSnapshot(mem.HTML))
//	root, _ := fiber.CreateRoot(mem.Root(), app,
//	    fiber.WithAdapter(hub.Adapter(mem)),
//	    fiber.WithCommitHook(hub.CommitHook()))
//	http.Handle("/ws", hub)
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
	snapshot func() string
	timeout  time.Duration

	recMu   sync.Mutex
	pending []host.Op
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSnapshot sends fn's HTML to every subscriber when it connects.
func WithSnapshot(fn func() string) Option {
	return func(h *Hub) {
		h.snapshot = fn
	}
}

// WithWriteTimeout bounds each write to a subscriber.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.timeout = d
	}
}

// NewHub creates a hub with no subscribers.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Read-only op feed
			},
		},
		logger:  slog.Default(),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and keeps the subscriber until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("stream: upgrade failed", "error", errors.New("F030").Wrap(err))
		return
	}
	c := &client{conn: conn}

	if h.snapshot != nil {
		data, err := json.Marshal(Message{Type: MessageSnapshot, HTML: h.snapshot()})
		if err == nil {
			if err := c.write(data, h.timeout); err != nil {
				conn.Close()
				return
			}
		}
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("stream: subscriber connected", "remote", r.RemoteAddr)

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	conn.Close()
	h.logger.Debug("stream: subscriber disconnected", "remote", r.RemoteAddr)
}

// CommitHook returns a commit listener that publishes the ops recorded
// since the previous commit.
func (h *Hub) CommitHook() func(fiber.CommitInfo) {
	return func(info fiber.CommitInfo) {
		ops := h.take()
		if len(ops) == 0 {
			return
		}
		h.Publish(Message{
			Type:      MessageCommit,
			Seq:       info.Seq,
			Component: info.Component,
			Ops:       ops,
		})
	}
}

// Publish sends msg to every subscriber. Subscribers that fail are
// dropped.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("stream: encode failed", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data, h.timeout); err != nil {
			h.logger.Warn("stream: dropping subscriber", "error", errors.New("F031").Wrap(err))
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) record(ops ...host.Op) {
	if len(ops) == 0 {
		return
	}
	h.recMu.Lock()
	h.pending = append(h.pending, ops...)
	h.recMu.Unlock()
}

func (h *Hub) take() []host.Op {
	h.recMu.Lock()
	defer h.recMu.Unlock()
	ops := h.pending
	h.pending = nil
	return ops
}
