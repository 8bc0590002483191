package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"

	"arena-duel/internal/game"
)

const (
	// MaxWSConnectionsTotal caps spectators across all IPs
	MaxWSConnectionsTotal = 500

	// BroadcastInterval is the view push period (20 Hz)
	BroadcastInterval = 50 * time.Millisecond

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufSize    = 16
)

// Frame is the msgpack envelope for every server to client message.
type Frame struct {
	Type  string     `msgpack:"t"`
	View  *game.View `msgpack:"v,omitempty"`
	Error string     `msgpack:"err,omitempty"`
	Code  int        `msgpack:"code,omitempty"`
}

// Command is the msgpack envelope for client to server messages.
type Command struct {
	Type      string `msgpack:"t"`
	Combatant string `msgpack:"id"`
	Skill     string `msgpack:"skill"`
}

type wsClient struct {
	hub     *WebSocketHub
	conn    *websocket.Conn
	ip      string
	send    chan []byte // never closed, done signals the end
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// WebSocketHub pushes views to spectators and accepts skill commands.
type WebSocketHub struct {
	match   MatchInterface
	origins OriginPolicy

	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	mu         sync.RWMutex

	connLimiter *ConnLimiter
	upgrader    websocket.Upgrader

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewWebSocketHub creates a hub over m. Nothing runs until Run.
func NewWebSocketHub(m MatchInterface, maxPerIP int, origins []string) *WebSocketHub {
	h := &WebSocketHub{
		match:       m,
		origins:     NewOriginPolicy(origins),
		clients:     make(map[*wsClient]bool),
		broadcast:   make(chan []byte, 8),
		register:    make(chan *wsClient),
		unregister:  make(chan *wsClient),
		connLimiter: NewConnLimiter(maxPerIP),
		stopChan:    make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if h.origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run owns the client set until Stop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Spectator connected from %s (%d total)", c.ip, count)
			UpdateWSConnections(count)

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				h.drop(c)
			}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Spectator disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
					IncrementWSMessages("out")
				default:
					// Too slow, cut it loose
					h.drop(c)
				}
			}
			UpdateWSConnections(len(h.clients))
			h.mu.Unlock()
		}
	}
}

// drop removes c; callers hold h.mu.
func (h *WebSocketHub) drop(c *wsClient) {
	delete(h.clients, c)
	c.close()
	h.connLimiter.Release(c.ip)
}

// Stop ends Run and the broadcast loop, closing every client.
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// ClientCount returns the number of connected spectators.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastView encodes v and queues it for every client.
func (h *WebSocketHub) BroadcastView(v game.View) error {
	data, err := msgpack.Marshal(Frame{Type: "view", View: &v})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
		// Hub busy, skip this frame (backpressure)
	}
	return nil
}

// StartBroadcastLoop pushes the latest view every BroadcastInterval.
func (h *WebSocketHub) StartBroadcastLoop() {
	ticker := time.NewTicker(BroadcastInterval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}
			if h.ClientCount() == 0 {
				continue
			}

			v := h.match.View()
			if v.Sequence == lastSeq {
				continue
			}
			lastSeq = v.Sequence
			if err := h.BroadcastView(v); err != nil {
				log.Printf("⚠️ View encode failed: %v", err)
			}
		}
	}()
}

// HandleWebSocket upgrades a spectator connection.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.connLimiter.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.connLimiter.Release(ip)
		return
	}

	c := &wsClient{
		hub:     h,
		conn:    conn,
		ip:      ip,
		send:    make(chan []byte, sendBufSize),
		limiter: rate.NewLimiter(20, 20),
		done:    make(chan struct{}),
	}

	select {
	case h.register <- c:
	case <-h.stopChan:
		conn.Close()
		h.connLimiter.Release(ip)
		return
	}

	// First frame goes out immediately
	if data, err := msgpack.Marshal(Frame{Type: "view", View: ptr(h.match.View())}); err == nil {
		c.trySend(data)
	}

	go c.writePump()
	go c.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopChan:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️ WebSocket read error from %s: %v", c.ip, err)
			}
			return
		}
		IncrementWSMessages("in")

		if !c.limiter.Allow() {
			c.reply(http.StatusTooManyRequests, "slow down")
			continue
		}

		var cmd Command
		if err := msgpack.Unmarshal(message, &cmd); err != nil {
			c.reply(http.StatusBadRequest, "invalid message")
			continue
		}
		c.handle(cmd)
	}
}

func (c *wsClient) handle(cmd Command) {
	switch cmd.Type {
	case "skill":
		code, err := applySkill(c.hub.match, cmd.Combatant, cmd.Skill)
		if err != nil {
			c.reply(code, err.Error())
			return
		}
		c.reply(code, "")
	default:
		c.reply(http.StatusBadRequest, "unknown command "+cmd.Type)
	}
}

// reply acknowledges a command with an HTTP-style status code.
func (c *wsClient) reply(code int, msg string) {
	data, err := msgpack.Marshal(Frame{Type: "ack", Code: code, Error: msg})
	if err != nil {
		return
	}
	c.trySend(data)
}

// trySend queues data without blocking. Dropped clients discard it.
func (c *wsClient) trySend(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
