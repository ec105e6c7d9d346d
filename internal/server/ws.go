package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/curiolabs/curio/internal/agent"
	"github.com/curiolabs/curio/internal/logging"
)

const (
	// writeWait is the timeout for writing a frame to a client.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before it is
	// considered gone; pings go out once per pingPeriod to prompt it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound frames; search requests are tiny.
	maxMessageSize = 512

	// sendBuffer is the per-client outbound queue. A client that cannot
	// drain it gets dropped rather than stall a running search.
	sendBuffer = 256
)

// StreamMessageType tags frames on the /ws/search stream.
type StreamMessageType string

const (
	StreamStep   StreamMessageType = "step"
	StreamResult StreamMessageType = "result"
	StreamError  StreamMessageType = "error"
)

// StreamMessage is one frame sent to a /ws/search client: step frames
// while the agent reasons, a single result frame per search, error frames
// for rejected requests.
type StreamMessage struct {
	Type   StreamMessageType `json:"type"`
	ID     string            `json:"id,omitempty"`
	Event  *agent.StepEvent  `json:"event,omitempty"`
	Result *SearchResponse   `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// hub tracks connected stream clients so shutdown can disconnect them all
// and health can count them.
type hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	mu         sync.RWMutex
	closeOnce  sync.Once
	log        *logging.Logger
}

func newHub(log *logging.Logger) *hub {
	return &hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		log:        log,
	}
}

// run manages client registration until the hub closes.
func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("stream client connected (%d total)", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.shutdown()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("stream client disconnected (%d remaining)", n)

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.shutdown()
			}
			h.mu.Unlock()
			return
		}
	}
}

// add registers a client; false means the hub is already closed.
func (h *hub) add(c *wsClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// drop unregisters a client. Safe after close.
func (h *hub) drop(c *wsClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// wsClient is one streaming connection. The send channel is the only path
// to the wire; writePump owns all writes.
type wsClient struct {
	srv    *Server
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// shutdown tears the client down: pending searches abort, writePump sends
// the close frame and exits.
func (c *wsClient) shutdown() {
	c.once.Do(func() {
		close(c.closed)
		c.cancel()
	})
}

// handleWS upgrades the connection and streams step events for every
// search request the client sends.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &wsClient{
		srv:    s,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	if !s.hub.add(client) {
		cancel()
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump consumes search requests. Each search runs in its own
// goroutine so long discoveries never block the connection's control
// frames; frames are correlated by the request ID.
func (c *wsClient) readPump() {
	defer func() {
		c.srv.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.srv.log.Warn("websocket read: %v", err)
			}
			return
		}

		var req SearchRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.push(&StreamMessage{Type: StreamError, Error: "invalid search request: " + err.Error()})
			continue
		}
		req.Topic = strings.TrimSpace(req.Topic)
		if req.Topic == "" {
			c.push(&StreamMessage{Type: StreamError, ID: req.ID, Error: "topic is required"})
			continue
		}
		go c.stream(&req)
	}
}

// writePump forwards queued frames and keeps the connection alive with
// pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down"))
			return
		}
	}
}

// push queues a frame. A client whose buffer is full gets dropped; the
// agent callback must never block on a slow consumer.
func (c *wsClient) push(m *StreamMessage) {
	data, err := json.Marshal(m)
	if err != nil {
		c.srv.log.Error("marshal stream frame: %v", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.closed:
	default:
		c.srv.hub.drop(c)
	}
}

// stream runs one discovery, forwarding each agent step as it happens and
// the final result at the end.
func (c *wsClient) stream(req *SearchRequest) {
	start := time.Now()
	result, fallback := c.srv.runSearch(c.ctx, req, func(e *agent.StepEvent) {
		c.push(&StreamMessage{Type: StreamStep, ID: req.ID, Event: e})
	})
	c.srv.logSearch(c.ctx, result)

	c.push(&StreamMessage{Type: StreamResult, ID: req.ID, Result: &SearchResponse{
		SearchResult: result,
		Fallback:     fallback,
		DurationMS:   time.Since(start).Milliseconds(),
	}})
}
