package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Clients only send control frames.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// GraphMessage is pushed to graph stream clients after every change to a session.
type GraphMessage struct {
	Type      string          `json:"type"`
	Session   string          `json:"session"`
	Graph     *docforge.Graph `json:"graph"`
	Timestamp string          `json:"timestamp"`
}

type sessionMessage struct {
	session string
	data    []byte
}

// graphClient is one websocket subscribed to a session's graph.
type graphClient struct {
	hub     *GraphHub
	conn    *websocket.Conn
	session string
	send    chan []byte
}

// GraphHub fans out structure graph updates to the websocket clients of each session.
type GraphHub struct {
	clients    map[string]map[*graphClient]bool
	broadcast  chan sessionMessage
	register   chan *graphClient
	unregister chan *graphClient
	closeAll   chan string
	done       chan struct{}
	log        zerolog.Logger
}

// NewGraphHub creates a hub. Run must be started before clients connect.
func NewGraphHub(log zerolog.Logger) *GraphHub {
	return &GraphHub{
		clients:    make(map[string]map[*graphClient]bool),
		broadcast:  make(chan sessionMessage, 256),
		register:   make(chan *graphClient),
		unregister: make(chan *graphClient),
		closeAll:   make(chan string, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run handles registration and delivery until ctx is done.
func (h *GraphHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*graphClient]bool)
			return

		case c := <-h.register:
			if h.clients[c.session] == nil {
				h.clients[c.session] = make(map[*graphClient]bool)
			}
			h.clients[c.session][c] = true
			h.log.Debug().Str("session", c.session).Int("clients", len(h.clients[c.session])).Msg("graph client connected")

		case c := <-h.unregister:
			h.remove(c)

		case session := <-h.closeAll:
			for c := range h.clients[session] {
				h.remove(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients[msg.session] {
				select {
				case c.send <- msg.data:
				default:
					// Slow consumer; it reconnects and receives the current graph.
					h.remove(c)
				}
			}
		}
	}
}

func (h *GraphHub) remove(c *graphClient) {
	clients := h.clients[c.session]
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.session)
	}
	h.log.Debug().Str("session", c.session).Msg("graph client disconnected")
}

func encodeGraph(session string, g *docforge.Graph) ([]byte, error) {
	return json.Marshal(GraphMessage{
		Type:      "graph",
		Session:   session,
		Graph:     g,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// CloseSession disconnects every client of a discarded session.
func (h *GraphHub) CloseSession(session string) {
	select {
	case h.closeAll <- session:
	case <-h.done:
	}
}

// Publish queues a graph update for the session's clients. Updates are dropped when
// the queue is full.
func (h *GraphHub) Publish(session string, g *docforge.Graph) {
	data, err := encodeGraph(session, g)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode graph")
		return
	}
	select {
	case h.broadcast <- sessionMessage{session: session, data: data}:
	default:
		h.log.Warn().Str("session", session).Msg("graph broadcast queue full, dropping update")
	}
}

// Serve upgrades the request and streams graph updates for the session, starting
// with the current graph.
func (h *GraphHub) Serve(w http.ResponseWriter, r *http.Request, session string, current *docforge.Graph) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &graphClient{hub: h, conn: conn, session: session, send: make(chan []byte, 16)}
	if data, err := encodeGraph(session, current); err == nil {
		c.send <- data
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *graphClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Msg("graph stream closed unexpectedly")
			}
			return
		}
	}
}

func (c *graphClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Each message is a complete graph; only the latest queued one matters.
			for n := len(c.send); n > 0; n-- {
				if next, ok := <-c.send; ok {
					message = next
				}
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
