package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playpool/eightball/internal/game"
	"github.com/playpool/eightball/internal/logger"
	"github.com/playpool/eightball/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS layer
	},
}

// Directory resolves and closes matches for the hub.
type Directory interface {
	Get(id string) (*game.Match, error)
	Close(id, reason string) error
}

// Client is one websocket connection watching or playing a match.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	playerID string
	seat     game.Seat
	matchID  string
	send     chan []byte
}

// Hub maintains the set of active clients, grouped by match.
type Hub struct {
	clients    map[string]*Client            // playerID -> Client
	gameRooms  map[string]map[string]*Client // matchID -> playerID -> Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	matches    Directory
	metrics    *metrics.Metrics
	mu         sync.RWMutex
}

// NewHub creates a new Hub. The directory is attached with SetDirectory once
// the match manager exists, since the manager broadcasts through the hub.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		gameRooms:  make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    m,
	}
}

func (h *Hub) SetDirectory(d Directory) {
	h.matches = d
}

// Run processes registrations until ctx is cancelled. Once it returns, join
// and leave stop blocking.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
			h.welcome(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// join hands c to the run loop. It reports false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave hands c back to the run loop, or returns at once if the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// addClient registers c, replacing an older connection of the same player.
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.clients[c.playerID]; exists {
		logger.Log.Infow("[WS] player reconnecting, closing old connection", "player", c.playerID)
		if old.conn != nil {
			old.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"),
				time.Now().Add(time.Second))
			old.conn.Close()
		}
		close(old.send)
		if room, ok := h.gameRooms[old.matchID]; ok {
			delete(room, old.playerID)
		}
		h.metrics.ClientDisconnected()
	}

	h.clients[c.playerID] = c
	if _, ok := h.gameRooms[c.matchID]; !ok {
		h.gameRooms[c.matchID] = make(map[string]*Client)
	}
	h.gameRooms[c.matchID][c.playerID] = c
	h.metrics.ClientConnected()
	logger.Log.Infow("[WS] client connected", "player", c.playerID, "match", c.matchID, "seat", c.seat)
}

// removeClient drops c. A seated player leaving ends the match.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	cur, ok := h.clients[c.playerID]
	if !ok || cur != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.playerID)
	if room, exists := h.gameRooms[c.matchID]; exists {
		delete(room, c.playerID)
		if len(room) == 0 {
			delete(h.gameRooms, c.matchID)
		}
	}
	close(c.send)
	h.mu.Unlock()

	h.metrics.ClientDisconnected()
	logger.Log.Infow("[WS] client disconnected", "player", c.playerID, "match", c.matchID, "seat", c.seat)

	if c.seat.Valid() && h.matches != nil {
		if err := h.matches.Close(c.matchID, "player_left"); err != nil {
			logger.Log.Debugw("[WS] match already gone", "match", c.matchID)
		}
	}
}

// welcome sends a newly registered client its seat and the current table.
func (h *Hub) welcome(c *Client) {
	if h.matches == nil {
		return
	}
	m, err := h.matches.Get(c.matchID)
	if err != nil {
		h.SendToPlayer(c.playerID, errorMessage("match not found"))
		return
	}
	snap := m.Snapshot()
	h.SendToPlayer(c.playerID, game.Event{Type: "room_joined", Data: map[string]interface{}{
		"room_id": c.matchID,
		"seat":    c.seat,
	}})
	h.SendToPlayer(c.playerID, game.Event{Type: game.EventGameState, Data: snap.Balls})
	h.SendToPlayer(c.playerID, game.Event{Type: game.EventMeta, Data: snap.Meta})
}

// BroadcastToGame sends a message to everyone in a match room.
func (h *Hub) BroadcastToGame(matchID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Errorw("[WS] marshal broadcast", "match", matchID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.gameRooms[matchID] {
		select {
		case client.send <- data:
		default:
			logger.Log.Warnw("[WS] send buffer full, dropping message", "player", client.playerID, "match", matchID)
		}
	}
}

// SendToPlayer sends a message to a single connection.
func (h *Hub) SendToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Errorw("[WS] marshal message", "player", playerID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[playerID]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		logger.Log.Warnw("[WS] send buffer full, dropping message", "player", playerID)
	}
}

// RoomSize returns the number of connections watching a match.
func (h *Hub) RoomSize(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.gameRooms[matchID])
}

// WSMessage is the envelope of inbound messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func errorMessage(message string) game.Event {
	return game.Event{Type: "error", Data: map[string]string{"message": message}}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Log.Debugw("[WS] write error", "player", c.playerID, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.Debugw("[WS] ping error", "player", c.playerID, "error", err)
				return
			}
		}
	}
}

// sendError sends an error message to this client only.
func (c *Client) sendError(message string) {
	c.hub.SendToPlayer(c.playerID, errorMessage(message))
}
