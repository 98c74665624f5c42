package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playpool/eightball/internal/auth"
	"github.com/playpool/eightball/internal/game"
	"github.com/playpool/eightball/internal/logger"
)

// Inbound message data.
type ShootData struct {
	Angle float64 `json:"angle"`
	Force float64 `json:"force"`
}

type PlaceCueBallData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type AimData struct {
	Angle float64 `json:"angle"`
	Force float64 `json:"force"`
}

// HandleWebSocket upgrades a connection holding a valid seat ticket for the
// match in the URL.
func HandleWebSocket(h *Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID := c.Param("id")
		ticket := c.Query("ticket")
		if ticket == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ticket required"})
			return
		}

		claims, err := auth.ParseSeatTicket(jwtSecret, ticket)
		if err != nil || claims.RoomID != matchID {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid ticket"})
			return
		}
		if h.matches != nil {
			if _, err := h.matches.Get(matchID); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.Warnw("[WS] upgrade error", "error", err)
			return
		}

		client := &Client{
			hub:      h,
			conn:     conn,
			playerID: claims.PlayerID,
			seat:     game.Seat(claims.Seat),
			matchID:  matchID,
			send:     make(chan []byte, sendBufferSize),
		}

		if !h.join(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

// readPump reads inbound messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Infow("[WS] unexpected close", "player", c.playerID, "error", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		c.handleMessage(msg)
	}
}

// handleMessage forwards a command to the match. Commands the match cannot
// apply right now are dropped by the match itself.
func (c *Client) handleMessage(msg WSMessage) {
	if c.hub.matches == nil {
		return
	}
	m, err := c.hub.matches.Get(c.matchID)
	if err != nil {
		c.sendError("match not found")
		return
	}

	switch msg.Type {
	case "shoot":
		var data ShootData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid shot data")
			return
		}
		m.Shoot(c.seat, data.Angle, data.Force)

	case "place_cue_ball":
		var data PlaceCueBallData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid placement data")
			return
		}
		m.PlaceCueBall(c.seat, data.X, data.Y)

	case "aim":
		var data AimData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.Aim(c.seat, data.Angle, data.Force)

	case "reset":
		m.Reset(c.seat)

	default:
		c.sendError("unknown message type")
	}
}
