package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playpool/eightball/internal/auth"
	"github.com/playpool/eightball/internal/config"
	"github.com/playpool/eightball/internal/game"
	"github.com/playpool/eightball/internal/logger"
)

type joinRequest struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}

const maxNameLength = 20

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}

// errorStatus maps manager errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidRoomID):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrBadPasscode):
		return http.StatusForbidden
	case errors.Is(err, game.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrMatchClosed):
		return http.StatusGone
	case errors.Is(err, game.ErrTooManyMatches):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// seatResponse issues the seat ticket the client presents on the websocket.
func seatResponse(c *gin.Context, cfg *config.Config, res game.JoinResult) {
	ticket, err := auth.IssueSeatTicket(cfg.JWTSecret, res.MatchID, string(res.Seat), res.PlayerID, cfg.SeatTicketTTL())
	if err != nil {
		logger.Log.Errorw("[API] issue seat ticket", "match", res.MatchID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue ticket"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":   res.MatchID,
		"seat":      res.Seat,
		"player_id": res.PlayerID,
		"ticket":    ticket,
		"ws_url":    fmt.Sprintf("/api/v1/rooms/%s/ws?ticket=%s", res.MatchID, ticket),
	})
}

// ListRooms returns the open human rooms.
func ListRooms(gm *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": gm.Rooms()})
	}
}

// CreateBotRoom starts a match against the synthetic player.
func CreateBotRoom(gm *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRequest
		_ = c.ShouldBindJSON(&req)

		_, res, err := gm.CreateBotMatch(c.Request.Context(), cleanName(req.Name))
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		seatResponse(c, cfg, res)
	}
}

// JoinRoom seats the caller in a human room, creating it if needed.
func JoinRoom(gm *game.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRequest
		_ = c.ShouldBindJSON(&req)

		_, res, err := gm.JoinOrCreate(c.Request.Context(), c.Param("id"), cleanName(req.Name), req.Passcode)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		seatResponse(c, cfg, res)
	}
}

// GetRoom returns the live view of a match, or its cached snapshot once it
// has ended.
func GetRoom(gm *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := gm.Snapshot(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
