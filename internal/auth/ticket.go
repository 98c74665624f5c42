package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidTicket = errors.New("invalid seat ticket")

// SeatClaims bind a websocket connection to a seat in a match. An empty Seat
// means the holder watches as a spectator.
type SeatClaims struct {
	RoomID   string `json:"room_id"`
	Seat     string `json:"seat"`
	PlayerID string `json:"player_id"`
	jwt.RegisteredClaims
}

// IssueSeatTicket signs a ticket valid for ttl.
func IssueSeatTicket(secret, roomID, seat, playerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SeatClaims{
		RoomID:   roomID,
		Seat:     seat,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   playerID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign seat ticket: %w", err)
	}
	return signed, nil
}

// ParseSeatTicket verifies a ticket and returns its claims.
func ParseSeatTicket(secret, ticket string) (*SeatClaims, error) {
	claims := &SeatClaims{}
	parsed, err := jwt.ParseWithClaims(ticket, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidTicket
	}
	if claims.RoomID == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}
