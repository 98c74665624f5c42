package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSeatTicketRoundTrip(t *testing.T) {
	ticket, err := IssueSeatTicket("secret", "room1", "p2", "player-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ParseSeatTicket("secret", ticket)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.RoomID != "room1" || claims.Seat != "p2" || claims.PlayerID != "player-1" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestSeatTicketWrongSecret(t *testing.T) {
	ticket, err := IssueSeatTicket("secret", "room1", "p1", "x", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseSeatTicket("other", ticket); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("expected ErrInvalidTicket, got %v", err)
	}
}

func TestSeatTicketExpired(t *testing.T) {
	ticket, err := IssueSeatTicket("secret", "room1", "p1", "x", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseSeatTicket("secret", ticket); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("expected ErrInvalidTicket for expired ticket, got %v", err)
	}
}

func TestSeatTicketGarbage(t *testing.T) {
	if _, err := ParseSeatTicket("secret", "not-a-jwt"); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("expected ErrInvalidTicket, got %v", err)
	}
}
