package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/playpool/eightball/internal/game"
	"github.com/playpool/eightball/internal/logger"
)

// StartGameEventSubscriber relays game events published by other instances to
// any local watchers of the same match.
func StartGameEventSubscriber(ctx context.Context, rdb *redis.Client, h *Hub, origin string) {
	if rdb == nil {
		logger.Log.Info("[WS] redis not configured; game event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, game.GameEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		logger.Log.Infow("[WS] game event subscriber started", "channel", game.GameEventsChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.relayGameEvent([]byte(msg.Payload), origin)
			}
		}
	}()
}

// relayGameEvent broadcasts a foreign event to the match room. It reports
// whether the event was relayed.
func (h *Hub) relayGameEvent(payload []byte, origin string) bool {
	var ev game.GameEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		logger.Log.Warnw("[WS] invalid game event payload", "error", err)
		return false
	}
	if ev.Origin == origin || ev.MatchID == "" {
		return false
	}
	if h.RoomSize(ev.MatchID) == 0 {
		return false
	}
	logger.Log.Debugw("[WS] relaying game event", "type", ev.Type, "match", ev.MatchID)
	h.BroadcastToGame(ev.MatchID, game.Event{Type: "game_event", Data: ev})
	return true
}
