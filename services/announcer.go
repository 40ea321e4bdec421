package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anteneh-g/tambola-backend/game"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// RedisAnnouncer publishes engine events to a per-game redis channel for the
// audio/announcement collaborator. Each event carries a per-game sequence
// number, so subscribers deduplicate repeated delivery themselves.
type RedisAnnouncer struct {
	rdb *redis.Client
}

func NewRedisAnnouncer(rdb *redis.Client) *RedisAnnouncer {
	return &RedisAnnouncer{rdb: rdb}
}

func eventChannel(gameID string) string {
	return "tambola:events:" + gameID
}

// Emit never blocks the call loop: publishing runs on its own goroutine with
// a short deadline and failures are logged, not surfaced.
func (a *RedisAnnouncer) Emit(ev game.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[announcer] marshal event seq=%d game=%s: %v", ev.Seq, ev.GameID, err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.rdb.Publish(ctx, eventChannel(ev.GameID), b).Err(); err != nil {
			logger.Errorf("[announcer] publish seq=%d game=%s: %v", ev.Seq, ev.GameID, err)
		}
	}()
}
