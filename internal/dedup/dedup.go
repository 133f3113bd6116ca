package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"PIX-Group-Bot/internal/logger"
)

// Telegram redelivers updates whenever it suspects the webhook failed. The
// de-duplication window absorbs those replays across all instances: the first
// handler to claim (bot, update id) wins, later ones drop the update.

const Window = 10 * time.Minute

var client *redis.Client

func Init(addr, password string) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

// FirstSeen claims the update id for this bot. Returns false when another
// delivery already claimed it inside the window. Fails open: if Redis is
// unreachable the update is processed rather than dropped.
func FirstSeen(botID uint, updateID int) bool {
	if client == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	key := Key(botID, updateID)
	ok, err := client.SetNX(ctx, key, 1, Window).Result()
	if err != nil {
		logger.Warn("dedup check failed, processing anyway",
			zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}

// Key builds the claim key for one update of one bot.
func Key(botID uint, updateID int) string {
	return fmt.Sprintf("update_seen:%d:%d", botID, updateID)
}
