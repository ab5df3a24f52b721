package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultActionCacheSize = 300

// ActionCache remembers the response to each client action id per game so a
// retried request observes the original outcome. Every game keeps at most
// capacity entries and the oldest are evicted first.
type ActionCache interface {
	Get(ctx context.Context, gameID, actionID string) ([]byte, bool, error)
	// Put stores payload unless actionID is already cached.
	Put(ctx context.Context, gameID, actionID string, payload []byte) error
	Drop(ctx context.Context, gameID string) error
}

// putActionScript inserts once and trims the insertion order list.
// KEYS: payload hash, order list. ARGV: action id, payload, capacity.
var putActionScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 0 then
	return 0
end
redis.call('RPUSH', KEYS[2], ARGV[1])
local capacity = tonumber(ARGV[3])
while redis.call('LLEN', KEYS[2]) > capacity do
	local oldest = redis.call('LPOP', KEYS[2])
	redis.call('HDEL', KEYS[1], oldest)
end
return 1
`)

type dbActionCache struct {
	client   *redis.Client
	capacity int
}

func NewActionCache(client *redis.Client, capacity int) ActionCache {
	if capacity <= 0 {
		capacity = DefaultActionCacheSize
	}

	return &dbActionCache{
		client:   client,
		capacity: capacity,
	}
}

func actionsKey(gameID string) string {
	return gameKey(gameID) + ":actions"
}

func actionsOrderKey(gameID string) string {
	return actionsKey(gameID) + ":order"
}

func (that *dbActionCache) Get(ctx context.Context, gameID, actionID string) ([]byte, bool, error) {
	payload, err := that.client.HGet(ctx, actionsKey(gameID), actionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached action: %w", err)
	}

	return payload, true, nil
}

func (that *dbActionCache) Put(ctx context.Context, gameID, actionID string, payload []byte) error {
	keys := []string{actionsKey(gameID), actionsOrderKey(gameID)}

	if err := putActionScript.Run(ctx, that.client, keys, actionID, payload, that.capacity).Err(); err != nil {
		return fmt.Errorf("failed to cache action: %w", err)
	}

	return nil
}

func (that *dbActionCache) Drop(ctx context.Context, gameID string) error {
	if err := that.client.Del(ctx, actionsKey(gameID), actionsOrderKey(gameID)).Err(); err != nil {
		return fmt.Errorf("failed to drop cached actions: %w", err)
	}

	return nil
}
