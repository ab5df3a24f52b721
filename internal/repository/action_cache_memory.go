package repository

import (
	"context"
	"slices"
	"sync"
)

type gameActions struct {
	payloads map[string][]byte
	order    []string
}

type actionShard struct {
	mu    sync.Mutex
	games map[string]*gameActions
}

type memoryActionCache struct {
	shards   [shardCount]*actionShard
	capacity int
}

func NewMemoryActionCache(capacity int) ActionCache {
	if capacity <= 0 {
		capacity = DefaultActionCacheSize
	}

	cache := &memoryActionCache{capacity: capacity}
	for i := range cache.shards {
		cache.shards[i] = &actionShard{games: make(map[string]*gameActions)}
	}

	return cache
}

func (that *memoryActionCache) shard(gameID string) *actionShard {
	return that.shards[shardIndex(gameID)]
}

func (that *memoryActionCache) Get(_ context.Context, gameID, actionID string) ([]byte, bool, error) {
	shard := that.shard(gameID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	actions, ok := shard.games[gameID]
	if !ok {
		return nil, false, nil
	}

	payload, ok := actions.payloads[actionID]
	if !ok {
		return nil, false, nil
	}

	return slices.Clone(payload), true, nil
}

func (that *memoryActionCache) Put(_ context.Context, gameID, actionID string, payload []byte) error {
	shard := that.shard(gameID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	actions, ok := shard.games[gameID]
	if !ok {
		actions = &gameActions{payloads: make(map[string][]byte)}
		shard.games[gameID] = actions
	}

	if _, ok = actions.payloads[actionID]; ok {
		return nil
	}

	actions.payloads[actionID] = slices.Clone(payload)
	actions.order = append(actions.order, actionID)

	for len(actions.order) > that.capacity {
		delete(actions.payloads, actions.order[0])
		actions.order = actions.order[1:]
	}

	return nil
}

func (that *memoryActionCache) Drop(_ context.Context, gameID string) error {
	shard := that.shard(gameID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.games, gameID)

	return nil
}
