package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

const shardCount = 32

func shardIndex(id string) uint64 {
	return xxhash.Sum64String(id) % shardCount
}

type gameShard struct {
	mu    sync.Mutex
	games map[string][]byte
}

// memoryGames keeps encoded games in process. Games are spread over shards so
// writers on different games rarely share a lock.
type memoryGames struct {
	shards [shardCount]*gameShard
}

func NewMemoryGameRepository() GameRepository {
	repo := &memoryGames{}
	for i := range repo.shards {
		repo.shards[i] = &gameShard{games: make(map[string][]byte)}
	}

	return repo
}

func (that *memoryGames) shard(id string) *gameShard {
	return that.shards[shardIndex(id)]
}

func (that *memoryGames) Create(_ context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	shard := that.shard(game.ID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.games[game.ID]; ok {
		return apperror.ErrGameAlreadyExists
	}
	shard.games[game.ID] = gameJSON

	return nil
}

func (that *memoryGames) read(id string) ([]byte, error) {
	shard := that.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	data, ok := shard.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return data, nil
}

func (that *memoryGames) GetByID(_ context.Context, id string) (*entity.Game, error) {
	data, err := that.read(id)
	if err != nil {
		return nil, err
	}

	return decodeGame(data)
}

func (that *memoryGames) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	data, err := that.read(id)
	if err != nil {
		return nil, err
	}

	current, err := decodeGame(data)
	if err != nil {
		return nil, err
	}

	updated, err := fn(current.Clone())
	if err != nil {
		return current, err
	}

	gameJSON, err := json.Marshal(updated)
	if err != nil {
		return current, fmt.Errorf("could not marshal game: %w", err)
	}

	shard := that.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	stored, ok := shard.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	if !bytes.Equal(stored, data) {
		return nil, apperror.ErrConflict
	}
	shard.games[id] = gameJSON

	return updated, nil
}

func (that *memoryGames) DeleteByID(_ context.Context, id string) error {
	shard := that.shard(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.games[id]; !ok {
		return apperror.ErrGameNotFound
	}
	delete(shard.games, id)

	return nil
}

func (that *memoryGames) List(_ context.Context) ([]*entity.Game, error) {
	var encoded [][]byte
	for _, shard := range that.shards {
		shard.mu.Lock()
		for _, data := range shard.games {
			encoded = append(encoded, data)
		}
		shard.mu.Unlock()
	}

	games := make([]*entity.Game, 0, len(encoded))
	for _, data := range encoded {
		game, err := decodeGame(data)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	slices.SortFunc(games, func(a, b *entity.Game) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return games, nil
}
