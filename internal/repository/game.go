package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

const (
	gameKeyPrefix = "game:"
	gamesIndexKey = "games:index"
)

// UpdateFunc receives a private copy of the stored game and returns the game
// to commit. Returning an error aborts the update without writing.
type UpdateFunc func(game *entity.Game) (*entity.Game, error)

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	// Update commits fn's result only if the stored record is unchanged since
	// it was read, otherwise it fails with apperror.ErrConflict. When fn
	// rejects, the game as read is returned together with fn's error.
	Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	// List returns all games, most recently updated first.
	List(ctx context.Context) ([]*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return gameKeyPrefix + id
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	key := gameKey(game.ID)

	// the record and its index entry land together or not at all
	err = that.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to check game: %w", err)
		}

		if exists > 0 {
			return apperror.ErrGameAlreadyExists
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			pipe.ZAdd(ctx, gamesIndexKey, indexEntry(game))
			return nil
		})

		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		// another writer created the id between the check and the commit
		return apperror.ErrGameAlreadyExists
	case errors.Is(err, apperror.ErrGameAlreadyExists):
		return err
	case err != nil:
		return fmt.Errorf("failed to create game: %w", err)
	default:
		return nil
	}
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return decodeGame(response)
}

func (that *dbGame) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Game, error) {
	key := gameKey(id)

	var current, updated *entity.Game

	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrGameNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get game by id: %w", err)
		}

		if current, err = decodeGame(response); err != nil {
			return err
		}

		if updated, err = fn(current.Clone()); err != nil {
			return err
		}

		gameJSON, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			pipe.ZAdd(ctx, gamesIndexKey, indexEntry(updated))
			return nil
		})

		return err
	}, key)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return nil, apperror.ErrConflict
	case err != nil:
		return current, err
	default:
		return updated, nil
	}
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, gameKey(id))
		pipe.ZRem(ctx, gamesIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	if deleted.Val() == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *dbGame) List(ctx context.Context) ([]*entity.Game, error) {
	ids, err := that.client.ZRevRange(ctx, gamesIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read games index: %w", err)
	}

	if len(ids) == 0 {
		return []*entity.Game{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*entity.Game, 0, len(values))
	for _, value := range values {
		// the index can briefly outlive a deleted game
		raw, ok := value.(string)
		if !ok {
			continue
		}

		game, err := decodeGame([]byte(raw))
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	return games, nil
}

func indexEntry(game *entity.Game) redis.Z {
	return redis.Z{
		Score:  float64(game.UpdatedAt.UnixMilli()),
		Member: game.ID,
	}
}

func decodeGame(data []byte) (*entity.Game, error) {
	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	if game.Board == nil {
		return nil, fmt.Errorf("failed to unmarshal game %q: missing board", game.ID)
	}

	if game.Dead == nil {
		game.Dead = entity.CellSet{}
	}

	if game.Seen == nil {
		game.Seen = entity.NewPositionSet(game.PositionHash())
	}

	return &game, nil
}
