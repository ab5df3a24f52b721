package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, id string, updatedAt time.Time) *entity.Game {
	t.Helper()

	game, err := entity.NewGame(id, "", 5, testNow)
	require.NoError(t, err)
	game.UpdatedAt = updatedAt

	return game
}

func bumpRevision(game *entity.Game) (*entity.Game, error) {
	game.Revision++
	game.Board.Set(0, 0, entity.Black)
	return game, nil
}

func TestGameRepository_Create(t *testing.T) {
	t.Run("Stores a new game", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		// Given: a new game
		game := newTestGame(t, "123", testNow)

		// When: Create is called
		err := gameRepo.Create(ctx, game)

		// Then: the game can be read back
		require.NoError(t, err)

		stored, err := gameRepo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, game.Name, stored.Name)
		assert.Equal(t, game.Board, stored.Board)
		assert.True(t, stored.Seen.Has(stored.PositionHash()))
	})

	t.Run("Refuses to overwrite an existing game", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		game := newTestGame(t, "123", testNow)
		require.NoError(t, gameRepo.Create(ctx, game))

		err := gameRepo.Create(ctx, game)

		require.ErrorIs(t, err, apperror.ErrGameAlreadyExists)
	})

	t.Run("A refused duplicate leaves the record and its index entry alone", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored game
		require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "123", testNow)))

		// When: a newer game with the same id is created
		duplicate := newTestGame(t, "123", testNow.Add(time.Hour))
		duplicate.Name = "duplicate"
		err := gameRepo.Create(ctx, duplicate)

		// Then: it is refused and nothing about the first game moved
		require.ErrorIs(t, err, apperror.ErrGameAlreadyExists)

		stored, err := gameRepo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Empty(t, stored.Name)

		score, err := st.Storage.ZScore(ctx, gamesIndexKey, "123").Result()
		require.NoError(t, err)
		assert.Equal(t, float64(testNow.UnixMilli()), score)
	})

	t.Run("Concurrent creates of one id store it exactly once", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		const writers = 8
		games := make([]*entity.Game, writers)
		for i := range games {
			games[i] = newTestGame(t, "123", testNow.Add(time.Duration(i)*time.Minute))
		}
		errs := make([]error, writers)

		var wg sync.WaitGroup
		for i, game := range games {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = gameRepo.Create(ctx, game)
			}()
		}
		wg.Wait()

		created := 0
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.ErrorIs(t, err, apperror.ErrGameAlreadyExists)
		}

		assert.Equal(t, 1, created)

		stored, err := gameRepo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		// When: GetByID is called with non-existent ID
		_, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameRepository_Update(t *testing.T) {
	t.Run("Commits the result of fn", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)
		require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "123", testNow)))

		// When: the game is updated
		updated, err := gameRepo.Update(ctx, "123", bumpRevision)

		// Then: the new revision is stored
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.Revision)

		stored, err := gameRepo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Revision)
		assert.Equal(t, entity.Black, stored.Board.At(0, 0))
	})

	t.Run("A rejection leaves the record untouched", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)
		require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "123", testNow)))

		// When: fn rejects after modifying its copy
		current, err := gameRepo.Update(ctx, "123", func(game *entity.Game) (*entity.Game, error) {
			game.Revision = 42
			return nil, apperror.ErrOccupied
		})

		// Then: the error comes back with the unmodified game
		require.ErrorIs(t, err, apperror.ErrOccupied)
		require.NotNil(t, current)
		assert.Equal(t, int64(0), current.Revision)

		stored, err := gameRepo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, int64(0), stored.Revision)
	})

	t.Run("A concurrent write makes the update conflict", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)
		require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "123", testNow)))

		// When: another writer commits while fn runs
		_, err := gameRepo.Update(ctx, "123", func(game *entity.Game) (*entity.Game, error) {
			_, innerErr := gameRepo.Update(ctx, "123", bumpRevision)
			require.NoError(t, innerErr)

			game.Revision = 7
			return game, nil
		})

		// Then: the outer update is refused and the inner one survives
		require.ErrorIs(t, err, apperror.ErrConflict)

		stored, err := gameRepo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Revision)
	})

	t.Run("Unknown games are not found", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		_, err := gameRepo.Update(ctx, "nope", bumpRevision)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameRepository_DeleteByID(t *testing.T) {
	t.Run("DeleteByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		// Given: a stored game
		require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "123", testNow)))

		// When: DeleteByID is called with existing ID
		err := gameRepo.DeleteByID(ctx, "123")

		// Then: the game is gone from storage and listing
		require.NoError(t, err)

		_, err = gameRepo.GetByID(ctx, "123")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)

		games, err := gameRepo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)
		gameRepo := NewGameRepository(st.Storage)

		// When: DeleteByID is called with non-existent ID
		err := gameRepo.DeleteByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameRepository_List(t *testing.T) {
	ctx, st := suite.New(t)
	gameRepo := NewGameRepository(st.Storage)

	// Given: three games updated at different times
	require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "old", testNow)))
	require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "new", testNow.Add(2*time.Minute))))
	require.NoError(t, gameRepo.Create(ctx, newTestGame(t, "mid", testNow.Add(time.Minute))))

	// When: listing
	games, err := gameRepo.List(ctx)

	// Then: the most recently updated come first
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "new", games[0].ID)
	assert.Equal(t, "mid", games[1].ID)
	assert.Equal(t, "old", games[2].ID)
}
