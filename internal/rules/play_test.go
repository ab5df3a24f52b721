package rules

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stone struct {
	x, y  int
	color entity.Color
}

// setupGame builds a game with the given stones whose current position is the
// only one seen so far.
func setupGame(t *testing.T, size int, toMove entity.Color, stones ...stone) *entity.Game {
	t.Helper()

	game, err := entity.NewGame("game-1", "test", size, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	for _, s := range stones {
		game.Board.Set(s.x, s.y, s.color)
	}
	game.ToMove = toMove
	game.Seen = entity.NewPositionSet(game.PositionHash())

	return game
}

func TestPlay(t *testing.T) {
	t.Run("Places a stone and flips the turn", func(t *testing.T) {
		// Given: an empty board
		game := setupGame(t, 5, entity.Black)

		// When: black plays (2,2)
		next, effect, err := Play(game, 2, 2)
		require.NoError(t, err)

		// Then: the stone is placed and white is to move
		assert.Equal(t, entity.Black, next.Board.At(2, 2))
		assert.Equal(t, entity.White, next.ToMove)
		assert.Equal(t, 0, effect.Captured)
		assert.Equal(t, &entity.Point{X: 2, Y: 2}, next.LastMove)
		assert.Equal(t, 1, next.MoveCount)
		assert.True(t, next.Seen.Has(next.PositionHash()))

		// Then: the input game is untouched
		assert.Equal(t, entity.Empty, game.Board.At(2, 2))
		assert.Equal(t, entity.Black, game.ToMove)
	})

	t.Run("Occupied cells are rejected, including through the wrap", func(t *testing.T) {
		// Given: black has played (2,2) on a 5x5 board
		game := setupGame(t, 5, entity.Black)
		game, _, err := Play(game, 2, 2)
		require.NoError(t, err)

		// When: white plays (2,2) and then (7,7)
		_, _, err = Play(game, 2, 2)
		require.ErrorIs(t, err, apperror.ErrOccupied)

		_, _, err = Play(game, 7, 7)
		require.ErrorIs(t, err, apperror.ErrOccupied)

		// Then: the turn and board are unchanged
		assert.Equal(t, entity.White, game.ToMove)
		assert.Equal(t, entity.Black, game.Board.At(2, 2))
	})

	t.Run("Surrounding a lone stone captures it", func(t *testing.T) {
		// Given: a black stone with three white neighbors
		game := setupGame(t, 5, entity.White,
			stone{2, 2, entity.Black},
			stone{1, 2, entity.White},
			stone{3, 2, entity.White},
			stone{2, 1, entity.White},
		)

		// When: white fills the last liberty
		next, effect, err := Play(game, 2, 3)
		require.NoError(t, err)

		// Then: exactly one stone is captured and its cell is empty
		assert.Equal(t, 1, effect.Captured)
		assert.Equal(t, entity.Empty, next.Board.At(2, 2))
	})

	t.Run("Captures across the board edge", func(t *testing.T) {
		// Given: a black stone at the corner whose neighbors wrap around
		game := setupGame(t, 5, entity.White,
			stone{0, 0, entity.Black},
			stone{1, 0, entity.White},
			stone{4, 0, entity.White},
			stone{0, 1, entity.White},
		)

		// When: white plays the wrapped neighbor (0,4)
		next, effect, err := Play(game, 0, -1)
		require.NoError(t, err)

		// Then: the corner stone is captured
		assert.Equal(t, 1, effect.Captured)
		assert.Equal(t, entity.Empty, next.Board.At(0, 0))
		assert.Equal(t, entity.White, next.Board.At(0, 4))
	})

	t.Run("Suicide is rejected without mutation", func(t *testing.T) {
		// Given: an empty point surrounded by white
		game := setupGame(t, 5, entity.Black,
			stone{1, 2, entity.White},
			stone{3, 2, entity.White},
			stone{2, 1, entity.White},
			stone{2, 3, entity.White},
		)
		before := game.Clone()

		// When: black plays into it
		next, _, err := Play(game, 2, 2)

		// Then: the move is rejected and nothing changed
		require.ErrorIs(t, err, apperror.ErrSuicide)
		assert.Nil(t, next)
		assert.Equal(t, before, game)
	})

	t.Run("A capturing move into a surrounded point is not suicide", func(t *testing.T) {
		// Given: a white stone in atari next to a black eye
		game := setupGame(t, 7, entity.Black,
			stone{2, 1, entity.Black},
			stone{1, 2, entity.Black},
			stone{2, 3, entity.Black},
			stone{3, 1, entity.White},
			stone{4, 2, entity.White},
			stone{3, 3, entity.White},
			stone{2, 2, entity.White},
		)

		// When: black takes the last liberty of the white stone
		next, effect, err := Play(game, 3, 2)

		// Then: the white stone is captured and the black stone lives
		require.NoError(t, err)
		assert.Equal(t, 1, effect.Captured)
		assert.Equal(t, entity.Empty, next.Board.At(2, 2))
	})

	t.Run("Recreating an earlier position is superko", func(t *testing.T) {
		// Given: a ko shape where black can take
		game := setupGame(t, 7, entity.Black,
			stone{2, 1, entity.Black},
			stone{1, 2, entity.Black},
			stone{2, 3, entity.Black},
			stone{3, 1, entity.White},
			stone{4, 2, entity.White},
			stone{3, 3, entity.White},
			stone{2, 2, entity.White},
		)

		// When: black takes the ko
		game, effect, err := Play(game, 3, 2)
		require.NoError(t, err)
		require.Equal(t, 1, effect.Captured)

		// When: white immediately retakes
		before := game.Clone()
		_, _, err = Play(game, 2, 2)

		// Then: the retake recreates the first position with black to move
		require.ErrorIs(t, err, apperror.ErrSuperko)
		assert.Equal(t, before, game)
	})

	t.Run("Retaking is legal once the board changed elsewhere", func(t *testing.T) {
		// Given: black took the ko, white passed and black played elsewhere
		game := setupGame(t, 7, entity.Black,
			stone{2, 1, entity.Black},
			stone{1, 2, entity.Black},
			stone{2, 3, entity.Black},
			stone{3, 1, entity.White},
			stone{4, 2, entity.White},
			stone{3, 3, entity.White},
			stone{2, 2, entity.White},
		)
		game, _, err := Play(game, 3, 2)
		require.NoError(t, err)

		game, err = Pass(game)
		require.NoError(t, err)
		game, _, err = Play(game, 6, 6)
		require.NoError(t, err)

		// When: white retakes
		game, effect, err := Play(game, 2, 2)

		// Then: the position is new because of (6,6), so the retake is legal
		require.NoError(t, err)
		assert.Equal(t, 1, effect.Captured)
		assert.Equal(t, entity.Black, game.ToMove)
	})

	t.Run("Moves are rejected outside the play phase", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)
		game.Phase = entity.PhaseScoring

		_, _, err := Play(game, 0, 0)
		require.ErrorIs(t, err, apperror.ErrNotPlaying)

		kind, reason := apperror.Classify(err)
		assert.Equal(t, apperror.KindRules, kind)
		assert.Equal(t, "Scoring", reason)
	})

	t.Run("Playing clears a leftover score draft", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)
		game.ScoreDraft = &entity.Score{}
		game.Accept.Black = true

		next, _, err := Play(game, 0, 0)
		require.NoError(t, err)

		assert.Nil(t, next.ScoreDraft)
		assert.False(t, next.Accept.Black)
		assert.Empty(t, next.Dead)
	})
}

func TestPass(t *testing.T) {
	t.Run("Two consecutive passes start scoring", func(t *testing.T) {
		// Given: a fresh game
		game := setupGame(t, 5, entity.Black)

		// When: both players pass
		game, err := Pass(game)
		require.NoError(t, err)
		assert.Equal(t, entity.PhasePlay, game.Phase)
		assert.Equal(t, 1, game.PassStreak)

		game, err = Pass(game)
		require.NoError(t, err)

		// Then: the game is in scoring
		assert.Equal(t, entity.PhaseScoring, game.Phase)
		assert.Equal(t, 2, game.PassStreak)
		assert.Equal(t, 2, game.MoveCount)
	})

	t.Run("A play in between resets the streak", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)

		game, err := Pass(game)
		require.NoError(t, err)
		game, _, err = Play(game, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, game.PassStreak)

		game, err = Pass(game)
		require.NoError(t, err)

		assert.Equal(t, entity.PhasePlay, game.Phase)
	})

	t.Run("Records the new position and clears the last move", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)
		game, _, err := Play(game, 1, 1)
		require.NoError(t, err)

		game, err = Pass(game)
		require.NoError(t, err)

		assert.Nil(t, game.LastMove)
		assert.True(t, game.Seen.Has(game.PositionHash()))
	})

	t.Run("Cannot pass while scoring", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)
		game.Phase = entity.PhaseScoring

		_, err := Pass(game)
		require.ErrorIs(t, err, apperror.ErrNotPlaying)
	})
}
