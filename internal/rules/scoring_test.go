package rules

import (
	"testing"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// columnsGame has a black column at x=0 and a white column at x=3 on 5x5.
func columnsGame(t *testing.T) *entity.Game {
	t.Helper()

	var stones []stone
	for y := 0; y < 5; y++ {
		stones = append(stones, stone{0, y, entity.Black}, stone{3, y, entity.White})
	}

	game := setupGame(t, 5, entity.Black, stones...)
	game.Phase = entity.PhaseScoring
	game.PassStreak = 2

	return game
}

func TestComputeScore(t *testing.T) {
	t.Run("Regions touching both colors are neutral", func(t *testing.T) {
		game := columnsGame(t)

		score := ComputeScore(game.Board, game.Dead)

		assert.Equal(t, 5, score.BlackStones)
		assert.Equal(t, 5, score.WhiteStones)
		assert.Equal(t, 0, score.BlackTerritory)
		assert.Equal(t, 0, score.WhiteTerritory)
		assert.Equal(t, 15, score.Neutral)
		assert.Equal(t, 5, score.BlackTotal)
		assert.Equal(t, 5, score.WhiteTotal)
	})

	t.Run("Dead stones count as empty", func(t *testing.T) {
		// Given: the white column is marked dead
		game := columnsGame(t)
		game, err := ToggleDead(game, 3, 0)
		require.NoError(t, err)

		// When: scoring
		score := ComputeScore(game.Board, game.Dead)

		// Then: black owns everything outside its own column
		assert.Equal(t, 5, score.BlackStones)
		assert.Equal(t, 0, score.WhiteStones)
		assert.Equal(t, 20, score.BlackTerritory)
		assert.Equal(t, 25, score.BlackTotal)
		assert.Equal(t, 0, score.WhiteTotal)
		assert.Equal(t, 0, score.Neutral)

		for y := 0; y < 5; y++ {
			assert.Equal(t, entity.Empty, score.Ownership[y][0])
			for x := 1; x < 5; x++ {
				assert.Equal(t, entity.Black, score.Ownership[y][x])
			}
		}
	})

	t.Run("Territory wraps around the edges", func(t *testing.T) {
		// Given: a black ring around the corner point (0,0) through the wrap
		game := setupGame(t, 5, entity.Black,
			stone{1, 0, entity.Black},
			stone{4, 0, entity.Black},
			stone{0, 1, entity.Black},
			stone{0, 4, entity.Black},
			stone{2, 2, entity.White},
		)

		score := ComputeScore(game.Board, game.Dead)

		// Then: the corner is black territory, the rest touches both colors
		assert.Equal(t, 1, score.BlackTerritory)
		assert.Equal(t, entity.Black, score.Ownership[0][0])
		assert.Equal(t, 0, score.WhiteTerritory)
		assert.Equal(t, 25-5-1, score.Neutral)
	})

	t.Run("An empty board is all neutral", func(t *testing.T) {
		game := setupGame(t, 3, entity.Black)

		score := ComputeScore(game.Board, game.Dead)

		assert.Equal(t, 9, score.Neutral)
		assert.Equal(t, 0, score.BlackTotal)
	})

	t.Run("Is a pure function", func(t *testing.T) {
		game := columnsGame(t)
		game.Dead = entity.CellSet{game.Board.Index(3, 1): {}}

		first := ComputeScore(game.Board, game.Dead)
		second := ComputeScore(game.Board, game.Dead)

		assert.Equal(t, first, second)
	})
}

func TestToggleDead(t *testing.T) {
	t.Run("Toggles the whole connected group", func(t *testing.T) {
		// Given: a scoring game with a five stone white column
		game := columnsGame(t)

		// When: one stone is toggled
		next, err := ToggleDead(game, 3, 2)
		require.NoError(t, err)

		// Then: every stone of the column is dead and no black stone is
		for y := 0; y < 5; y++ {
			assert.True(t, next.Dead.Has(next.Board.Index(3, y)))
			assert.False(t, next.Dead.Has(next.Board.Index(0, y)))
		}
		assert.Len(t, next.Dead, 5)

		// When: toggled again through a different stone
		next, err = ToggleDead(next, 3, 4)
		require.NoError(t, err)

		// Then: the group is alive again
		assert.Empty(t, next.Dead)
	})

	t.Run("A partly dead group is revived entirely", func(t *testing.T) {
		game := columnsGame(t)
		game.Dead = entity.CellSet{game.Board.Index(3, 1): {}}

		next, err := ToggleDead(game, 3, 3)
		require.NoError(t, err)

		assert.Empty(t, next.Dead)
	})

	t.Run("Invalidates the draft and both acceptances", func(t *testing.T) {
		game := columnsGame(t)
		game, err := FinalizeScore(game)
		require.NoError(t, err)
		game, err = AcceptScore(game, entity.Black)
		require.NoError(t, err)

		next, err := ToggleDead(game, 0, 0)
		require.NoError(t, err)

		assert.Nil(t, next.ScoreDraft)
		assert.Equal(t, entity.Acceptance{}, next.Accept)
	})

	t.Run("Empty cells are reported distinctly", func(t *testing.T) {
		game := columnsGame(t)

		_, err := ToggleDead(game, 1, 1)

		require.ErrorIs(t, err, apperror.ErrEmptyCell)
	})

	t.Run("Only allowed while scoring", func(t *testing.T) {
		game := columnsGame(t)
		game.Phase = entity.PhasePlay

		_, err := ToggleDead(game, 0, 0)

		require.ErrorIs(t, err, apperror.ErrNotScoring)
	})
}

func TestScoreAgreement(t *testing.T) {
	t.Run("Both acceptances finish the game", func(t *testing.T) {
		// Given: a finalized draft
		game, err := FinalizeScore(columnsGame(t))
		require.NoError(t, err)
		require.NotNil(t, game.ScoreDraft)

		// When: black accepts
		game, err = AcceptScore(game, entity.Black)
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseScoring, game.Phase)

		// When: white accepts
		game, err = AcceptScore(game, entity.White)
		require.NoError(t, err)

		// Then: the game is finished
		assert.Equal(t, entity.PhaseFinished, game.Phase)
	})

	t.Run("Unaccept withdraws agreement", func(t *testing.T) {
		game, err := FinalizeScore(columnsGame(t))
		require.NoError(t, err)
		game, err = AcceptScore(game, entity.Black)
		require.NoError(t, err)

		game, err = UnacceptScore(game, entity.Black)
		require.NoError(t, err)

		assert.False(t, game.Accept.Black)
	})

	t.Run("Accepting needs a draft", func(t *testing.T) {
		_, err := AcceptScore(columnsGame(t), entity.Black)
		require.ErrorIs(t, err, apperror.ErrNoScoreDraft)
	})

	t.Run("Finalize needs the scoring phase", func(t *testing.T) {
		game := columnsGame(t)
		game.Phase = entity.PhasePlay

		_, err := FinalizeScore(game)
		require.ErrorIs(t, err, apperror.ErrNotScoring)
	})
}

func TestSetPhase(t *testing.T) {
	t.Run("Returning to play clears scoring state", func(t *testing.T) {
		// Given: a scoring game with dead stones
		game, err := ToggleDead(columnsGame(t), 3, 0)
		require.NoError(t, err)

		// When: play is re-opened
		next, err := SetPhase(game, entity.PhasePlay, false)
		require.NoError(t, err)

		// Then: scoring state is gone
		assert.Equal(t, entity.PhasePlay, next.Phase)
		assert.Equal(t, 0, next.PassStreak)
		assert.Empty(t, next.Dead)
		assert.Nil(t, next.ScoreDraft)
	})

	t.Run("Scoring can be requested from play", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)

		next, err := SetPhase(game, entity.PhaseScoring, false)
		require.NoError(t, err)

		assert.Equal(t, entity.PhaseScoring, next.Phase)
	})

	t.Run("Finished games reopen only when allowed", func(t *testing.T) {
		game := columnsGame(t)
		game.Phase = entity.PhaseFinished

		_, err := SetPhase(game, entity.PhasePlay, false)
		require.ErrorIs(t, err, apperror.ErrGameFinished)

		next, err := SetPhase(game, entity.PhasePlay, true)
		require.NoError(t, err)
		assert.Equal(t, entity.PhasePlay, next.Phase)
	})

	t.Run("Unknown phases are rejected", func(t *testing.T) {
		_, err := SetPhase(columnsGame(t), entity.PhaseFinished, false)
		require.ErrorIs(t, err, apperror.ErrBadPhase)
	})
}

func TestResignAndReset(t *testing.T) {
	t.Run("Resign finishes the game for the other color", func(t *testing.T) {
		game := setupGame(t, 5, entity.Black)

		next, err := Resign(game, entity.White)
		require.NoError(t, err)

		assert.Equal(t, entity.PhaseFinished, next.Phase)
		assert.Equal(t, &entity.Result{Resigned: entity.White, Winner: entity.Black}, next.Result)

		_, err = Resign(next, entity.Black)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Reset starts a fresh board and keeps seats", func(t *testing.T) {
		game := columnsGame(t)
		game.Seats.Black = &entity.Seat{ActorID: "alice"}

		next, err := Reset(game, 7)
		require.NoError(t, err)

		assert.Equal(t, 7, next.Board.Size)
		assert.Equal(t, entity.PhasePlay, next.Phase)
		assert.Equal(t, entity.Black, next.ToMove)
		assert.Len(t, next.Seen, 1)
		assert.True(t, next.Seen.Has(next.PositionHash()))
		assert.Equal(t, "alice", next.Seats.Black.ActorID)
	})

	t.Run("Reset validates the size", func(t *testing.T) {
		_, err := Reset(columnsGame(t), 2)
		require.ErrorIs(t, err, apperror.ErrBoardSize)
	})
}
