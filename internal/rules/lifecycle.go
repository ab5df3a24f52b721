package rules

import (
	"fmt"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

// Resign ends the game in favor of the other color.
func Resign(game *entity.Game, color entity.Color) (*entity.Game, error) {
	if game.IsFinished() {
		return nil, apperror.ErrGameFinished
	}

	if color != entity.Black && color != entity.White {
		return nil, fmt.Errorf("%w: %v", apperror.ErrBadColor, color)
	}

	next := game.Clone()
	next.Phase = entity.PhaseFinished
	next.Result = &entity.Result{Resigned: color, Winner: color.Other()}
	next.ClearScoring()

	return next, nil
}

// Reset clears the board and starts over at the given size. Seats are kept.
func Reset(game *entity.Game, size int) (*entity.Game, error) {
	board, err := entity.NewBoard(size)
	if err != nil {
		return nil, err
	}

	next := game.Clone()
	next.Board = board
	next.ToMove = entity.Black
	next.Phase = entity.PhasePlay
	next.PassStreak = 0
	next.ClearScoring()
	next.Seen = entity.NewPositionSet(entity.HashPosition(board, entity.Black))
	next.LastMove = nil
	next.MoveCount = 0
	next.Result = nil

	return next, nil
}
