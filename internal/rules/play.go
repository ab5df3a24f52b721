// Package rules implements Go on a torus as pure transitions over entity.Game.
// The input game is never modified; accepted transitions return a fresh copy.
package rules

import (
	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

// passesToScore is the pass streak that ends play.
const passesToScore = 2

// Effect describes side effects of an accepted move.
type Effect struct {
	Captured int `json:"captured"`
}

// Play places a stone for the color to move at (x, y), wrapped onto the board.
func Play(game *entity.Game, x, y int) (*entity.Game, Effect, error) {
	if err := game.ConfirmPlaying(); err != nil {
		return nil, Effect{}, err
	}

	idx := game.Board.Index(x, y)
	if game.Board.Cells[idx] != entity.Empty {
		return nil, Effect{}, apperror.ErrOccupied
	}

	mover := game.ToMove
	opponent := mover.Other()

	board := game.Board.Clone()
	board.Cells[idx] = mover

	var effect Effect
	visited := make([]bool, len(board.Cells))
	for _, nb := range board.Neighbors(idx) {
		if board.Cells[nb] != opponent || visited[nb] {
			continue
		}

		g := collectGroup(board, nb, visited)
		if g.liberties > 0 {
			continue
		}

		for _, stone := range g.stones {
			board.Cells[stone] = entity.Empty
		}
		effect.Captured += len(g.stones)
	}

	own := collectGroup(board, idx, make([]bool, len(board.Cells)))
	if own.liberties == 0 {
		return nil, Effect{}, apperror.ErrSuicide
	}

	hash := entity.HashPosition(board, opponent)
	if game.Seen.Has(hash) {
		return nil, Effect{}, apperror.ErrSuperko
	}

	next := game.Clone()
	next.Board = board
	next.ToMove = opponent
	next.PassStreak = 0
	next.ClearScoring()
	next.Seen.Add(hash)
	p := board.Point(idx)
	next.LastMove = &p
	next.MoveCount++

	return next, effect, nil
}

// Pass hands the turn over. The second consecutive pass starts scoring.
func Pass(game *entity.Game) (*entity.Game, error) {
	if err := game.ConfirmPlaying(); err != nil {
		return nil, err
	}

	next := game.Clone()
	next.ToMove = game.ToMove.Other()
	next.PassStreak++
	next.Seen.Add(next.PositionHash())
	next.LastMove = nil
	next.MoveCount++

	if next.PassStreak >= passesToScore {
		next.Phase = entity.PhaseScoring
	}

	return next, nil
}
