package rules

import (
	"fmt"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

// ToggleDead flips the liveness of the whole group at (x, y).
// If any stone of the group is dead the group is revived, otherwise it dies.
func ToggleDead(game *entity.Game, x, y int) (*entity.Game, error) {
	if err := game.ConfirmScoring(); err != nil {
		return nil, err
	}

	idx := game.Board.Index(x, y)
	if game.Board.Cells[idx] == entity.Empty {
		return nil, apperror.ErrEmptyCell
	}

	stones := collectStones(game.Board, idx)

	anyDead := false
	for _, stone := range stones {
		if game.Dead.Has(stone) {
			anyDead = true
			break
		}
	}

	next := game.Clone()
	for _, stone := range stones {
		if anyDead {
			delete(next.Dead, stone)
		} else {
			next.Dead[stone] = struct{}{}
		}
	}
	next.ScoreDraft = nil
	next.Accept = entity.Acceptance{}

	return next, nil
}

// ComputeScore counts area: live stones plus empty regions bordered by a
// single color. Dead stones count as empty.
func ComputeScore(board *entity.Board, dead entity.CellSet) *entity.Score {
	n := board.Size
	value := func(idx int) entity.Color {
		if dead.Has(idx) {
			return entity.Empty
		}
		return board.Cells[idx]
	}

	score := &entity.Score{Ownership: make([][]entity.Color, n)}
	for y := range score.Ownership {
		score.Ownership[y] = make([]entity.Color, n)
	}

	for idx := range board.Cells {
		switch value(idx) {
		case entity.Black:
			score.BlackStones++
		case entity.White:
			score.WhiteStones++
		}
	}

	visited := make([]bool, len(board.Cells))
	for start := range board.Cells {
		if visited[start] || value(start) != entity.Empty {
			continue
		}

		var region []int
		var bordersBlack, bordersWhite bool

		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			region = append(region, idx)

			for _, nb := range board.Neighbors(idx) {
				switch value(nb) {
				case entity.Empty:
					if !visited[nb] {
						visited[nb] = true
						stack = append(stack, nb)
					}
				case entity.Black:
					bordersBlack = true
				case entity.White:
					bordersWhite = true
				}
			}
		}

		var owner entity.Color
		switch {
		case bordersBlack && !bordersWhite:
			owner = entity.Black
			score.BlackTerritory += len(region)
		case bordersWhite && !bordersBlack:
			owner = entity.White
			score.WhiteTerritory += len(region)
		default:
			score.Neutral += len(region)
			continue
		}

		for _, idx := range region {
			score.Ownership[idx/n][idx%n] = owner
		}
	}

	score.BlackTotal = score.BlackStones + score.BlackTerritory
	score.WhiteTotal = score.WhiteStones + score.WhiteTerritory

	return score
}

// FinalizeScore computes the draft both players are asked to accept.
func FinalizeScore(game *entity.Game) (*entity.Game, error) {
	if err := game.ConfirmScoring(); err != nil {
		return nil, err
	}

	next := game.Clone()
	next.ScoreDraft = ComputeScore(next.Board, next.Dead)
	next.Accept = entity.Acceptance{}

	return next, nil
}

// AcceptScore records color's agreement with the current draft. The game is
// finished once both colors agree.
func AcceptScore(game *entity.Game, color entity.Color) (*entity.Game, error) {
	return setAcceptance(game, color, true)
}

func UnacceptScore(game *entity.Game, color entity.Color) (*entity.Game, error) {
	return setAcceptance(game, color, false)
}

func setAcceptance(game *entity.Game, color entity.Color, accepted bool) (*entity.Game, error) {
	if err := game.ConfirmScoring(); err != nil {
		return nil, err
	}

	if game.ScoreDraft == nil {
		return nil, apperror.ErrNoScoreDraft
	}

	if color != entity.Black && color != entity.White {
		return nil, fmt.Errorf("%w: %v", apperror.ErrBadColor, color)
	}

	next := game.Clone()
	next.Accept.Set(color, accepted)

	if next.Accept.Both() {
		next.Phase = entity.PhaseFinished
	}

	return next, nil
}

// SetPhase moves between play and scoring on request. Reopening a finished
// game is only allowed when allowReopen is set.
func SetPhase(game *entity.Game, phase entity.Phase, allowReopen bool) (*entity.Game, error) {
	switch phase {
	case entity.PhasePlay:
		switch {
		case game.IsScoring():
		case game.IsFinished() && allowReopen:
		case game.IsFinished():
			return nil, apperror.ErrGameFinished
		default:
			return nil, fmt.Errorf("%w: already in play", apperror.ErrBadPhase)
		}

		next := game.Clone()
		next.Phase = entity.PhasePlay
		next.PassStreak = 0
		next.Result = nil
		next.ClearScoring()

		return next, nil
	case entity.PhaseScoring:
		if !game.IsPlaying() {
			return nil, fmt.Errorf("%w: scoring starts from play", apperror.ErrBadPhase)
		}

		next := game.Clone()
		next.Phase = entity.PhaseScoring
		next.ClearScoring()

		return next, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrBadPhase, phase)
	}
}
