package usecase

import (
	"time"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

// authorizeTurn checks that actor holds the seat of the color to move.
func authorizeTurn(game *entity.Game, actor entity.Actor) error {
	seat := game.Seats.Get(game.ToMove)
	if seat == nil {
		return apperror.ErrUnclaimedSide
	}

	if !seat.HeldBy(actor) {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// seatColor returns the color actor sits at.
func seatColor(game *entity.Game, actor entity.Actor) (entity.Color, error) {
	color := game.Seats.ColorOfActor(actor)
	if color == entity.Empty {
		return entity.Empty, apperror.ErrNotSeated
	}

	return color, nil
}

// claimSeat binds color to actor. Claiming a seat the actor already holds
// only refreshes it, and no actor may hold both colors.
func claimSeat(game *entity.Game, actor entity.Actor, color entity.Color, now time.Time, ttl time.Duration) (*entity.Game, error) {
	seat := game.Seats.Get(color)
	if seat != nil && !seat.HeldBy(actor) {
		return nil, apperror.ErrSeatTaken
	}

	next := game.Clone()
	if other := next.Seats.Get(color.Other()); other.HeldBy(actor) {
		next.Seats.Set(color.Other(), nil)
	}
	next.Seats.Set(color, entity.NewSeat(actor, now, ttl))

	return next, nil
}

func releaseSeat(game *entity.Game, actor entity.Actor, color entity.Color) (*entity.Game, error) {
	seat := game.Seats.Get(color)
	if !seat.HeldBy(actor) {
		return nil, apperror.ErrSeatNotOwned
	}

	next := game.Clone()
	next.Seats.Set(color, nil)

	return next, nil
}
