package apperror

import "errors"

// Rules rejections. Messages are the reasons shown to players.
//
//nolint:stylecheck // capitalized on purpose, sent to clients as is
var (
	ErrOccupied     = errors.New("Occupied")
	ErrSuicide      = errors.New("Suicide")
	ErrSuperko      = errors.New("Superko")
	ErrNotPlaying   = errors.New("Scoring")
	ErrNotScoring   = errors.New("Not scoring")
	ErrEmptyCell    = errors.New("Empty")
	ErrBadPhase     = errors.New("Bad phase")
	ErrNoScoreDraft = errors.New("No score draft")
	ErrGameFinished = errors.New("Game finished")
)

// Concurrency rejections. The caller has to resync before trying again.
var (
	ErrStaleRevision = errors.New("Out of date")
	ErrConflict      = errors.New("Conflict")
)

// Authorization rejections.
var (
	ErrUnclaimedSide = errors.New("Unclaimed side")
	ErrNotYourTurn   = errors.New("Not your turn")
	ErrSeatTaken     = errors.New("Seat taken")
	ErrSeatNotOwned  = errors.New("Not your seat")
	ErrNotSeated     = errors.New("Not seated")
)

// Malformed input, rejected before any state is touched.
var (
	ErrMalformed          = errors.New("malformed request")
	ErrMissingCoordinates = errors.New("missing coordinates")
	ErrUnknownAction      = errors.New("unknown action type")
	ErrBoardSize          = errors.New("board size out of range")
	ErrBadColor           = errors.New("unknown color")
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
)
