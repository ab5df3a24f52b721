package apperror

import "errors"

type Kind string

const (
	KindNone          Kind = ""
	KindRules         Kind = "rules"
	KindConcurrency   Kind = "concurrency"
	KindAuthorization Kind = "authorization"
	KindMalformed     Kind = "malformed"
	KindNotFound      Kind = "not_found"
)

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindRules, []error{
		ErrOccupied, ErrSuicide, ErrSuperko, ErrNotPlaying, ErrNotScoring,
		ErrEmptyCell, ErrBadPhase, ErrNoScoreDraft, ErrGameFinished,
	}},
	{KindConcurrency, []error{ErrStaleRevision, ErrConflict}},
	{KindAuthorization, []error{ErrUnclaimedSide, ErrNotYourTurn, ErrSeatTaken, ErrSeatNotOwned, ErrNotSeated}},
	{KindMalformed, []error{ErrMissingCoordinates, ErrUnknownAction, ErrBoardSize, ErrBadColor, ErrMalformed}},
	{KindNotFound, []error{ErrGameNotFound}},
}

// Classify finds the first known sentinel in err's chain and returns its kind
// together with the sentinel message, which doubles as the wire reason.
func Classify(err error) (Kind, string) {
	if err == nil {
		return KindNone, ""
	}

	for _, group := range kinds {
		for _, sentinel := range group.errs {
			if errors.Is(err, sentinel) {
				return group.kind, sentinel.Error()
			}
		}
	}

	return KindNone, err.Error()
}

// IsRejection reports whether err is a deterministic rejection that is safe
// to store in the idempotency cache and show to the player verbatim.
func IsRejection(err error) bool {
	kind, _ := Classify(err)
	return kind == KindRules || kind == KindAuthorization
}

// IsStale reports whether the caller must resync before retrying.
func IsStale(err error) bool {
	kind, _ := Classify(err)
	return kind == KindConcurrency
}
