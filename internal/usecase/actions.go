package usecase

import (
	"fmt"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
)

// SchemaVersion is the wire schema version of requests and responses.
const SchemaVersion = 1

type ActionType string

const (
	ActionPlay          ActionType = "play"
	ActionPass          ActionType = "pass"
	ActionToggleDead    ActionType = "toggleDead"
	ActionClaimSeat     ActionType = "claimSeat"
	ActionReleaseSeat   ActionType = "releaseSeat"
	ActionSetPhase      ActionType = "setPhase"
	ActionFinalizeScore ActionType = "finalizeScore"
	ActionAcceptScore   ActionType = "acceptScore"
	ActionUnacceptScore ActionType = "unacceptScore"
	ActionResign        ActionType = "resign"
	ActionNewGame       ActionType = "newGame"
	ActionReset         ActionType = "reset"
)

// Action is the type specific part of a request. Fields a type does not use
// must be left out.
type Action struct {
	Type  ActionType `json:"type"`
	X     *int       `json:"x,omitempty"`
	Y     *int       `json:"y,omitempty"`
	Color string     `json:"color,omitempty"`
	Phase string     `json:"phase,omitempty"`
	N     *int       `json:"N,omitempty"`
	Name  string     `json:"name,omitempty"`
}

// actionFields marks the optional Action fields a type reads.
type actionFields struct {
	coords bool
	color  bool
	phase  bool
	size   bool
	name   bool
}

var fieldsByType = map[ActionType]actionFields{
	ActionPlay:          {coords: true},
	ActionToggleDead:    {coords: true},
	ActionClaimSeat:     {color: true},
	ActionReleaseSeat:   {color: true},
	ActionSetPhase:      {phase: true},
	ActionNewGame:       {size: true, name: true},
	ActionReset:         {size: true},
	ActionPass:          {},
	ActionFinalizeScore: {},
	ActionAcceptScore:   {},
	ActionUnacceptScore: {},
	ActionResign:        {},
}

// checkFields refuses fields the action type does not read.
func (that *Action) checkFields() error {
	allowed, ok := fieldsByType[that.Type]
	if !ok {
		return fmt.Errorf("%w: %q", apperror.ErrUnknownAction, that.Type)
	}

	var unused string
	switch {
	case !allowed.coords && (that.X != nil || that.Y != nil):
		unused = "x/y"
	case !allowed.color && that.Color != "":
		unused = "color"
	case !allowed.phase && that.Phase != "":
		unused = "phase"
	case !allowed.size && that.N != nil:
		unused = "N"
	case !allowed.name && that.Name != "":
		unused = "name"
	default:
		return nil
	}

	return fmt.Errorf("%w: %s does not take %s", apperror.ErrMalformed, that.Type, unused)
}

type ActionRequest struct {
	Version        int          `json:"version"`
	GameID         string       `json:"gameId"`
	Revision       int64        `json:"revision"`
	ClientActionID string       `json:"clientActionId,omitempty"`
	Action         Action       `json:"action"`
	Actor          entity.Actor `json:"-"`
}

// Meta describes what an accepted action did.
type Meta struct {
	Captured int    `json:"captured"`
	GameID   string `json:"gameId,omitempty"`
}

// Response is either an acceptance carrying the new state or a rejection
// carrying the current one. Stale marks rejections the caller has to resync
// after instead of retrying.
type Response struct {
	Version  int                 `json:"version"`
	Accepted bool                `json:"accepted"`
	Stale    bool                `json:"stale,omitempty"`
	Reason   string              `json:"reason,omitempty"`
	Meta     *Meta               `json:"meta,omitempty"`
	State    *entity.PublicState `json:"state,omitempty"`
}

// Validate rejects malformed requests before any state is read.
func (that *ActionRequest) Validate() error {
	if that.Version != 0 && that.Version != SchemaVersion {
		return fmt.Errorf("%w: unsupported version %d", apperror.ErrMalformed, that.Version)
	}

	if that.Actor.ID == "" {
		return fmt.Errorf("%w: missing actor", apperror.ErrMalformed)
	}

	action := that.Action
	if err := action.checkFields(); err != nil {
		return err
	}

	if action.Type != ActionNewGame && that.GameID == "" {
		return fmt.Errorf("%w: missing game id", apperror.ErrMalformed)
	}

	if that.Revision < 0 {
		return fmt.Errorf("%w: negative revision", apperror.ErrMalformed)
	}

	switch action.Type {
	case ActionPlay, ActionToggleDead:
		if action.X == nil || action.Y == nil {
			return apperror.ErrMissingCoordinates
		}
	case ActionClaimSeat, ActionReleaseSeat:
		if _, err := entity.ParseColor(action.Color); err != nil {
			return err
		}
	case ActionSetPhase:
		if action.Phase != string(entity.PhasePlay) && action.Phase != string(entity.PhaseScoring) {
			return fmt.Errorf("%w: phase %q", apperror.ErrMalformed, action.Phase)
		}
	case ActionNewGame, ActionReset:
		if action.N != nil && (*action.N < entity.MinBoardSize || *action.N > entity.MaxBoardSize) {
			return fmt.Errorf("%w: %d", apperror.ErrBoardSize, *action.N)
		}
	case ActionPass, ActionFinalizeScore, ActionAcceptScore, ActionUnacceptScore, ActionResign:
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownAction, action.Type)
	}

	return nil
}
