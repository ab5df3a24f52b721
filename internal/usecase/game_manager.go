package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/internal/fanout"
	"github.com/rocketscienceinc/torusgo-backend/internal/pkg"
	"github.com/rocketscienceinc/torusgo-backend/internal/repository"
	"github.com/rocketscienceinc/torusgo-backend/internal/rules"
)

const DefaultAnonymousSeatTTL = 30 * time.Minute

// newGameScope holds replayable newGame responses in the action cache. Real
// game ids are longer, so it never shares a cache with a game.
const newGameScope = "newGame"

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Update(ctx context.Context, id string, fn repository.UpdateFunc) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Game, error)
}

type actionCache interface {
	Get(ctx context.Context, gameID, actionID string) ([]byte, bool, error)
	Put(ctx context.Context, gameID, actionID string, payload []byte) error
	Drop(ctx context.Context, gameID string) error
}

type Options struct {
	DefaultSize         int
	AnonymousSeatTTL    time.Duration
	AllowReopenFinished bool
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type GameManager struct {
	logger    *slog.Logger
	gameRepo  gameRepo
	actions   actionCache
	publisher fanout.Publisher
	opts      Options
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, actions actionCache, publisher fanout.Publisher, opts Options) *GameManager {
	if opts.DefaultSize == 0 {
		opts.DefaultSize = entity.DefaultBoardSize
	}

	if opts.AnonymousSeatTTL == 0 {
		opts.AnonymousSeatTTL = DefaultAnonymousSeatTTL
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &GameManager{
		logger: logger.With("component", "game_manager"),

		gameRepo:  gameRepo,
		actions:   actions,
		publisher: publisher,
		opts:      opts,
	}
}

// Render builds the state viewerID is allowed to see.
func (that *GameManager) Render(game *entity.Game, viewerID string) *entity.PublicState {
	state := game.PublicState(viewerID, that.opts.Clock())
	return &state
}

// Apply validates and applies one client action under optimistic concurrency.
// Rejections and stale revisions come back as a Response; the returned error
// is reserved for malformed requests, unknown games and storage failures.
func (that *GameManager) Apply(ctx context.Context, req ActionRequest) (*Response, error) {
	log := that.logger.With("method", "Apply", "game_id", req.GameID, "action", req.Action.Type)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Action.Type == ActionNewGame {
		return that.applyNewGame(ctx, req)
	}

	if req.ClientActionID != "" {
		cached, ok, err := that.cachedResponse(ctx, req.GameID, req.ClientActionID)
		if err != nil {
			return nil, err
		}

		if ok {
			log.Debug("replaying cached response", "client_action_id", req.ClientActionID)
			return cached, nil
		}
	}

	var effect rules.Effect

	game, err := that.gameRepo.Update(ctx, req.GameID, func(game *entity.Game) (*entity.Game, error) {
		now := that.opts.Clock()
		game.Seats.PruneExpired(now)

		if game.Revision != req.Revision {
			return nil, apperror.ErrStaleRevision
		}

		next, eff, err := that.dispatch(game, req, now)
		if err != nil {
			return nil, err
		}
		effect = eff

		next.Revision = game.Revision + 1
		next.UpdatedAt = now

		if seat := next.Seats.Get(next.Seats.ColorOfActor(req.Actor)); seat != nil {
			seat.Touch(now, that.opts.AnonymousSeatTTL)
		}

		return next, nil
	})

	// the commit is done, so a caller hanging up must not lose its broadcast
	// or its idempotency record
	postCtx := context.WithoutCancel(ctx)

	var response *Response

	switch {
	case err == nil:
		response = &Response{
			Version:  SchemaVersion,
			Accepted: true,
			Meta:     &Meta{Captured: effect.Captured},
			State:    that.Render(game, req.Actor.ID),
		}

		that.publish(postCtx, fanout.Event{Type: fanout.EventState, GameID: game.ID, Game: game})
	case apperror.IsStale(err):
		if game == nil {
			if game, err = that.gameRepo.GetByID(ctx, req.GameID); err != nil {
				return nil, fmt.Errorf("failed to read game after conflict: %w", err)
			}
		}

		log.Debug("stale action", "revision", req.Revision, "current", game.Revision)

		// stale responses depend on timing and are never cached
		return &Response{
			Version: SchemaVersion,
			Stale:   true,
			Reason:  apperror.ErrStaleRevision.Error(),
			State:   that.Render(game, req.Actor.ID),
		}, nil
	case apperror.IsRejection(err):
		_, reason := apperror.Classify(err)
		response = &Response{
			Version: SchemaVersion,
			Reason:  reason,
			State:   that.Render(game, req.Actor.ID),
		}
	default:
		return nil, fmt.Errorf("failed to apply %s: %w", req.Action.Type, err)
	}

	if req.ClientActionID != "" {
		that.cacheResponse(postCtx, req.GameID, req.ClientActionID, response)
	}

	return response, nil
}

func (that *GameManager) dispatch(game *entity.Game, req ActionRequest, now time.Time) (*entity.Game, rules.Effect, error) {
	action := req.Action
	actor := req.Actor

	switch action.Type {
	case ActionPlay:
		if err := authorizeTurn(game, actor); err != nil {
			return nil, rules.Effect{}, err
		}

		return rules.Play(game, *action.X, *action.Y)
	case ActionPass:
		if err := authorizeTurn(game, actor); err != nil {
			return nil, rules.Effect{}, err
		}

		next, err := rules.Pass(game)
		return next, rules.Effect{}, err
	case ActionClaimSeat, ActionReleaseSeat:
		color, err := entity.ParseColor(action.Color)
		if err != nil {
			return nil, rules.Effect{}, err
		}

		var next *entity.Game
		if action.Type == ActionClaimSeat {
			next, err = claimSeat(game, actor, color, now, that.opts.AnonymousSeatTTL)
		} else {
			next, err = releaseSeat(game, actor, color)
		}

		return next, rules.Effect{}, err
	}

	color, err := seatColor(game, actor)
	if err != nil {
		return nil, rules.Effect{}, err
	}

	var next *entity.Game

	switch action.Type {
	case ActionToggleDead:
		next, err = rules.ToggleDead(game, *action.X, *action.Y)
	case ActionSetPhase:
		next, err = rules.SetPhase(game, entity.Phase(action.Phase), that.opts.AllowReopenFinished)
	case ActionFinalizeScore:
		next, err = rules.FinalizeScore(game)
	case ActionAcceptScore:
		next, err = rules.AcceptScore(game, color)
	case ActionUnacceptScore:
		next, err = rules.UnacceptScore(game, color)
	case ActionResign:
		next, err = rules.Resign(game, color)
	case ActionReset:
		size := game.Board.Size
		if action.N != nil {
			size = *action.N
		}
		next, err = rules.Reset(game, size)
	default:
		err = fmt.Errorf("%w: %q", apperror.ErrUnknownAction, action.Type)
	}

	return next, rules.Effect{}, err
}

// applyNewGame creates a game. A retried clientActionId from the same actor
// gets the first response back instead of a second game.
func (that *GameManager) applyNewGame(ctx context.Context, req ActionRequest) (*Response, error) {
	var actionID string
	if req.ClientActionID != "" {
		actionID = req.Actor.ID + "/" + req.ClientActionID

		cached, ok, err := that.cachedResponse(ctx, newGameScope, actionID)
		if err != nil {
			return nil, err
		}

		if ok {
			return cached, nil
		}
	}

	size := 0
	if req.Action.N != nil {
		size = *req.Action.N
	}

	game, err := that.CreateGame(ctx, size, req.Action.Name)
	if err != nil {
		return nil, err
	}

	response := &Response{
		Version:  SchemaVersion,
		Accepted: true,
		Meta:     &Meta{GameID: game.ID},
		State:    that.Render(game, req.Actor.ID),
	}

	if actionID != "" {
		that.cacheResponse(context.WithoutCancel(ctx), newGameScope, actionID, response)
	}

	return response, nil
}

func (that *GameManager) cachedResponse(ctx context.Context, gameID, actionID string) (*Response, bool, error) {
	payload, ok, err := that.actions.Get(ctx, gameID, actionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read action cache: %w", err)
	}

	if !ok {
		return nil, false, nil
	}

	var response Response
	if err = json.Unmarshal(payload, &response); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}

	return &response, true, nil
}

func (that *GameManager) cacheResponse(ctx context.Context, gameID, actionID string, response *Response) {
	log := that.logger.With("method", "cacheResponse", "game_id", gameID)

	payload, err := json.Marshal(response)
	if err != nil {
		log.Error("failed to marshal response", "error", err)
		return
	}

	if err = that.actions.Put(ctx, gameID, actionID, payload); err != nil {
		log.Error("failed to cache response", "error", err)
	}
}

func (that *GameManager) publish(ctx context.Context, event fanout.Event) {
	if err := that.publisher.Publish(ctx, event); err != nil {
		that.logger.Error("failed to publish event", "game_id", event.GameID, "type", event.Type, "error", err)
	}
}

// CreateGame starts a new game. A zero size picks the configured default.
func (that *GameManager) CreateGame(ctx context.Context, size int, name string) (*entity.Game, error) {
	log := that.logger.With("method", "CreateGame")

	if size == 0 {
		size = that.opts.DefaultSize
	}

	game, err := entity.NewGame(pkg.GenerateGameID(), name, size, that.opts.Clock())
	if err != nil {
		return nil, err
	}

	if err = that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info("game created", "game_id", game.ID, "size", size)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *GameManager) ListGames(ctx context.Context) ([]entity.Summary, error) {
	games, err := that.gameRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	summaries := make([]entity.Summary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, game.Summary())
	}

	return summaries, nil
}

// DeleteGame removes a game and its action cache and tells subscribers.
func (that *GameManager) DeleteGame(ctx context.Context, id string) error {
	log := that.logger.With("method", "DeleteGame", "game_id", id)

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	postCtx := context.WithoutCancel(ctx)

	if err := that.actions.Drop(postCtx, id); err != nil {
		log.Error("failed to drop action cache", "error", err)
	}

	that.publish(postCtx, fanout.Event{Type: fanout.EventDeleted, GameID: id})
	log.Info("game deleted")

	return nil
}

