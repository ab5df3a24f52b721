package rest

import (
	"net/http"

	"github.com/rocketscienceinc/torusgo-backend/internal/entity"
	"github.com/rocketscienceinc/torusgo-backend/internal/usecase"
)

type newGameRequest struct {
	Version int    `json:"version"`
	N       *int   `json:"N,omitempty"`
	Name    string `json:"name,omitempty"`
}

type newGameResponse struct {
	Version int                 `json:"version"`
	GameID  string              `json:"gameId"`
	State   *entity.PublicState `json:"state"`
}

type gameResponse struct {
	Version int                 `json:"version"`
	State   *entity.PublicState `json:"state"`
}

type gamesResponse struct {
	Version int              `json:"version"`
	Games   []entity.Summary `json:"games"`
}

type deletedResponse struct {
	Version int    `json:"version"`
	Deleted string `json:"deleted"`
}

func (that *Server) listGames(w http.ResponseWriter, r *http.Request) {
	summaries, err := that.games.ListGames(r.Context())
	if err != nil {
		that.writeError(w, "listGames", err)
		return
	}

	that.writeJSON(w, http.StatusOK, gamesResponse{Version: usecase.SchemaVersion, Games: summaries})
}

func (that *Server) newGame(w http.ResponseWriter, r *http.Request) {
	actor, err := that.auth.Identify(w, r)
	if err != nil {
		that.writeError(w, "newGame", err)
		return
	}

	var req newGameRequest
	if err = decodeStrict(w, r, &req); err != nil {
		that.writeError(w, "newGame", err)
		return
	}

	if err = checkVersion(req.Version); err != nil {
		that.writeError(w, "newGame", err)
		return
	}

	size := 0
	if req.N != nil {
		size = *req.N
	}

	game, err := that.games.CreateGame(r.Context(), size, req.Name)
	if err != nil {
		that.writeError(w, "newGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, newGameResponse{
		Version: usecase.SchemaVersion,
		GameID:  game.ID,
		State:   that.games.Render(game, actor.ID),
	})
}

func (that *Server) getGame(w http.ResponseWriter, r *http.Request) {
	actor, err := that.auth.Identify(w, r)
	if err != nil {
		that.writeError(w, "getGame", err)
		return
	}

	game, err := that.games.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, "getGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, gameResponse{
		Version: usecase.SchemaVersion,
		State:   that.games.Render(game, actor.ID),
	})
}

func (that *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := that.games.DeleteGame(r.Context(), id); err != nil {
		that.writeError(w, "deleteGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, deletedResponse{Version: usecase.SchemaVersion, Deleted: id})
}

// move accepts every action kind. Rejections are still 200 with
// accepted=false; only a stale revision maps to 409.
func (that *Server) move(w http.ResponseWriter, r *http.Request) {
	actor, err := that.auth.Identify(w, r)
	if err != nil {
		that.writeError(w, "move", err)
		return
	}

	var req usecase.ActionRequest
	if err = decodeStrict(w, r, &req); err != nil {
		that.writeError(w, "move", err)
		return
	}
	req.Actor = actor

	response, err := that.games.Apply(r.Context(), req)
	if err != nil {
		that.writeError(w, "move", err)
		return
	}

	status := http.StatusOK
	if response.Stale {
		status = http.StatusConflict
	}

	that.writeJSON(w, status, response)
}
