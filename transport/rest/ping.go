package rest

import "net/http"

type healthResponse struct {
	OK    bool `json:"ok"`
	Games int  `json:"games"`
}

func (that *Server) health(w http.ResponseWriter, r *http.Request) {
	summaries, err := that.games.ListGames(r.Context())
	if err != nil {
		that.writeError(w, "health", err)
		return
	}

	that.writeJSON(w, http.StatusOK, healthResponse{OK: true, Games: len(summaries)})
}
