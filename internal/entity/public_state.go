package entity

import "time"

// SeatOccupancy tells viewers which colors are taken without revealing by whom.
type SeatOccupancy struct {
	Black bool `json:"black"`
	White bool `json:"white"`
}

// Viewer describes the requesting viewer's own seat.
type Viewer struct {
	Color string `json:"color"`
}

// PublicState is the per-viewer rendering of a game sent to clients.
type PublicState struct {
	GameID     string        `json:"gameId"`
	Name       string        `json:"name"`
	N          int           `json:"N"`
	Board      [][]Color     `json:"board"`
	ToMove     string        `json:"toMove"`
	Phase      Phase         `json:"phase"`
	PassStreak int           `json:"passStreak"`
	DeadSet    [][2]int      `json:"deadSet"`
	ScoreDraft *Score        `json:"scoreDraft"`
	Accept     Acceptance    `json:"accept"`
	Revision   int64         `json:"revision"`
	LastMove   *Point        `json:"lastMove"`
	MoveCount  int           `json:"moveCount"`
	Result     *PublicResult `json:"result,omitempty"`
	PosHash    string        `json:"posHash"`
	Seats      SeatOccupancy `json:"seats"`
	You        *Viewer       `json:"you,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type PublicResult struct {
	Resigned string `json:"resigned"`
	Winner   string `json:"winner"`
}

// PublicState renders the game for viewerID. Seats past their expiry at now
// are shown as free even if the stored record still holds them.
func (that *Game) PublicState(viewerID string, now time.Time) PublicState {
	seats := that.Seats.Clone()
	seats.PruneExpired(now)

	dead := make([][2]int, 0, len(that.Dead))
	for _, idx := range that.Dead.Sorted() {
		p := that.Board.Point(idx)
		dead = append(dead, [2]int{p.X, p.Y})
	}

	state := PublicState{
		GameID:     that.ID,
		Name:       that.Name,
		N:          that.Board.Size,
		Board:      that.Board.Rows(),
		ToMove:     that.ToMove.String(),
		Phase:      that.Phase,
		PassStreak: that.PassStreak,
		DeadSet:    dead,
		ScoreDraft: that.ScoreDraft,
		Accept:     that.Accept,
		Revision:   that.Revision,
		LastMove:   that.LastMove,
		MoveCount:  that.MoveCount,
		PosHash:    that.PositionHash().String(),
		Seats: SeatOccupancy{
			Black: seats.Black != nil,
			White: seats.White != nil,
		},
		CreatedAt: that.CreatedAt,
		UpdatedAt: that.UpdatedAt,
	}

	if that.Result != nil {
		state.Result = &PublicResult{
			Resigned: that.Result.Resigned.String(),
			Winner:   that.Result.Winner.String(),
		}
	}

	if c := seats.ColorOf(viewerID); c != Empty {
		state.You = &Viewer{Color: c.String()}
	}

	return state
}

// Summary is the listing entry for a game.
type Summary struct {
	GameID    string    `json:"gameId"`
	Name      string    `json:"name"`
	N         int       `json:"N"`
	Revision  int64     `json:"revision"`
	Phase     Phase     `json:"phase"`
	MoveCount int       `json:"moveCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (that *Game) Summary() Summary {
	return Summary{
		GameID:    that.ID,
		Name:      that.Name,
		N:         that.Board.Size,
		Revision:  that.Revision,
		Phase:     that.Phase,
		MoveCount: that.MoveCount,
		CreatedAt: that.CreatedAt,
		UpdatedAt: that.UpdatedAt,
	}
}
