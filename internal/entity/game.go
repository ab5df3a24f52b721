package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
)

type Phase string

const (
	PhasePlay     Phase = "play"
	PhaseScoring  Phase = "scoring"
	PhaseFinished Phase = "finished"
)

const maxNameLength = 60

type Game struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Board      *Board      `json:"board"`
	ToMove     Color       `json:"to_move"`
	Phase      Phase       `json:"phase"`
	PassStreak int         `json:"pass_streak"`
	Dead       CellSet     `json:"dead"`
	ScoreDraft *Score      `json:"score_draft,omitempty"`
	Accept     Acceptance  `json:"accept"`
	Seats      Seats       `json:"seats"`
	Revision   int64       `json:"revision"`
	Seen       PositionSet `json:"seen"`
	LastMove   *Point      `json:"last_move,omitempty"`
	MoveCount  int         `json:"move_count"`
	Result     *Result     `json:"result,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Score is an area count: live stones plus surrounded empty cells.
type Score struct {
	BlackStones    int       `json:"blackStones"`
	WhiteStones    int       `json:"whiteStones"`
	BlackTerritory int       `json:"blackTerritory"`
	WhiteTerritory int       `json:"whiteTerritory"`
	Neutral        int       `json:"neutral"`
	BlackTotal     int       `json:"blackTotal"`
	WhiteTotal     int       `json:"whiteTotal"`
	Ownership      [][]Color `json:"ownership"`
}

// Acceptance records which colors agreed with the current score draft.
type Acceptance struct {
	Black bool `json:"black"`
	White bool `json:"white"`
}

func (that *Acceptance) Set(c Color, v bool) {
	switch c {
	case Black:
		that.Black = v
	case White:
		that.White = v
	}
}

func (that *Acceptance) Both() bool {
	return that.Black && that.White
}

// Result is set when a game ends by resignation.
type Result struct {
	Resigned Color `json:"resigned"`
	Winner   Color `json:"winner"`
}

func NewGame(id, name string, size int, now time.Time) (*Game, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}

	game := &Game{
		ID:        id,
		Name:      CleanName(name, "Game "+shortID(id)),
		Board:     board,
		ToMove:    Black,
		Phase:     PhasePlay,
		Dead:      CellSet{},
		Seen:      NewPositionSet(HashPosition(board, Black)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	return game, nil
}

// CleanName trims and collapses whitespace and caps the length.
func CleanName(name, fallback string) string {
	cleaned := strings.Join(strings.Fields(name), " ")
	if cleaned == "" {
		return fallback
	}

	if utf8.RuneCountInString(cleaned) > maxNameLength {
		cleaned = string([]rune(cleaned)[:maxNameLength])
	}

	return cleaned
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Clone returns a deep copy that shares nothing with the receiver.
func (that *Game) Clone() *Game {
	out := *that
	out.Board = that.Board.Clone()
	out.Dead = that.Dead.Clone()
	out.Seen = that.Seen.Clone()
	out.Seats = that.Seats.Clone()

	if that.ScoreDraft != nil {
		draft := *that.ScoreDraft
		draft.Ownership = make([][]Color, len(that.ScoreDraft.Ownership))
		for i, row := range that.ScoreDraft.Ownership {
			draft.Ownership[i] = slices.Clone(row)
		}
		out.ScoreDraft = &draft
	}

	if that.LastMove != nil {
		move := *that.LastMove
		out.LastMove = &move
	}

	if that.Result != nil {
		result := *that.Result
		out.Result = &result
	}

	return &out
}

// PositionHash is the hash of the current (board, toMove) pair.
func (that *Game) PositionHash() PositionHash {
	return HashPosition(that.Board, that.ToMove)
}

// ClearScoring drops everything that only makes sense while scoring.
func (that *Game) ClearScoring() {
	that.Dead = CellSet{}
	that.ScoreDraft = nil
	that.Accept = Acceptance{}
}

func (that *Game) IsPlaying() bool {
	return that.Phase == PhasePlay
}

func (that *Game) IsScoring() bool {
	return that.Phase == PhaseScoring
}

func (that *Game) IsFinished() bool {
	return that.Phase == PhaseFinished
}

func (that *Game) ConfirmPlaying() error {
	switch that.Phase {
	case PhasePlay:
		return nil
	case PhaseScoring:
		return apperror.ErrNotPlaying
	case PhaseFinished:
		return apperror.ErrGameFinished
	default:
		return fmt.Errorf("%w: unknown phase %q", apperror.ErrBadPhase, that.Phase)
	}
}

func (that *Game) ConfirmScoring() error {
	if that.Phase != PhaseScoring {
		return apperror.ErrNotScoring
	}
	return nil
}

// CellSet is a set of board indices.
type CellSet map[int]struct{}

func (that CellSet) Has(idx int) bool {
	_, ok := that[idx]
	return ok
}

func (that CellSet) Clone() CellSet {
	out := make(CellSet, len(that))
	for idx := range that {
		out[idx] = struct{}{}
	}

	return out
}

func (that CellSet) Sorted() []int {
	out := make([]int, 0, len(that))
	for idx := range that {
		out = append(out, idx)
	}
	slices.Sort(out)

	return out
}

func (that CellSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Sorted())
}

func (that *CellSet) UnmarshalJSON(data []byte) error {
	var cells []int
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal cell set: %w", err)
	}

	set := make(CellSet, len(cells))
	for _, idx := range cells {
		set[idx] = struct{}{}
	}
	*that = set

	return nil
}
