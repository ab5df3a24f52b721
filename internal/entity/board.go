package entity

import (
	"fmt"

	"github.com/rocketscienceinc/torusgo-backend/internal/apperror"
)

const (
	MinBoardSize     = 3
	MaxBoardSize     = 49
	DefaultBoardSize = 19
)

type Color int8

const (
	Empty Color = iota
	Black
	White
)

// Other returns the opposing color. Empty has no opponent.
func (c Color) Other() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// ParseColor accepts the wire names "black" and "white".
func ParseColor(s string) (Color, error) {
	switch s {
	case "black":
		return Black, nil
	case "white":
		return White, nil
	default:
		return Empty, fmt.Errorf("%w: %q", apperror.ErrBadColor, s)
	}
}

// Point is a base cell coordinate in [0, N).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Tile is the copy of the base board an absolute coordinate falls in.
type Tile struct {
	X int `json:"tx"`
	Y int `json:"ty"`
}

// Wrap maps any integer onto [0, n).
func Wrap(i, n int) int {
	return ((i % n) + n) % n
}

// FloorDiv is integer division rounding toward negative infinity.
func FloorDiv(a, n int) int {
	q := a / n
	if (a%n != 0) && ((a < 0) != (n < 0)) {
		q--
	}
	return q
}

// AbsToBase splits an absolute coordinate on the infinite plane into the
// base cell the rules operate on and the tile it was clicked on.
func AbsToBase(ax, ay, n int) (Point, Tile) {
	return Point{X: Wrap(ax, n), Y: Wrap(ay, n)}, Tile{X: FloorDiv(ax, n), Y: FloorDiv(ay, n)}
}

// Board is an N×N toroidal grid stored row-major, index = y*N + x.
type Board struct {
	Size  int     `json:"size"`
	Cells []Color `json:"cells"`
}

func NewBoard(size int) (*Board, error) {
	if size < MinBoardSize || size > MaxBoardSize {
		return nil, fmt.Errorf("%w: %d", apperror.ErrBoardSize, size)
	}

	return &Board{
		Size:  size,
		Cells: make([]Color, size*size),
	}, nil
}

func (that *Board) Clone() *Board {
	cells := make([]Color, len(that.Cells))
	copy(cells, that.Cells)

	return &Board{Size: that.Size, Cells: cells}
}

// Index wraps an absolute coordinate onto the base board. The tile is
// dropped: every copy of a cell is the same cell.
func (that *Board) Index(x, y int) int {
	p, _ := AbsToBase(x, y, that.Size)
	return p.Y*that.Size + p.X
}

func (that *Board) Point(idx int) Point {
	return Point{X: idx % that.Size, Y: idx / that.Size}
}

func (that *Board) At(x, y int) Color {
	return that.Cells[that.Index(x, y)]
}

func (that *Board) Set(x, y int, c Color) {
	that.Cells[that.Index(x, y)] = c
}

// Neighbors returns the four orthogonal neighbors of idx. There are no edges.
func (that *Board) Neighbors(idx int) [4]int {
	n := that.Size
	x, y := idx%n, idx/n

	return [4]int{
		y*n + Wrap(x+1, n),
		y*n + Wrap(x-1, n),
		Wrap(y+1, n)*n + x,
		Wrap(y-1, n)*n + x,
	}
}

// Rows renders the board as [y][x] for clients.
func (that *Board) Rows() [][]Color {
	rows := make([][]Color, that.Size)
	for y := range rows {
		rows[y] = make([]Color, that.Size)
		copy(rows[y], that.Cells[y*that.Size:(y+1)*that.Size])
	}

	return rows
}

