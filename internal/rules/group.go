package rules

import "github.com/rocketscienceinc/torusgo-backend/internal/entity"

// group is a connected set of same-colored stones.
type group struct {
	color     entity.Color
	stones    []int
	liberties int
}

// collectGroup flood fills the group containing start and counts its distinct
// liberties. Every stone it reaches is marked in visited so callers inspecting
// several neighbors in one move never walk the same group twice.
func collectGroup(board *entity.Board, start int, visited []bool) group {
	color := board.Cells[start]
	g := group{color: color}

	libSeen := make([]bool, len(board.Cells))
	stack := []int{start}
	visited[start] = true

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.stones = append(g.stones, idx)

		for _, nb := range board.Neighbors(idx) {
			switch board.Cells[nb] {
			case entity.Empty:
				if !libSeen[nb] {
					libSeen[nb] = true
					g.liberties++
				}
			case color:
				if !visited[nb] {
					visited[nb] = true
					stack = append(stack, nb)
				}
			}
		}
	}

	return g
}

// collectStones returns the stones connected to start by color alone.
func collectStones(board *entity.Board, start int) []int {
	color := board.Cells[start]
	visited := make([]bool, len(board.Cells))
	stack := []int{start}
	visited[start] = true

	var stones []int
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, idx)

		for _, nb := range board.Neighbors(idx) {
			if board.Cells[nb] == color && !visited[nb] {
				visited[nb] = true
				stack = append(stack, nb)
			}
		}
	}

	return stones
}
