// Package ai provides the CPU opponent: Connect Four move selection at
// three difficulties (random, heuristic, minimax with alpha-beta pruning)
// and a prefer-capture checkers bot. Strategies are synchronous and use
// the rules engines as simulation oracles; any thinking delay is the
// caller's concern.
package ai

import (
	"golang.org/x/exp/rand"

	"github.com/thecdrz/connect-four/internal/connect4"
)

// Difficulty selects a Connect Four strategy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// SearchDepth is the fixed minimax search depth in plies.
const SearchDepth = 6

// ChooseColumn picks a column for player on b at the given difficulty.
// Returns false when the board is full.
func ChooseColumn(b *connect4.Board, player connect4.Cell, d Difficulty) (int, bool) {
	switch d {
	case Hard:
		return minimaxColumn(b, player)
	case Medium:
		return heuristicColumn(b, player)
	default:
		return randomColumn(b)
	}
}

func openColumns(b *connect4.Board) []int {
	var cols []int
	for col := 0; col < connect4.Cols; col++ {
		if _, ok := b.LowestEmptyRow(col); ok {
			cols = append(cols, col)
		}
	}
	return cols
}

func randomColumn(b *connect4.Board) (int, bool) {
	cols := openColumns(b)
	if len(cols) == 0 {
		return 0, false
	}
	return cols[rand.Intn(len(cols))], true
}

// winsImmediately reports whether dropping in col wins for player.
func winsImmediately(b *connect4.Board, col int, player connect4.Cell) bool {
	sim := b.Clone()
	row, err := sim.Drop(col, player)
	if err != nil {
		return false
	}
	return sim.CheckWin(row, col, player)
}

// heuristicColumn: take an immediate win, block an immediate opponent win,
// prefer a center column, otherwise play at random.
func heuristicColumn(b *connect4.Board, player connect4.Cell) (int, bool) {
	cols := openColumns(b)
	if len(cols) == 0 {
		return 0, false
	}
	opponent := opponentOf(player)
	for _, col := range cols {
		if winsImmediately(b, col, player) {
			return col, true
		}
	}
	for _, col := range cols {
		if winsImmediately(b, col, opponent) {
			return col, true
		}
	}
	var center []int
	for _, col := range cols {
		if col >= 2 && col <= 4 {
			center = append(center, col)
		}
	}
	if len(center) > 0 {
		return center[rand.Intn(len(center))], true
	}
	return cols[rand.Intn(len(cols))], true
}

func opponentOf(player connect4.Cell) connect4.Cell {
	if player == connect4.Player1 {
		return connect4.Player2
	}
	return connect4.Player1
}

func minimaxColumn(b *connect4.Board, player connect4.Cell) (int, bool) {
	cols := openColumns(b)
	if len(cols) == 0 {
		return 0, false
	}
	bestCol := cols[0]
	bestScore := -1 << 30
	alpha, beta := -1<<30, 1<<30
	for _, col := range cols {
		sim := b.Clone()
		row, _ := sim.Drop(col, player)
		var score int
		if sim.CheckWin(row, col, player) {
			score = 1000 + SearchDepth
		} else {
			score = minimax(sim, player, SearchDepth-1, alpha, beta, false)
		}
		if score > bestScore {
			bestScore = score
			bestCol = col
		}
		if score > alpha {
			alpha = score
		}
	}
	return bestCol, true
}

// minimax scores the position for player, depth plies remaining. Wins are
// scored 1000 plus remaining depth so faster wins (and slower losses) are
// preferred; non-terminal leaves fall back to the positional heuristic.
func minimax(b *connect4.Board, player connect4.Cell, depth, alpha, beta int, maximizing bool) int {
	if depth == 0 || b.IsFull() {
		return evaluate(b, player)
	}
	opponent := opponentOf(player)
	if maximizing {
		best := -1 << 30
		for col := 0; col < connect4.Cols; col++ {
			sim := b.Clone()
			row, err := sim.Drop(col, player)
			if err != nil {
				continue
			}
			var score int
			if sim.CheckWin(row, col, player) {
				score = 1000 + depth
			} else {
				score = minimax(sim, player, depth-1, alpha, beta, false)
			}
			if score > best {
				best = score
			}
			if best > alpha {
				alpha = best
			}
			if beta <= alpha {
				break
			}
		}
		return best
	}
	best := 1 << 30
	for col := 0; col < connect4.Cols; col++ {
		sim := b.Clone()
		row, err := sim.Drop(col, opponent)
		if err != nil {
			continue
		}
		var score int
		if sim.CheckWin(row, col, opponent) {
			score = -1000 - depth
		} else {
			score = minimax(sim, player, depth-1, alpha, beta, true)
		}
		if score < best {
			best = score
		}
		if best < beta {
			beta = best
		}
		if beta <= alpha {
			break
		}
	}
	return best
}

// evaluate scores every horizontal, vertical, and diagonal four-cell
// window, plus a flat bonus per piece in the center column. Blocking an
// opponent three is weighted heavier than extending an own three.
func evaluate(b *connect4.Board, player connect4.Cell) int {
	opponent := opponentOf(player)
	score := 0

	for row := 0; row < connect4.Rows; row++ {
		for col := 0; col < connect4.Cols; col++ {
			if col+3 < connect4.Cols {
				score += scoreWindow(b, player, opponent, row, col, 0, 1)
			}
			if row+3 < connect4.Rows {
				score += scoreWindow(b, player, opponent, row, col, 1, 0)
			}
			if row+3 < connect4.Rows && col+3 < connect4.Cols {
				score += scoreWindow(b, player, opponent, row, col, 1, 1)
			}
			if row+3 < connect4.Rows && col-3 >= 0 {
				score += scoreWindow(b, player, opponent, row, col, 1, -1)
			}
		}
	}

	center := connect4.Cols / 2
	for row := 0; row < connect4.Rows; row++ {
		switch b.At(row, center) {
		case player:
			score += 3
		case opponent:
			score -= 3
		}
	}
	return score
}

func scoreWindow(b *connect4.Board, player, opponent connect4.Cell, row, col, dr, dc int) int {
	var mine, theirs, empty int
	for i := 0; i < 4; i++ {
		switch b.At(row+i*dr, col+i*dc) {
		case player:
			mine++
		case opponent:
			theirs++
		default:
			empty++
		}
	}
	switch {
	case mine == 4:
		return 100
	case mine == 3 && empty == 1:
		return 10
	case mine == 2 && empty == 2:
		return 2
	case theirs == 4:
		return -100
	case theirs == 3 && empty == 1:
		return -80
	case theirs == 2 && empty == 2:
		return -2
	}
	return 0
}
