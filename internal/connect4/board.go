// Package connect4 implements the Connect Four rules engine: drop
// validity, win detection, and draw detection on a 6x7 board. It holds
// no I/O and no turn logic; callers are responsible for turn order.
package connect4

import "errors"

// Board dimensions.
const (
	Rows = 6
	Cols = 7
)

// Cell holds the owner of one board position.
type Cell int8

const (
	Empty Cell = iota
	Player1
	Player2
)

// ErrColumnFull is returned by Drop when the target column has no empty row.
var ErrColumnFull = errors.New("column is full")

// Coord identifies one board cell. Row 0 is the top row.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a 6x7 grid. The zero value is an empty board. Occupied cells in
// a column are always contiguous from the bottom row upward; Drop is the
// only mutation that places a piece.
type Board struct {
	cells [Rows][Cols]Cell
}

// New returns an empty board.
func New() *Board {
	return &Board{}
}

// At returns the cell at (row, col).
func (b *Board) At(row, col int) Cell {
	return b.cells[row][col]
}

// Cells returns a copy of the grid, suitable for snapshots.
func (b *Board) Cells() [Rows][Cols]Cell {
	return b.cells
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// Reset clears the board.
func (b *Board) Reset() {
	b.cells = [Rows][Cols]Cell{}
}

// LowestEmptyRow scans a column bottom-up and returns the first empty row.
// ok is false when the column is full.
func (b *Board) LowestEmptyRow(col int) (row int, ok bool) {
	for row = Rows - 1; row >= 0; row-- {
		if b.cells[row][col] == Empty {
			return row, true
		}
	}
	return 0, false
}

// Drop places the player's piece in the lowest empty row of col and
// returns that row. Returns ErrColumnFull when the column is full.
func (b *Board) Drop(col int, player Cell) (int, error) {
	if col < 0 || col >= Cols {
		return 0, ErrColumnFull
	}
	row, ok := b.LowestEmptyRow(col)
	if !ok {
		return 0, ErrColumnFull
	}
	b.cells[row][col] = player
	return row, nil
}

// Axis priority for win scans: horizontal, vertical, diagonal-down,
// diagonal-up. WinningCells depends on this order.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// CheckWin reports whether the piece just played at (row, col) completes a
// run of four or more for player along any axis.
func (b *Board) CheckWin(row, col int, player Cell) bool {
	for _, d := range directions {
		if b.countRun(row, col, player, d[0], d[1]) >= 4 {
			return true
		}
	}
	return false
}

func (b *Board) countRun(row, col int, player Cell, dr, dc int) int {
	count := 1
	for r, c := row+dr, col+dc; r >= 0 && r < Rows && c >= 0 && c < Cols && b.cells[r][c] == player; r, c = r+dr, c+dc {
		count++
	}
	for r, c := row-dr, col-dc; r >= 0 && r < Rows && c >= 0 && c < Cols && b.cells[r][c] == player; r, c = r-dr, c-dc {
		count++
	}
	return count
}

// WinningCells returns the contiguous run (length >= 4) through (row, col)
// along the first axis, in priority order, that completes a win. The origin
// cell is first, followed by the positive-direction cells then the
// negative-direction cells. Returns nil when no axis wins; callers invoke
// it only after CheckWin reports true.
func (b *Board) WinningCells(row, col int, player Cell) []Coord {
	for _, d := range directions {
		cells := []Coord{{Row: row, Col: col}}
		dr, dc := d[0], d[1]
		for r, c := row+dr, col+dc; r >= 0 && r < Rows && c >= 0 && c < Cols && b.cells[r][c] == player; r, c = r+dr, c+dc {
			cells = append(cells, Coord{Row: r, Col: c})
		}
		for r, c := row-dr, col-dc; r >= 0 && r < Rows && c >= 0 && c < Cols && b.cells[r][c] == player; r, c = r-dr, c-dc {
			cells = append(cells, Coord{Row: r, Col: c})
		}
		if len(cells) >= 4 {
			return cells
		}
	}
	return nil
}

// IsFull reports whether the board has no empty cells. Checking the top
// row is sufficient given the gravity invariant.
func (b *Board) IsFull() bool {
	for col := 0; col < Cols; col++ {
		if b.cells[0][col] == Empty {
			return false
		}
	}
	return true
}
