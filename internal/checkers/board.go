// Package checkers implements the checkers rules engine on an 8x8 board:
// diagonal move and capture legality, king promotion, and move enumeration
// including chained-capture continuations. Pure board logic, no I/O.
package checkers

import "errors"

// Size is the board edge length.
const Size = 8

// Color identifies a side. None marks an empty square.
type Color int8

const (
	None Color = iota
	Red
	Black
)

// Opponent returns the opposing color.
func (c Color) Opponent() Color {
	switch c {
	case Red:
		return Black
	case Black:
		return Red
	}
	return None
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	}
	return "none"
}

// Piece occupies one playable square. The zero value is an empty square.
type Piece struct {
	Color Color `json:"color"`
	King  bool  `json:"king"`
}

// Coord identifies one square. Row 0 is the top row.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is one candidate destination for a piece.
type Move struct {
	From      Coord `json:"from"`
	To        Coord `json:"to"`
	IsCapture bool  `json:"isCapture"`
}

// MoveResult reports the side effects of an applied move.
type MoveResult struct {
	Captured   bool
	CapturedAt Coord
	Promoted   bool
}

// ErrIllegalMove is returned by Apply for any move IsLegalMove rejects.
var ErrIllegalMove = errors.New("illegal checkers move")

// Board is an 8x8 grid. Pieces exist only on squares where (row+col) is
// odd. Black advances toward row 7, red toward row 0; promotion happens at
// the far end of travel and is permanent.
type Board struct {
	squares [Size][Size]Piece
}

// New returns a board with the standard starting position: black on rows
// 0-2, red on rows 5-7, dark squares only.
func New() *Board {
	b := &Board{}
	for row := 0; row < 3; row++ {
		for col := 0; col < Size; col++ {
			if Playable(row, col) {
				b.squares[row][col] = Piece{Color: Black}
			}
		}
	}
	for row := 5; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if Playable(row, col) {
				b.squares[row][col] = Piece{Color: Red}
			}
		}
	}
	return b
}

// Playable reports whether (row, col) is a dark, usable square.
func Playable(row, col int) bool {
	return inBounds(row, col) && (row+col)%2 == 1
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// At returns the piece at (row, col); the zero Piece for empty squares.
func (b *Board) At(row, col int) Piece {
	return b.squares[row][col]
}

// Set places a piece directly. Used to build positions in tests.
func (b *Board) Set(row, col int, p Piece) {
	b.squares[row][col] = p
}

// promotionRow is the far end of a color's direction of travel.
func promotionRow(c Color) int {
	if c == Red {
		return 0
	}
	return Size - 1
}

// forward is the row delta a non-king piece must follow.
func forward(c Color) int {
	if c == Red {
		return -1
	}
	return 1
}

// IsLegalMove reports whether mover may move the piece at from to to. The
// destination must be a playable empty square; non-kings move only toward
// their forward direction; a diagonal step of 1 is a simple move and a
// diagonal step of 2 is a capture over an opposing piece.
func (b *Board) IsLegalMove(fromRow, fromCol, toRow, toCol int, mover Color) bool {
	if !Playable(fromRow, fromCol) || !Playable(toRow, toCol) {
		return false
	}
	piece := b.squares[fromRow][fromCol]
	if piece.Color != mover {
		return false
	}
	if b.squares[toRow][toCol].Color != None {
		return false
	}
	dr := toRow - fromRow
	dc := toCol - fromCol
	if abs(dc) != abs(dr) {
		return false
	}
	if !piece.King && sign(dr) != forward(mover) {
		return false
	}
	switch abs(dr) {
	case 1:
		return true
	case 2:
		mid := b.squares[fromRow+dr/2][fromCol+dc/2]
		return mid.Color == mover.Opponent()
	}
	return false
}

// Apply relocates the piece at from to to, removing any captured piece and
// promoting at the promotion row. Returns ErrIllegalMove when IsLegalMove
// rejects the move.
func (b *Board) Apply(fromRow, fromCol, toRow, toCol int, mover Color) (MoveResult, error) {
	if !b.IsLegalMove(fromRow, fromCol, toRow, toCol, mover) {
		return MoveResult{}, ErrIllegalMove
	}
	piece := b.squares[fromRow][fromCol]
	b.squares[fromRow][fromCol] = Piece{}

	var res MoveResult
	if abs(toRow-fromRow) == 2 {
		midRow := fromRow + (toRow-fromRow)/2
		midCol := fromCol + (toCol-fromCol)/2
		b.squares[midRow][midCol] = Piece{}
		res.Captured = true
		res.CapturedAt = Coord{Row: midRow, Col: midCol}
	}
	if !piece.King && toRow == promotionRow(mover) {
		piece.King = true
		res.Promoted = true
	}
	b.squares[toRow][toCol] = piece
	return res, nil
}

// MovesForPiece enumerates the legal destinations for the piece at
// (row, col), each tagged as a capture or not.
func (b *Board) MovesForPiece(row, col int) []Move {
	piece := b.squares[row][col]
	if piece.Color == None {
		return nil
	}
	var moves []Move
	for _, dist := range []int{1, 2} {
		for _, dr := range []int{-1, 1} {
			for _, dc := range []int{-1, 1} {
				toRow := row + dr*dist
				toCol := col + dc*dist
				if b.IsLegalMove(row, col, toRow, toCol, piece.Color) {
					moves = append(moves, Move{
						From:      Coord{Row: row, Col: col},
						To:        Coord{Row: toRow, Col: toCol},
						IsCapture: dist == 2,
					})
				}
			}
		}
	}
	return moves
}

// CapturesForPiece returns only the capture moves for the piece at
// (row, col). A piece that just captured must continue from here.
func (b *Board) CapturesForPiece(row, col int) []Move {
	var captures []Move
	for _, m := range b.MovesForPiece(row, col) {
		if m.IsCapture {
			captures = append(captures, m)
		}
	}
	return captures
}

// MovesFor enumerates every legal move for all pieces of a side.
func (b *Board) MovesFor(c Color) []Move {
	var moves []Move
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if b.squares[row][col].Color == c {
				moves = append(moves, b.MovesForPiece(row, col)...)
			}
		}
	}
	return moves
}

// PieceCount returns the number of pieces a side has on the board.
func (b *Board) PieceCount(c Color) int {
	count := 0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if b.squares[row][col].Color == c {
				count++
			}
		}
	}
	return count
}

// Squares returns a copy of the grid, suitable for snapshots.
func (b *Board) Squares() [Size][Size]Piece {
	return b.squares
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
