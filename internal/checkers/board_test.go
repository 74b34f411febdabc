package checkers

import "testing"

func emptyBoard() *Board {
	return &Board{}
}

func TestNewBoardSetup(t *testing.T) {
	b := New()
	if got := b.PieceCount(Black); got != 12 {
		t.Fatalf("expected 12 black pieces, got %d", got)
	}
	if got := b.PieceCount(Red); got != 12 {
		t.Fatalf("expected 12 red pieces, got %d", got)
	}
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			p := b.At(row, col)
			if p.Color != None && !Playable(row, col) {
				t.Fatalf("piece on non-playable square (%d,%d)", row, col)
			}
			if p.King {
				t.Fatalf("unexpected king at (%d,%d)", row, col)
			}
		}
	}
}

func TestSimpleMoveLegality(t *testing.T) {
	b := New()
	// Black on row 2 moves down toward row 3.
	if !b.IsLegalMove(2, 1, 3, 0, Black) {
		t.Fatal("expected legal forward move for black")
	}
	if !b.IsLegalMove(2, 1, 3, 2, Black) {
		t.Fatal("expected legal forward move for black (other diagonal)")
	}
	// Backward move is illegal for a non-king.
	if b.IsLegalMove(2, 1, 1, 0, Black) {
		t.Fatal("backward move should be illegal for black man")
	}
	// Red moves up toward row 4.
	if !b.IsLegalMove(5, 0, 4, 1, Red) {
		t.Fatal("expected legal forward move for red")
	}
	if b.IsLegalMove(5, 0, 6, 1, Red) {
		t.Fatal("backward move should be illegal for red man")
	}
}

func TestMoveRejectsBadSquares(t *testing.T) {
	b := New()
	// Light squares are never playable.
	if b.IsLegalMove(2, 1, 3, 1, Black) {
		t.Fatal("non-diagonal move accepted")
	}
	// Occupied destination.
	if b.IsLegalMove(1, 0, 2, 1, Black) {
		t.Fatal("move onto occupied square accepted")
	}
	// Moving the opponent's piece.
	if b.IsLegalMove(2, 1, 3, 0, Red) {
		t.Fatal("red allowed to move a black piece")
	}
	// Out of bounds.
	if b.IsLegalMove(5, 0, 4, -1, Red) {
		t.Fatal("out-of-bounds move accepted")
	}
}

func TestCaptureLegality(t *testing.T) {
	b := emptyBoard()
	b.Set(3, 2, Piece{Color: Black})
	b.Set(4, 3, Piece{Color: Red})
	if !b.IsLegalMove(3, 2, 5, 4, Black) {
		t.Fatal("expected legal capture")
	}
	// No piece in between: a distance-2 move is illegal.
	if b.IsLegalMove(3, 2, 5, 0, Black) {
		t.Fatal("jump over empty square accepted")
	}
	// Own piece in between.
	b.Set(4, 1, Piece{Color: Black})
	if b.IsLegalMove(3, 2, 5, 0, Black) {
		t.Fatal("jump over own piece accepted")
	}
}

func TestApplyCaptureRemovesPiece(t *testing.T) {
	b := emptyBoard()
	b.Set(3, 2, Piece{Color: Black})
	b.Set(4, 3, Piece{Color: Red})
	res, err := b.Apply(3, 2, 5, 4, Black)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.Captured {
		t.Fatal("expected capture")
	}
	if res.CapturedAt != (Coord{Row: 4, Col: 3}) {
		t.Fatalf("unexpected capture square %+v", res.CapturedAt)
	}
	if b.At(4, 3).Color != None {
		t.Fatal("captured piece still on board")
	}
	if b.At(3, 2).Color != None {
		t.Fatal("origin square still occupied")
	}
	if b.At(5, 4).Color != Black {
		t.Fatal("piece not relocated")
	}
}

func TestApplyIllegalMove(t *testing.T) {
	b := New()
	if _, err := b.Apply(2, 1, 1, 0, Black); err != ErrIllegalMove {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
}

func TestPromotion(t *testing.T) {
	b := emptyBoard()
	b.Set(6, 1, Piece{Color: Black})
	res, err := b.Apply(6, 1, 7, 0, Black)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.Promoted {
		t.Fatal("expected promotion at row 7 for black")
	}
	if !b.At(7, 0).King {
		t.Fatal("piece not a king after promotion")
	}

	b = emptyBoard()
	b.Set(1, 2, Piece{Color: Red})
	res, err = b.Apply(1, 2, 0, 1, Red)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.Promoted {
		t.Fatal("expected promotion at row 0 for red")
	}
}

func TestPromotionIsPermanentAndNotRepeated(t *testing.T) {
	b := emptyBoard()
	b.Set(1, 2, Piece{Color: Red, King: true})
	res, err := b.Apply(1, 2, 0, 1, Red)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Promoted {
		t.Fatal("king re-promoted")
	}
	if !b.At(0, 1).King {
		t.Fatal("king lost its crown")
	}
}

func TestKingMovesBackward(t *testing.T) {
	b := emptyBoard()
	b.Set(4, 3, Piece{Color: Black, King: true})
	if !b.IsLegalMove(4, 3, 3, 2, Black) {
		t.Fatal("king backward move rejected")
	}
	if !b.IsLegalMove(4, 3, 5, 4, Black) {
		t.Fatal("king forward move rejected")
	}
}

func TestMovesForPiece(t *testing.T) {
	b := emptyBoard()
	b.Set(3, 2, Piece{Color: Black})
	b.Set(4, 3, Piece{Color: Red})

	moves := b.MovesForPiece(3, 2)
	var captures, simples int
	for _, m := range moves {
		if m.From != (Coord{Row: 3, Col: 2}) {
			t.Fatalf("unexpected from square %+v", m.From)
		}
		if m.IsCapture {
			captures++
			if m.To != (Coord{Row: 5, Col: 4}) {
				t.Fatalf("unexpected capture destination %+v", m.To)
			}
		} else {
			simples++
		}
	}
	if captures != 1 {
		t.Fatalf("expected 1 capture, got %d", captures)
	}
	if simples != 1 { // (4,1); (4,3) is occupied
		t.Fatalf("expected 1 simple move, got %d", simples)
	}
}

func TestChainedCaptureContinuation(t *testing.T) {
	b := emptyBoard()
	b.Set(1, 0, Piece{Color: Black})
	b.Set(2, 1, Piece{Color: Red})
	b.Set(4, 3, Piece{Color: Red})

	res, err := b.Apply(1, 0, 3, 2, Black)
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if !res.Captured {
		t.Fatal("expected first capture")
	}

	continuations := b.CapturesForPiece(3, 2)
	if len(continuations) != 1 {
		t.Fatalf("expected 1 capture continuation, got %d", len(continuations))
	}
	if continuations[0].To != (Coord{Row: 5, Col: 4}) {
		t.Fatalf("unexpected continuation %+v", continuations[0].To)
	}

	if _, err := b.Apply(3, 2, 5, 4, Black); err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if len(b.CapturesForPiece(5, 4)) != 0 {
		t.Fatal("expected no further captures")
	}
	if b.PieceCount(Red) != 0 {
		t.Fatalf("expected both red pieces captured, got %d", b.PieceCount(Red))
	}
}

func TestMovesForSide(t *testing.T) {
	b := New()
	moves := b.MovesFor(Black)
	// Standard opening: the four row-2 men have seven forward moves between
	// them (the edge man has one).
	if len(moves) != 7 {
		t.Fatalf("expected 7 opening moves for black, got %d", len(moves))
	}
	for _, m := range moves {
		if m.IsCapture {
			t.Fatalf("unexpected opening capture %+v", m)
		}
	}
}

func TestMovesForBlockedSide(t *testing.T) {
	b := emptyBoard()
	// A red man on the edge, fully blocked by black men it cannot jump.
	b.Set(7, 0, Piece{Color: Red})
	b.Set(6, 1, Piece{Color: Black})
	b.Set(5, 2, Piece{Color: Black})
	if moves := b.MovesFor(Red); len(moves) != 0 {
		t.Fatalf("expected no moves for blocked red, got %v", moves)
	}
}
