package ai

import (
	"golang.org/x/exp/rand"

	"github.com/thecdrz/connect-four/internal/checkers"
)

// ChooseCheckersMove enumerates all legal moves for color, preferring any
// capture; otherwise it picks uniformly at random. Returns false when the
// side has no legal move.
func ChooseCheckersMove(b *checkers.Board, color checkers.Color) (checkers.Move, bool) {
	moves := b.MovesFor(color)
	if len(moves) == 0 {
		return checkers.Move{}, false
	}
	var captures []checkers.Move
	for _, m := range moves {
		if m.IsCapture {
			captures = append(captures, m)
		}
	}
	if len(captures) > 0 {
		return captures[rand.Intn(len(captures))], true
	}
	return moves[rand.Intn(len(moves))], true
}
