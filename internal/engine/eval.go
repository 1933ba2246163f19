// Package engine implements the search: iterative deepening alpha-beta with
// aspiration windows, principal variation search, null-move pruning, late
// move reductions and a capture-only quiescence search over a transposition
// cache.
package engine

import (
	"github.com/hailam/chesssearch/internal/board"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// Piece values array for quick lookup
var pieceValues = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// Evaluator scores a position in centipawns from the side to move's point
// of view. Implementations must not modify the position.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(pos *board.Position) int

func (f EvaluatorFunc) Evaluate(pos *board.Position) int {
	return f(pos)
}

// MaterialEvaluator counts material only.
type MaterialEvaluator struct{}

// Evaluate returns the material balance for the side to move.
func (MaterialEvaluator) Evaluate(pos *board.Position) int {
	return EvaluateMaterial(pos)
}

// EvaluateMaterial returns the material balance from the side to move's
// perspective.
func EvaluateMaterial(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * pieceValues[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * pieceValues[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}
