package engine

import (
	"github.com/hailam/chesssearch/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore     = 10000000 // TT move gets highest priority
	GoodCaptureBase = 1000000  // Base score for captures
	PromotionBase   = 950000   // Quiet promotions, below every capture
	KillerScore1    = 900000   // First killer move
	KillerScore2    = 800000   // Second killer move
)

// historyLimit caps history scores below the killer band.
const historyLimit = 400000

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores
// Higher score = search first
// Score = victimValue * 10 - attackerValue
var mvvLva = [6][6]int{
	//       P    N    B    R    Q    K  (attacker)
	/* P */ {15, 14, 14, 13, 12, 11}, // Pawn victim
	/* N */ {25, 24, 24, 23, 22, 21}, // Knight victim
	/* B */ {35, 34, 34, 33, 32, 31}, // Bishop victim
	/* R */ {45, 44, 44, 43, 42, 41}, // Rook victim
	/* Q */ {55, 54, 54, 53, 52, 51}, // Queen victim
	/* K */ {0, 0, 0, 0, 0, 0},       // King can't be captured
}

// MoveOrderer holds the killer and history tables. Both live for a whole
// search session and are only reset by Clear.
type MoveOrderer struct {
	// Killer moves (quiet moves that caused beta cutoffs)
	killers [MaxPly][2]board.Move

	// History heuristic, indexed by [side][from][to]
	history [2][64][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history.
func (mo *MoveOrderer) Clear() {
	*mo = MoveOrderer{}
}

// ScoreMoves writes an ordering score for each move into scores, which must
// hold at least moves.Len() elements.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move, scores []int) {
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return TTMoveScore
	}

	if m.IsCapture() {
		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceAt(m.To()).Type()
		}
		if victim >= board.King {
			return GoodCaptureBase
		}
		score := GoodCaptureBase + mvvLva[victim][m.Mover()]*1000
		if m.IsPromotion() {
			score += pieceValues[m.Promotion()]
		}
		return score
	}

	if m.IsPromotion() {
		return PromotionBase + pieceValues[m.Promotion()]
	}

	if m == mo.killers[ply][0] {
		return KillerScore1
	}
	if m == mo.killers[ply][1] {
		return KillerScore2
	}

	return mo.history[pos.SideToMove][m.From()][m.To()]
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// IsKiller reports whether m is one of the killers stored for ply.
func (mo *MoveOrderer) IsKiller(m board.Move, ply int) bool {
	return ply < MaxPly && (mo.killers[ply][0] == m || mo.killers[ply][1] == m)
}

// UpdateKillers adds a killer move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory credits a quiet move that caused a cutoff with depth².
func (mo *MoveOrderer) UpdateHistory(side board.Color, m board.Move, depth int) {
	h := &mo.history[side][m.From()][m.To()]
	*h += depth * depth
	if *h > historyLimit {
		for c := range mo.history {
			for from := range mo.history[c] {
				for to := range mo.history[c][from] {
					mo.history[c][from][to] /= 2
				}
			}
		}
	}
}

// HistoryScore returns the history score for a move by side.
func (mo *MoveOrderer) HistoryScore(side board.Color, m board.Move) int {
	return mo.history[side][m.From()][m.To()]
}

// Killers returns the two killer slots for ply.
func (mo *MoveOrderer) Killers(ply int) [2]board.Move {
	return mo.killers[ply]
}
