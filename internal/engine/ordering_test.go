package engine

import (
	"testing"

	"github.com/hailam/chesssearch/internal/board"
)

func orderedMoves(t *testing.T, mo *MoveOrderer, pos *board.Position, ply int, ttMove board.Move) []board.Move {
	t.Helper()
	ml := board.NewMoveList()
	pos.GenerateLegalMoves(ml)
	scores := make([]int, ml.Len())
	mo.ScoreMoves(pos, ml, ply, ttMove, scores)
	for i := 0; i < ml.Len(); i++ {
		PickMove(ml, scores, i)
	}
	return ml.Slice()
}

func TestCapturesOrderedByVictimThenAttacker(t *testing.T) {
	// The d-pawn can take the queen or the knight, the rook only the knight.
	pos, err := board.ParseFEN("4k3/8/8/2n1q3/3P4/8/8/2R3K1 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	moves := orderedMoves(t, NewMoveOrderer(), pos, 0, board.NoMove)

	want := []string{"d4e5", "d4c5", "c1c5"}
	for i, w := range want {
		if moves[i].String() != w {
			t.Errorf("move %d = %v, want %s (order %v)", i, moves[i], w, moves)
		}
	}
	for _, m := range moves[len(want):] {
		if m.IsCapture() {
			t.Errorf("capture %v ordered after quiet moves", m)
		}
	}
}

func TestTTMoveAndKillersFirst(t *testing.T) {
	pos := board.NewPosition()
	mo := NewMoveOrderer()

	tt, _ := board.ParseMove("g1f3", pos)
	k1, _ := board.ParseMove("b1c3", pos)
	k2, _ := board.ParseMove("a2a3", pos)
	mo.UpdateKillers(k2, 3)
	mo.UpdateKillers(k1, 3)
	mo.UpdateKillers(k1, 3) // repeated killer does not shift the slots

	if got := mo.Killers(3); got != [2]board.Move{k1, k2} {
		t.Fatalf("Killers = %v", got)
	}
	if !mo.IsKiller(k2, 3) || mo.IsKiller(k2, 4) {
		t.Errorf("IsKiller mismatch")
	}

	moves := orderedMoves(t, mo, pos, 3, tt)
	if moves[0] != tt || moves[1] != k1 || moves[2] != k2 {
		t.Errorf("order starts %v %v %v", moves[0], moves[1], moves[2])
	}

	// Killers are per ply.
	moves = orderedMoves(t, mo, pos, 2, board.NoMove)
	if moves[0] == k1 {
		t.Errorf("killer from ply 3 used at ply 2")
	}
}

func TestHistoryOrdering(t *testing.T) {
	pos := board.NewPosition()
	mo := NewMoveOrderer()

	m, _ := board.ParseMove("h2h3", pos)
	mo.UpdateHistory(board.White, m, 4)
	mo.UpdateHistory(board.White, m, 2)
	if got := mo.HistoryScore(board.White, m); got != 20 {
		t.Errorf("HistoryScore = %d, want 20", got)
	}
	if got := mo.HistoryScore(board.Black, m); got != 0 {
		t.Errorf("history leaked to the other side: %d", got)
	}
	if moves := orderedMoves(t, mo, pos, 0, board.NoMove); moves[0] != m {
		t.Errorf("first move %v, want %v", moves[0], m)
	}

	mo.Clear()
	if mo.HistoryScore(board.White, m) != 0 || mo.Killers(0) != [2]board.Move{} {
		t.Errorf("Clear left state behind")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	mo := NewMoveOrderer()
	m := board.NewMove(board.G1, board.F3, board.Knight, 0)
	for i := 0; i < 1000; i++ {
		mo.UpdateHistory(board.White, m, 30)
	}
	if got := mo.HistoryScore(board.White, m); got > historyLimit || got >= KillerScore2 {
		t.Errorf("history score %d escaped its band", got)
	}
}
