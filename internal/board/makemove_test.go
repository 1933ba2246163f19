package board

import (
	"strings"
	"testing"
)

var walkFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
}

// walk visits every node up to depth, checking that the incremental
// fingerprint matches a fresh computation and that each unmake restores the
// exact prior state.
func walk(t *testing.T, pos *Position, depth int, line []string) {
	t.Helper()

	if pos.Hash != pos.ComputeHash() {
		t.Fatalf("after %s: incremental hash %016x, recomputed %016x",
			strings.Join(line, " "), pos.Hash, pos.ComputeHash())
	}
	if pos.Occupied[White]&pos.Occupied[Black] != 0 ||
		pos.Occupied[White]|pos.Occupied[Black] != pos.AllOccupied {
		t.Fatalf("after %s: inconsistent occupancy", strings.Join(line, " "))
	}
	if depth == 0 {
		return
	}

	for _, m := range pos.LegalMoves() {
		before := *pos
		undo := pos.MakeMove(m)
		if pos.IsSquareAttacked(pos.KingSquare(before.SideToMove), pos.SideToMove) {
			t.Fatalf("after %s %v: mover left its king attacked", strings.Join(line, " "), m)
		}
		walk(t, pos, depth-1, append(line, m.String()))
		pos.UnmakeMove(m, undo)
		if *pos != before {
			t.Fatalf("unmake %v after %s did not restore the position:\nwant %v\ngot %v",
				m, strings.Join(line, " "), &before, pos)
		}
	}
}

func TestMakeUnmakeRoundTrip(t *testing.T) {
	for _, fen := range walkFENs {
		t.Run(fen, func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			walk(t, pos, 3, nil)
		})
	}
}

func TestMakeMoveCastlingRights(t *testing.T) {
	const fen = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	tests := []struct {
		moves []string
		want  CastlingRights
	}{
		{[]string{"e1g1"}, BlackKingSideCastle | BlackQueenSideCastle},
		{[]string{"a1a2"}, WhiteKingSideCastle | BlackKingSideCastle | BlackQueenSideCastle},
		{[]string{"h1h8"}, WhiteQueenSideCastle | BlackQueenSideCastle},
		{[]string{"a1a8"}, WhiteKingSideCastle | BlackKingSideCastle},
		// Moving the rook back does not restore the right.
		{[]string{"h1h2", "e8d8", "h2h1"}, WhiteQueenSideCastle},
		{[]string{"e1e2", "e8f8", "e2e1"}, NoCastling},
	}

	for _, tc := range tests {
		t.Run(strings.Join(tc.moves, " "), func(t *testing.T) {
			pos, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			for _, s := range tc.moves {
				m, err := ParseMove(s, pos)
				if err != nil {
					t.Fatalf("ParseMove(%s): %v", s, err)
				}
				pos.MakeMove(m)
			}
			if pos.CastlingRights != tc.want {
				t.Errorf("rights = %v, want %v", pos.CastlingRights, tc.want)
			}
			if pos.Hash != pos.ComputeHash() {
				t.Errorf("hash drifted")
			}
		})
	}
}

func TestMakeMoveEnPassant(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	m, err := ParseMove("e5f6", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !m.IsEnPassant() || !m.IsCapture() {
		t.Fatalf("e5f6 = %#x, want an en passant capture", uint32(m))
	}

	undo := pos.MakeMove(m)
	if undo.Captured != Pawn || undo.CapturedSquare != F5 {
		t.Errorf("undo records %v on %v, want Pawn on f5", undo.Captured, undo.CapturedSquare)
	}
	if pos.PieceAt(F5) != NoPiece || pos.PieceAt(F6) != WhitePawn {
		t.Errorf("board after en passant:%v", pos)
	}
	if pos.EnPassant != NoSquare || pos.HalfMoveClock != 0 {
		t.Errorf("ep = %v, clock = %d", pos.EnPassant, pos.HalfMoveClock)
	}
}

func TestMakeMoveDoublePushSetsEnPassant(t *testing.T) {
	pos := NewPosition()
	m, err := ParseMove("e2e4", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !m.IsDoublePush() {
		t.Fatalf("e2e4 not flagged as a double push")
	}
	pos.MakeMove(m)
	if pos.EnPassant != E3 {
		t.Errorf("ep = %v, want e3", pos.EnPassant)
	}

	m, _ = ParseMove("g8f6", pos)
	pos.MakeMove(m)
	if pos.EnPassant != NoSquare {
		t.Errorf("ep = %v after a knight move, want none", pos.EnPassant)
	}
	if pos.HalfMoveClock != 1 || pos.FullMoveNumber != 2 {
		t.Errorf("clock = %d, move = %d", pos.HalfMoveClock, pos.FullMoveNumber)
	}
}

func TestNullMove(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	before := *pos

	undo := pos.MakeNullMove()
	if pos.SideToMove != Black || pos.EnPassant != NoSquare || pos.HalfMoveClock != 1 {
		t.Errorf("after null move: side %v, ep %v, clock %d", pos.SideToMove, pos.EnPassant, pos.HalfMoveClock)
	}
	if pos.Hash != pos.ComputeHash() {
		t.Errorf("null move hash %016x, recomputed %016x", pos.Hash, pos.ComputeHash())
	}

	pos.UnmakeNullMove(undo)
	if *pos != before {
		t.Errorf("UnmakeNullMove did not restore the position")
	}
}

func TestMakeMoveRejectsMismatchedMove(t *testing.T) {
	tests := []struct {
		name string
		move Move
	}{
		{"empty origin", NewMove(E4, E5, Pawn, 0)},
		{"wrong mover kind", NewMove(G1, F3, Bishop, 0)},
		{"capture of nothing", NewMove(E2, E3, Pawn, FlagCapture)},
		{"quiet onto a piece", NewMove(D1, D2, Queen, 0)},
		{"double push of one rank", NewMove(E2, E3, Pawn, FlagDoublePush)},
		{"double push by a knight", NewMove(G1, F3, Knight, FlagDoublePush)},
		{"promotion field on a knight", NewMove(G1, F3, Knight, 0) | Move(Queen)<<promoShift},
		{"castle flag on a pawn", NewMove(E2, E4, Pawn, FlagCastle)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := NewPosition()
			defer func() {
				if recover() == nil {
					t.Errorf("MakeMove(%v) did not panic", tc.move)
				}
				if *pos != *NewPosition() {
					t.Errorf("MakeMove(%v) changed the position before panicking:\n%v", tc.move, pos)
				}
			}()
			pos.MakeMove(tc.move)
		})
	}
}
