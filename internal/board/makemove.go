package board

import "fmt"

// UndoInfo holds what MakeMove cannot recompute when taking the move back.
type UndoInfo struct {
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int

	Captured       PieceType // NoPieceType when nothing was taken
	CapturedSquare Square    // differs from the destination for en passant

	RookFrom Square // NoSquare unless the move castled
	RookTo   Square
}

// castlingMask[sq] is ANDed into the rights whenever a move leaves or lands
// on sq, so moving a king or rook from its origin, or capturing a rook there,
// drops the matching rights for good.
var castlingMask [64]CastlingRights

func init() {
	for sq := range castlingMask {
		castlingMask[sq] = AllCastling
	}
	castlingMask[A1] &^= WhiteQueenSideCastle
	castlingMask[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	castlingMask[H1] &^= WhiteKingSideCastle
	castlingMask[A8] &^= BlackQueenSideCastle
	castlingMask[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	castlingMask[H8] &^= BlackKingSideCastle
}

// castleRookSquares maps a castling king's destination to the rook's origin
// and destination.
func castleRookSquares(kingTo Square) ([2]Square, bool) {
	switch kingTo {
	case G1:
		return [2]Square{H1, F1}, true
	case C1:
		return [2]Square{A1, D1}, true
	case G8:
		return [2]Square{H8, F8}, true
	case C8:
		return [2]Square{A8, D8}, true
	}
	return [2]Square{NoSquare, NoSquare}, false
}

// toggle flips one piece in both its bitboard and the fingerprint. Applying
// the same toggle twice is a no-op, which is what UnmakeMove relies on.
func (p *Position) toggle(c Color, pt PieceType, sq Square) {
	p.Pieces[c][pt] ^= SquareBB(sq)
	p.Hash ^= zobristPiece[c][pt][sq]
}

func (p *Position) pieceTypeAt(c Color, sq Square) PieceType {
	bb := SquareBB(sq)
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return pt
		}
	}
	return NoPieceType
}

// MakeMove plays m and returns what UnmakeMove needs to take it back.
// The move is not checked for legality, but a malformed move, or one that
// does not fit the position (no mover on the origin, no victim for a
// capture, an occupied destination for a quiet move), panics before the
// position is touched.
func (p *Position) MakeMove(m Move) UndoInfo {
	m.MustValidate()

	us := p.SideToMove
	them := us.Other()
	from, to, mover := m.From(), m.To(), m.Mover()

	if mover >= NoPieceType || !p.Pieces[us][mover].IsSet(from) {
		panic(fmt.Sprintf("board: MakeMove %v: no %v %v on %v", m, us, mover, from))
	}

	undo := UndoInfo{
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Captured:       NoPieceType,
		CapturedSquare: NoSquare,
		RookFrom:       NoSquare,
		RookTo:         NoSquare,
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	if m.IsCapture() {
		capSq := to
		if m.IsEnPassant() {
			if us == White {
				capSq = to - 8
			} else {
				capSq = to + 8
			}
		}
		victim := p.pieceTypeAt(them, capSq)
		if victim == NoPieceType {
			panic(fmt.Sprintf("board: MakeMove %v: nothing to capture on %v", m, capSq))
		}
		p.toggle(them, victim, capSq)
		undo.Captured = victim
		undo.CapturedSquare = capSq
	} else if !p.IsEmpty(to) {
		panic(fmt.Sprintf("board: MakeMove %v: destination occupied", m))
	}

	p.toggle(us, mover, from)
	if m.IsPromotion() {
		p.toggle(us, m.Promotion(), to)
	} else {
		p.toggle(us, mover, to)
	}

	if m.IsCastling() {
		rook, ok := castleRookSquares(to)
		if !ok || !p.Pieces[us][Rook].IsSet(rook[0]) {
			panic(fmt.Sprintf("board: MakeMove %v: no rook to castle with", m))
		}
		p.toggle(us, Rook, rook[0])
		p.toggle(us, Rook, rook[1])
		undo.RookFrom, undo.RookTo = rook[0], rook[1]
	}

	rights := p.CastlingRights & castlingMask[from] & castlingMask[to]
	p.Hash ^= castlingKey(p.CastlingRights ^ rights)
	p.CastlingRights = rights

	if m.IsDoublePush() {
		p.EnPassant = Square((int(from) + int(to)) / 2)
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	if mover == Pawn || m.IsCapture() {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.Hash ^= zobristSideToMove

	p.updateOccupied()
	return undo
}

// UnmakeMove takes back m, which must be the last move made on p.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	us := p.SideToMove.Other()
	them := p.SideToMove
	from, to, mover := m.From(), m.To(), m.Mover()

	p.SideToMove = us
	p.Hash ^= zobristSideToMove
	if us == Black {
		p.FullMoveNumber--
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = undo.EnPassant
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	p.Hash ^= castlingKey(p.CastlingRights ^ undo.CastlingRights)
	p.CastlingRights = undo.CastlingRights
	p.HalfMoveClock = undo.HalfMoveClock

	if undo.RookFrom != NoSquare {
		p.toggle(us, Rook, undo.RookTo)
		p.toggle(us, Rook, undo.RookFrom)
	}

	if m.IsPromotion() {
		p.toggle(us, m.Promotion(), to)
	} else {
		p.toggle(us, mover, to)
	}
	p.toggle(us, mover, from)

	if undo.Captured != NoPieceType {
		p.toggle(them, undo.Captured, undo.CapturedSquare)
	}

	p.updateOccupied()
}

// NullUndo restores the state a null move changes.
type NullUndo struct {
	EnPassant     Square
	HalfMoveClock int
}

// MakeNullMove passes the turn: the side flips, en passant is cleared and
// the half-move clock advances.
func (p *Position) MakeNullMove() NullUndo {
	undo := NullUndo{EnPassant: p.EnPassant, HalfMoveClock: p.HalfMoveClock}

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.HalfMoveClock++
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove

	return undo
}

// UnmakeNullMove reverts MakeNullMove.
func (p *Position) UnmakeNullMove(undo NullUndo) {
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.HalfMoveClock = undo.HalfMoveClock
	p.EnPassant = undo.EnPassant
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
}
