package board

import "fmt"

// Snapshot is a read-only view of a position supplied from outside the
// package, e.g. a parsed FEN or a game front-end's own board.
type Snapshot interface {
	PieceAt(sq Square) Piece
	SideToMove() Color
	Castling() CastlingRights
	EnPassant() Square
	HalfMoveClock() int
}

// OccupancySnapshot is implemented by snapshots that carry their own cached
// occupancy. The cache is never trusted, only compared with the pieces.
type OccupancySnapshot interface {
	Snapshot
	Occupancy() (white, black Bitboard)
}

// FullMoveSnapshot is implemented by snapshots that know the move number.
type FullMoveSnapshot interface {
	FullMoveNumber() int
}

// NewPositionFromSnapshot builds the search state from s. Castling rights
// whose king or rook is no longer on its origin square are dropped. Any
// other inconsistency is reported as an error wrapping one of the package's
// sentinel errors.
func NewPositionFromSnapshot(s Snapshot) (*Position, error) {
	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}

	for sq := A1; sq <= H8; sq++ {
		piece := s.PieceAt(sq)
		if piece == NoPiece {
			continue
		}
		if piece > NoPiece {
			return nil, fmt.Errorf("%w: unknown piece %d on %v", ErrOccupancyConflict, piece, sq)
		}
		pos.Pieces[piece.Color()][piece.Type()] |= SquareBB(sq)
	}
	pos.updateOccupied()

	if occ, ok := s.(OccupancySnapshot); ok {
		white, black := occ.Occupancy()
		if white != pos.Occupied[White] || black != pos.Occupied[Black] {
			return nil, fmt.Errorf("%w: occupancy %016x/%016x, pieces %016x/%016x",
				ErrOccupancyConflict, uint64(white), uint64(black),
				uint64(pos.Occupied[White]), uint64(pos.Occupied[Black]))
		}
	}

	for c := White; c <= Black; c++ {
		switch n := pos.Pieces[c][King].PopCount(); {
		case n == 0:
			return nil, fmt.Errorf("%w: %v", ErrMissingKing, c)
		case n > 1:
			return nil, fmt.Errorf("%w: %v has %d", ErrMultipleKings, c, n)
		}
	}

	if (pos.Pieces[White][Pawn]|pos.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return nil, ErrBadPawnRank
	}

	switch side := s.SideToMove(); side {
	case White, Black:
		pos.SideToMove = side
	default:
		return nil, fmt.Errorf("%w: %d", ErrBadSideToMove, side)
	}

	pos.CastlingRights = sanitizeCastling(pos, s.Castling()&AllCastling)

	if ep := s.EnPassant(); ep != NoSquare {
		if err := checkEnPassant(pos, ep); err != nil {
			return nil, err
		}
		pos.EnPassant = ep
	}

	pos.HalfMoveClock = s.HalfMoveClock()
	if pos.HalfMoveClock < 0 {
		return nil, fmt.Errorf("%w: half-move clock %d", ErrBadClock, pos.HalfMoveClock)
	}
	if fs, ok := s.(FullMoveSnapshot); ok {
		pos.FullMoveNumber = fs.FullMoveNumber()
		if pos.FullMoveNumber < 1 {
			return nil, fmt.Errorf("%w: full-move number %d", ErrBadClock, pos.FullMoveNumber)
		}
	}

	them := pos.SideToMove.Other()
	if pos.IsSquareAttacked(pos.KingSquare(them), pos.SideToMove) {
		return nil, fmt.Errorf("%w: %v", ErrOpponentInCheck, them)
	}

	pos.Hash = pos.ComputeHash()
	return pos, nil
}

func sanitizeCastling(pos *Position, cr CastlingRights) CastlingRights {
	for c := White; c <= Black; c++ {
		for _, cp := range castlePaths[c] {
			if !pos.Pieces[c][King].IsSet(cp.kingFrom) || !pos.Pieces[c][Rook].IsSet(cp.rookFrom) {
				cr &^= cp.right
			}
		}
	}
	return cr
}

// checkEnPassant verifies that ep is the square just passed over by an enemy
// double push: it lies on the third rank from the pusher's side, it and the
// pawn's origin are empty, and the pushed pawn stands in front of it.
func checkEnPassant(pos *Position, ep Square) error {
	if !ep.IsValid() {
		return fmt.Errorf("%w: %v", ErrBadEnPassant, ep)
	}
	pusher := pos.SideToMove.Other()
	if ep.RelativeRank(pusher) != 2 {
		return fmt.Errorf("%w: %v on wrong rank", ErrBadEnPassant, ep)
	}

	origin, pawn := ep-8, ep+8
	if pusher == Black {
		origin, pawn = ep+8, ep-8
	}
	if !pos.IsEmpty(ep) || !pos.IsEmpty(origin) || !pos.Pieces[pusher][Pawn].IsSet(pawn) {
		return fmt.Errorf("%w: %v", ErrBadEnPassant, ep)
	}
	return nil
}
