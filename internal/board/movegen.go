package board

// GeneratePseudoMoves appends every move that obeys the movement rules of
// each piece, without testing whether the mover's king ends up attacked.
// Castling is included only when the king does not start in, pass through
// or land on an attacked square.
func (p *Position) GeneratePseudoMoves(ml *MoveList) {
	ml.Clear()
	p.generate(ml, false)
}

// GenerateLegalMoves fills ml with the strictly legal moves.
func (p *Position) GenerateLegalMoves(ml *MoveList) {
	ml.Clear()
	p.generate(ml, false)
	p.filterLegal(ml)
}

// GenerateCaptures fills ml with the legal capturing moves, including
// capturing promotions and en passant. Quiet promotions are left out.
func (p *Position) GenerateCaptures(ml *MoveList) {
	ml.Clear()
	p.generate(ml, true)
	p.filterLegal(ml)
}

// LegalMoves returns the legal moves as a fresh slice.
func (p *Position) LegalMoves() []Move {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	return append([]Move(nil), ml.Slice()...)
}

func (p *Position) generate(ml *MoveList, capturesOnly bool) {
	us := p.SideToMove

	targets := ^p.Occupied[us]
	if capturesOnly {
		targets = p.Occupied[us.Other()]
	}

	for pt := Pawn; pt <= King; pt++ {
		switch pt {
		case Pawn:
			p.generatePawnMoves(ml, us, capturesOnly)
		case Knight, Bishop, Rook, Queen, King:
			p.generatePieceMoves(ml, us, pt, targets)
		}
	}

	if !capturesOnly {
		p.generateCastlingMoves(ml, us)
	}
}

// generatePieceMoves covers every non-pawn kind. Sliders see the current
// occupancy through Attacks, leapers ignore it.
func (p *Position) generatePieceMoves(ml *MoveList, us Color, pt PieceType, targets Bitboard) {
	enemies := p.Occupied[us.Other()]
	pieces := p.Pieces[us][pt]
	for pieces != 0 {
		from := pieces.PopLSB()
		attacks := Attacks(pt, us, from, p.AllOccupied) & targets
		for attacks != 0 {
			to := attacks.PopLSB()
			var flags Move
			if enemies.IsSet(to) {
				flags = FlagCapture
			}
			ml.Add(NewMove(from, to, pt, flags))
		}
	}
}

func (p *Position) generatePawnMoves(ml *MoveList, us Color, capturesOnly bool) {
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied
	promoRank := PromotionRank(us)

	pawns := p.Pieces[us][Pawn]
	for pawns != 0 {
		from := pawns.PopLSB()

		if !capturesOnly {
			if push := pawnPushes[us][from] & empty; push != 0 {
				to := push.LSB()
				if promoRank.IsSet(to) {
					addPromotions(ml, from, to, 0)
				} else {
					ml.Add(NewMove(from, to, Pawn, 0))
					if double := pawnDoubles[us][from] & empty; double != 0 {
						ml.Add(NewMove(from, double.LSB(), Pawn, FlagDoublePush))
					}
				}
			}
		}

		captures := pawnAttacks[us][from] & enemies
		for captures != 0 {
			to := captures.PopLSB()
			if promoRank.IsSet(to) {
				addPromotions(ml, from, to, FlagCapture)
			} else {
				ml.Add(NewMove(from, to, Pawn, FlagCapture))
			}
		}

		if p.EnPassant != NoSquare && pawnAttacks[us][from].IsSet(p.EnPassant) {
			ml.Add(NewMove(from, p.EnPassant, Pawn, FlagCapture|FlagEnPassant))
		}
	}
}

func addPromotions(ml *MoveList, from, to Square, flags Move) {
	ml.Add(NewPromotion(from, to, Queen, flags))
	ml.Add(NewPromotion(from, to, Rook, flags))
	ml.Add(NewPromotion(from, to, Bishop, flags))
	ml.Add(NewPromotion(from, to, Knight, flags))
}

// castlePath describes one castling option: the squares that must be empty
// and the squares the king occupies on its way, which must not be attacked.
type castlePath struct {
	right       CastlingRights
	kingFrom    Square
	kingTo      Square
	rookFrom    Square
	empty       Bitboard
	kingTransit [3]Square
}

var castlePaths = [2][2]castlePath{
	White: {
		{WhiteKingSideCastle, E1, G1, H1, SquareBB(F1) | SquareBB(G1), [3]Square{E1, F1, G1}},
		{WhiteQueenSideCastle, E1, C1, A1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1), [3]Square{E1, D1, C1}},
	},
	Black: {
		{BlackKingSideCastle, E8, G8, H8, SquareBB(F8) | SquareBB(G8), [3]Square{E8, F8, G8}},
		{BlackQueenSideCastle, E8, C8, A8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8), [3]Square{E8, D8, C8}},
	},
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	for _, cp := range castlePaths[us] {
		if p.CastlingRights&cp.right == 0 {
			continue
		}
		if !p.Pieces[us][King].IsSet(cp.kingFrom) || !p.Pieces[us][Rook].IsSet(cp.rookFrom) {
			continue
		}
		if p.AllOccupied&cp.empty != 0 {
			continue
		}
		safe := true
		for _, sq := range cp.kingTransit {
			if p.IsSquareAttacked(sq, them) {
				safe = false
				break
			}
		}
		if safe {
			ml.Add(NewMove(cp.kingFrom, cp.kingTo, King, FlagCastle))
		}
	}
}

// filterLegal keeps, in place, the moves after which the mover's king is
// not attacked. Each candidate is played and taken back.
func (p *Position) filterLegal(ml *MoveList) {
	us := p.SideToMove
	n := 0
	for i := 0; i < ml.count; i++ {
		m := ml.moves[i]
		undo := p.MakeMove(m)
		legal := !p.IsSquareAttacked(p.KingSquare(us), us.Other())
		p.UnmakeMove(m, undo)
		if legal {
			ml.moves[n] = m
			n++
		}
	}
	ml.count = n
}

// IsLegal reports whether m is one of the legal moves in the position.
func (p *Position) IsLegal(m Move) bool {
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	return ml.Contains(m)
}

// HasLegalMoves returns true if the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GeneratePseudoMoves(&ml)
	us := p.SideToMove
	for _, m := range ml.Slice() {
		undo := p.MakeMove(m)
		legal := !p.IsSquareAttacked(p.KingSquare(us), us.Other())
		p.UnmakeMove(m, undo)
		if legal {
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the side to move is in check with no legal move.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move is not in check and has no legal move.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}
