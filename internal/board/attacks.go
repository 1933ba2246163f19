package board

// Ray directions. The first four step toward higher square indices.
const (
	dirNorth = iota
	dirNorthEast
	dirEast
	dirNorthWest
	dirSouth
	dirSouthWest
	dirWest
	dirSouthEast
	numDirections
)

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square] diagonal capture targets
	pawnPushes    [2][64]Bitboard // [Color][Square] single push target
	pawnDoubles   [2][64]Bitboard // [Color][Square] double push target, start rank only

	// rays[dir][sq] holds every square from sq to the board edge, sq excluded.
	rays [numDirections][64]Bitboard
)

var (
	rookDirections   = [4]int{dirNorth, dirEast, dirSouth, dirWest}
	bishopDirections = [4]int{dirNorthEast, dirNorthWest, dirSouthWest, dirSouthEast}
)

func init() {
	initKnightAttacks()
	initKingAttacks()
	initPawnMasks()
	initRays()
}

func initKnightAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		attacks := (bb << 17) & NotFileA
		attacks |= (bb << 15) & NotFileH
		attacks |= (bb >> 17) & NotFileH
		attacks |= (bb >> 15) & NotFileA
		attacks |= (bb << 10) & NotFileAB
		attacks |= (bb << 6) & NotFileGH
		attacks |= (bb >> 10) & NotFileGH
		attacks |= (bb >> 6) & NotFileAB

		knightAttacks[sq] = attacks
	}
}

func initKingAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)
		attacks := bb.North() | bb.South()
		attacks |= bb.East() | bb.West()
		attacks |= bb.NorthEast() | bb.NorthWest()
		attacks |= bb.SouthEast() | bb.SouthWest()
		kingAttacks[sq] = attacks
	}
}

func initPawnMasks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()

		pawnPushes[White][sq] = bb.North()
		pawnPushes[Black][sq] = bb.South()

		if bb&Rank2 != 0 {
			pawnDoubles[White][sq] = bb.North().North()
		}
		if bb&Rank7 != 0 {
			pawnDoubles[Black][sq] = bb.South().South()
		}
	}
}

func initRays() {
	steps := [numDirections][2]int{
		dirNorth:     {0, 1},
		dirNorthEast: {1, 1},
		dirEast:      {1, 0},
		dirNorthWest: {-1, 1},
		dirSouth:     {0, -1},
		dirSouthWest: {-1, -1},
		dirWest:      {-1, 0},
		dirSouthEast: {1, -1},
	}

	for sq := A1; sq <= H8; sq++ {
		for dir, step := range steps {
			var ray Bitboard
			f, r := sq.File()+step[0], sq.Rank()+step[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				ray |= SquareBB(NewSquare(f, r))
				f += step[0]
				r += step[1]
			}
			rays[dir][sq] = ray
		}
	}
}

// slide walks each ray from sq up to and including its first occupied square.
func slide(sq Square, occupied Bitboard, dirs *[4]int) Bitboard {
	var attacks Bitboard
	for _, dir := range dirs {
		ray := rays[dir][sq]
		blockers := ray & occupied
		if blockers == 0 {
			attacks |= ray
			continue
		}
		var first Square
		if dir < dirSouth {
			first = blockers.LSB()
		} else {
			first = blockers.MSB()
		}
		attacks |= ray &^ rays[dir][first]
	}
	return attacks
}

// KnightAttacks returns the knight attack set for a square.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack set for a square.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the diagonal capture targets of a pawn of color c on sq.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// PawnPushes returns the single push target of a pawn of color c on sq.
func PawnPushes(sq Square, c Color) Bitboard {
	return pawnPushes[c][sq]
}

// PawnDoublePushes returns the double push target of a pawn of color c on sq,
// empty unless sq is on that color's pawn start rank.
func PawnDoublePushes(sq Square, c Color) Bitboard {
	return pawnDoubles[c][sq]
}

// PromotionRank returns the rank a pawn of color c promotes on.
func PromotionRank(c Color) Bitboard {
	if c == White {
		return Rank8
	}
	return Rank1
}

// BishopAttacks returns the diagonal attack set from sq given the occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, &bishopDirections)
}

// RookAttacks returns the file and rank attack set from sq given the occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return slide(sq, occupied, &rookDirections)
}

// QueenAttacks returns the union of rook and bishop attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// Attacks returns the squares a piece of kind pt and color c on sq attacks.
// Own-king safety and pins are ignored.
func Attacks(pt PieceType, c Color, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return QueenAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return Empty
}

// IsSquareAttacked reports whether any piece of color by attacks sq. Kinds are
// tested in order and the scan stops at the first hit. For every kind the set of
// origins that reach sq equals that kind's attack set cast back from sq (with the
// pawn direction flipped), so one intersection covers all pieces of the kind.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	for pt := Pawn; pt <= King; pt++ {
		pieces := p.Pieces[by][pt]
		if pieces == 0 {
			continue
		}
		if Attacks(pt, by.Other(), sq, p.AllOccupied)&pieces != 0 {
			return true
		}
	}
	return false
}

// InCheck reports whether the side to move has its king attacked.
func (p *Position) InCheck() bool {
	us := p.SideToMove
	return p.IsSquareAttacked(p.KingSquare(us), us.Other())
}
