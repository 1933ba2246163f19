package board

// Fingerprint keys. Generated from a fixed seed so fingerprints are stable
// across runs and builds.
var (
	zobristPiece      [2][6][64]uint64 // [Color][PieceType][Square]
	zobristEnPassant  [8]uint64        // one per file
	zobristCastling   [4]uint64        // one per rights bit, in KQkq order
	zobristSideToMove uint64           // present when Black is to move
)

func init() {
	initZobrist()
}

type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64*
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}

	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}

	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}

	zobristSideToMove = rng.next()
}

// castlingKey returns the XOR of the keys for every bit set in cr.
func castlingKey(cr CastlingRights) uint64 {
	var key uint64
	for i := range zobristCastling {
		if cr&(1<<i) != 0 {
			key ^= zobristCastling[i]
		}
	}
	return key
}

// ComputeHash returns the fingerprint of the position computed from scratch.
// MakeMove and UnmakeMove keep p.Hash equal to this value incrementally.
func (p *Position) ComputeHash() uint64 {
	var hash uint64

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				hash ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}

	hash ^= castlingKey(p.CastlingRights)

	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}

	return hash
}
