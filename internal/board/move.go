package board

import "fmt"

// Move packs a move into 32 bits:
//
//	bits 0-5    from square
//	bits 6-11   to square
//	bits 12-14  promotion kind (0 = none, else Knight..Queen)
//	bit  15     capture
//	bit  16     en passant
//	bit  17     castle
//	bit  18     double pawn push
//	bits 19-21  mover kind
type Move uint32

const (
	FlagCapture    Move = 1 << 15
	FlagEnPassant  Move = 1 << 16
	FlagCastle     Move = 1 << 17
	FlagDoublePush Move = 1 << 18

	flagMask   = FlagCapture | FlagEnPassant | FlagCastle | FlagDoublePush
	promoShift = 12
	moverShift = 19
)

// NoMove is the zero move. It never equals a generated move because a
// generated move always has from != to.
const NoMove Move = 0

// NewMove packs a non-promoting move.
func NewMove(from, to Square, mover PieceType, flags Move) Move {
	return Move(from) | Move(to)<<6 | flags&flagMask | Move(mover)<<moverShift
}

// NewPromotion packs a pawn move promoting to promo.
func NewPromotion(from, to Square, promo PieceType, flags Move) Move {
	return NewMove(from, to, Pawn, flags) | Move(promo)<<promoShift
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Mover returns the kind of the moving piece.
func (m Move) Mover() PieceType {
	return PieceType((m >> moverShift) & 7)
}

// Promotion returns the promoted kind, or NoPieceType for a non-promotion.
func (m Move) Promotion() PieceType {
	p := PieceType((m >> promoShift) & 7)
	if p == 0 {
		return NoPieceType
	}
	return p
}

// IsPromotion reports whether a promotion kind is set.
func (m Move) IsPromotion() bool {
	return (m>>promoShift)&7 != 0
}

func (m Move) IsCapture() bool {
	return m&FlagCapture != 0
}

func (m Move) IsEnPassant() bool {
	return m&FlagEnPassant != 0
}

func (m Move) IsCastling() bool {
	return m&FlagCastle != 0
}

func (m Move) IsDoublePush() bool {
	return m&FlagDoublePush != 0
}

// IsQuiet reports whether the move neither captures nor promotes.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// Validate checks that the packed fields describe a possible move.
// It does not consult any position.
func (m Move) Validate() error {
	from, to, mover := m.From(), m.To(), m.Mover()

	switch {
	case from == to:
		return fmt.Errorf("%w: %#x origin equals destination", ErrMalformedMove, uint32(m))
	case mover >= NoPieceType:
		return fmt.Errorf("%w: %#x unknown mover kind %d", ErrMalformedMove, uint32(m), mover)
	case m>>22 != 0:
		return fmt.Errorf("%w: %#x reserved bits set", ErrMalformedMove, uint32(m))
	}

	if m.IsPromotion() {
		promo := m.Promotion()
		if promo < Knight || promo > Queen {
			return fmt.Errorf("%w: %#x bad promotion kind %d", ErrMalformedMove, uint32(m), promo)
		}
		if mover != Pawn || m&(FlagEnPassant|FlagCastle|FlagDoublePush) != 0 {
			return fmt.Errorf("%w: %#x promotion with incompatible flags", ErrMalformedMove, uint32(m))
		}
		if to.Rank() != 0 && to.Rank() != 7 {
			return fmt.Errorf("%w: %#x promotion off the last rank", ErrMalformedMove, uint32(m))
		}
	}

	if m.IsEnPassant() {
		if mover != Pawn || !m.IsCapture() || m&(FlagCastle|FlagDoublePush) != 0 {
			return fmt.Errorf("%w: %#x en passant with incompatible flags", ErrMalformedMove, uint32(m))
		}
	}

	if m.IsCastling() {
		if mover != King || m&(FlagCapture|FlagDoublePush) != 0 {
			return fmt.Errorf("%w: %#x castle with incompatible flags", ErrMalformedMove, uint32(m))
		}
		if _, ok := castleRookSquares(to); !ok || (from != E1 && from != E8) || from.Rank() != to.Rank() {
			return fmt.Errorf("%w: %#x castle between %s and %s", ErrMalformedMove, uint32(m), from, to)
		}
	}

	if m.IsDoublePush() {
		d := int(to) - int(from)
		if mover != Pawn || m.IsCapture() || (d != 16 && d != -16) {
			return fmt.Errorf("%w: %#x bad double push", ErrMalformedMove, uint32(m))
		}
	}

	return nil
}

// MustValidate panics if the move is malformed.
func (m Move) MustValidate() Move {
	if err := m.Validate(); err != nil {
		panic(err)
	}
	return m
}

// String returns coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("pnbrqk"[m.Promotion()])
	}
	return s
}

// ParseMove resolves coordinate notation against the legal moves of pos.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n', 'N':
			promo = Knight
		case 'b', 'B':
			promo = Bishop
		case 'r', 'R':
			promo = Rook
		case 'q', 'Q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("%w: %q bad promotion piece", ErrIllegalMove, s)
		}
	}

	var ml MoveList
	pos.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}

// MaxMoves bounds the number of moves in any position.
const MaxMoves = 256

// MoveList is a fixed-capacity move buffer reused across generation calls.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
