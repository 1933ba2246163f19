package board

import (
	"fmt"
	"strings"
)

// ToSAN renders m in Standard Algebraic Notation for the position it is
// played from, with file/rank disambiguation and a check or mate suffix.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	var sb strings.Builder
	from, to, pt := m.From(), m.To(), m.Mover()

	switch {
	case m.IsCastling() && to > from:
		sb.WriteString("O-O")
	case m.IsCastling():
		sb.WriteString("O-O-O")
	default:
		if pt != Pawn {
			sb.WriteByte(pt.Letter())
			sb.WriteString(disambiguation(pos, m))
		}
		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(to.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(m.Promotion().Letter())
		}
	}

	undo := pos.MakeMove(m)
	switch {
	case pos.IsCheckmate():
		sb.WriteByte('#')
	case pos.InCheck():
		sb.WriteByte('+')
	}
	pos.UnmakeMove(m, undo)

	return sb.String()
}

// disambiguation returns the origin file, rank or both, whichever is the
// shortest that tells m apart from same-kind moves to the same square.
func disambiguation(pos *Position, m Move) string {
	from := m.From()
	var others []Square
	for _, o := range pos.LegalMoves() {
		if o.To() == m.To() && o.Mover() == m.Mover() && o.From() != from {
			others = append(others, o.From())
		}
	}
	if len(others) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range others {
		sameFile = sameFile || sq.File() == from.File()
		sameRank = sameRank || sq.Rank() == from.Rank()
	}
	switch {
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

// ParseSAN resolves a SAN string against the legal moves of pos.
func ParseSAN(s string, pos *Position) (Move, error) {
	orig := s
	s = strings.TrimRight(strings.TrimSpace(s), "+#!?")

	legal := pos.LegalMoves()

	switch s {
	case "O-O", "0-0", "O-O-O", "0-0-0":
		long := len(s) == 5
		for _, m := range legal {
			if m.IsCastling() && (m.To() < m.From()) == long {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}

	promo := NoPieceType
	if i := strings.IndexByte(s, '='); i >= 0 && i+1 < len(s) {
		promo = kindFromLetter(s[i+1])
		s = s[:i]
	}

	capture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		pt = kindFromLetter(s[0])
		s = s[1:]
	}

	if len(s) < 2 || pt == NoPieceType {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, err
	}

	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			file = int(c - 'a')
		case c >= '1' && c <= '8':
			rank = int(c - '1')
		}
	}

	for _, m := range legal {
		if m.To() != dest || m.Mover() != pt || m.IsCastling() {
			continue
		}
		if file >= 0 && m.From().File() != file {
			continue
		}
		if rank >= 0 && m.From().Rank() != rank {
			continue
		}
		if capture && !m.IsCapture() {
			continue
		}
		if m.Promotion() != promo {
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
}

func kindFromLetter(c byte) PieceType {
	switch c {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoPieceType
}

// MovesToSAN converts a line of moves played from pos. pos is left unchanged.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Copy()

	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.MakeMove(m)
	}

	return result
}
