package board

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FENSnapshot is a Snapshot decoded from FEN text. It is a plain value;
// parsing checks syntax only and leaves consistency to NewPositionFromSnapshot.
type FENSnapshot struct {
	Board     [64]Piece
	Side      Color
	Rights    CastlingRights
	EPSquare  Square
	HalfMoves int
	FullMoves int
}

func (s *FENSnapshot) PieceAt(sq Square) Piece  { return s.Board[sq] }
func (s *FENSnapshot) SideToMove() Color        { return s.Side }
func (s *FENSnapshot) Castling() CastlingRights { return s.Rights }
func (s *FENSnapshot) EnPassant() Square        { return s.EPSquare }
func (s *FENSnapshot) HalfMoveClock() int       { return s.HalfMoves }
func (s *FENSnapshot) FullMoveNumber() int      { return s.FullMoves }

// ParseFENSnapshot decodes a FEN string. The half-move clock and full-move
// number fields are optional.
func ParseFENSnapshot(fen string) (*FENSnapshot, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, fmt.Errorf("%w: need 4 to 6 fields, got %d", ErrInvalidFEN, len(parts))
	}

	s := &FENSnapshot{EPSquare: NoSquare, FullMoves: 1}
	for i := range s.Board {
		s.Board[i] = NoPiece
	}

	if err := parsePlacement(s, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		s.Side = White
	case "b":
		s.Side = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, parts[1])
	}

	if parts[2] != "-" {
		for _, c := range parts[2] {
			i := strings.IndexRune("KQkq", c)
			if i < 0 {
				return nil, fmt.Errorf("%w: castling character %q", ErrInvalidFEN, c)
			}
			s.Rights |= 1 << i
		}
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant field: %w", ErrInvalidFEN, err)
		}
		s.EPSquare = sq
	}

	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("%w: half-move clock %q", ErrInvalidFEN, parts[4])
		}
		s.HalfMoves = n
	}
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("%w: full-move number %q", ErrInvalidFEN, parts[5])
		}
		s.FullMoves = n
	}

	return s, nil
}

func parsePlacement(s *FENSnapshot, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("%w: piece character %q", ErrInvalidFEN, c)
			}
			s.Board[NewSquare(file, rank)] = piece
			file++
		}

		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}
	return nil
}

// String encodes the snapshot as FEN.
func (s *FENSnapshot) String() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := s.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if s.Side == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(s.Rights.String())
	sb.WriteByte(' ')
	sb.WriteString(s.EPSquare.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(s.HalfMoves))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(s.FullMoves))

	return sb.String()
}

// ParseFEN parses fen and builds a validated Position from it.
func ParseFEN(fen string) (*Position, error) {
	s, err := ParseFENSnapshot(fen)
	if err != nil {
		return nil, err
	}
	return NewPositionFromSnapshot(s)
}

// Snapshot captures the position as a FENSnapshot.
func (p *Position) Snapshot() *FENSnapshot {
	s := &FENSnapshot{
		Side:      p.SideToMove,
		Rights:    p.CastlingRights,
		EPSquare:  p.EnPassant,
		HalfMoves: p.HalfMoveClock,
		FullMoves: p.FullMoveNumber,
	}
	for sq := A1; sq <= H8; sq++ {
		s.Board[sq] = p.PieceAt(sq)
	}
	return s
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	return p.Snapshot().String()
}
