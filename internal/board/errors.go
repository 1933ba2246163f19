package board

import "errors"

// Snapshot and parsing failures. Callers match them with errors.Is.
var (
	ErrInvalidSquare     = errors.New("board: invalid square")
	ErrInvalidFEN        = errors.New("board: invalid FEN")
	ErrMissingKing       = errors.New("board: side has no king")
	ErrMultipleKings     = errors.New("board: side has more than one king")
	ErrOccupancyConflict = errors.New("board: contradictory occupancy")
	ErrBadPawnRank       = errors.New("board: pawn on first or last rank")
	ErrBadEnPassant      = errors.New("board: en passant square without a double push")
	ErrBadSideToMove     = errors.New("board: invalid side to move")
	ErrBadClock          = errors.New("board: negative move counter")
	ErrOpponentInCheck   = errors.New("board: side not to move is in check")
	ErrIllegalMove       = errors.New("board: illegal move")

	// ErrMalformedMove reports a packed move whose fields contradict each other.
	ErrMalformedMove = errors.New("board: malformed move")
)
