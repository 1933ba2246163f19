// Package diagram renders positions as board diagrams: SVG through svgo and
// PNG by rasterizing that SVG.
package diagram

import (
	"errors"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/hailam/chesssearch/internal/board"
)

// DefaultSquareSize is the square size in SVG user units.
const DefaultSquareSize = 45

// ErrBadSize is returned for an image too small to hold a board.
var ErrBadSize = errors.New("diagram: image size too small")

// Board colors
const (
	lightSquare     = "#f0d9b5"
	darkSquare      = "#b58863"
	lightHighlight  = "#cdd26a"
	darkHighlight   = "#aaa23a"
	whitePieceFill  = "#fafafa"
	blackPieceFill  = "#262421"
	pieceOutline    = "#333333"
	coordinateColor = "#5c4a32"
)

// Options controls how a diagram is drawn.
type Options struct {
	SquareSize  int        // user units per square, 0 means DefaultSquareSize
	Flip        bool       // draw the board from Black's side
	Highlight   board.Move // its origin and destination squares are tinted
	Coordinates bool       // file and rank labels along the edges
}

func (o Options) squareSize() int {
	if o.SquareSize <= 0 {
		return DefaultSquareSize
	}
	return o.SquareSize
}

// origin returns the top-left corner of sq in user units.
func (o Options) origin(sq board.Square) (x, y int) {
	col, row := sq.File(), 7-sq.Rank()
	if o.Flip {
		col, row = 7-col, 7-row
	}
	s := o.squareSize()
	return col * s, row * s
}

func (o Options) highlighted(sq board.Square) bool {
	if o.Highlight == board.NoMove {
		return false
	}
	return sq == o.Highlight.From() || sq == o.Highlight.To()
}

func pieceRadius(sq int) int {
	return sq * 2 / 5
}

// WriteSVG writes an SVG diagram of pos to w.
func WriteSVG(w io.Writer, pos *board.Position, opts Options) error {
	ew := &errWriter{w: w}
	s := opts.squareSize()
	size := 8 * s

	canvas := svg.New(ew)
	canvas.Startview(size, size, 0, 0, size, size)

	canvas.Gid("squares")
	for sq := board.A1; sq <= board.H8; sq++ {
		x, y := opts.origin(sq)
		canvas.Rect(x, y, s, s, "fill:"+squareColor(sq, opts.highlighted(sq)))
	}
	canvas.Gend()

	canvas.Gid("pieces")
	for sq := board.A1; sq <= board.H8; sq++ {
		p := pos.PieceAt(sq)
		if p == board.NoPiece {
			continue
		}
		x, y := opts.origin(sq)
		cx, cy := x+s/2, y+s/2
		fill, ink := whitePieceFill, blackPieceFill
		if p.Color() == board.Black {
			fill, ink = blackPieceFill, whitePieceFill
		}
		canvas.Circle(cx, cy, pieceRadius(s), fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", fill, pieceOutline))
		fontSize := s / 2
		canvas.Text(cx, cy+fontSize*7/20, string(p.Type().Letter()),
			fmt.Sprintf("fill:%s;font-family:sans-serif;font-weight:bold;font-size:%dpx;text-anchor:middle", ink, fontSize))
	}
	canvas.Gend()

	if opts.Coordinates {
		canvas.Gid("coordinates")
		style := fmt.Sprintf("fill:%s;font-family:sans-serif;font-size:%dpx", coordinateColor, s/5)
		for i := 0; i < 8; i++ {
			file, rank := fileLabel(i, opts.Flip), rankLabel(i, opts.Flip)
			canvas.Text(i*s+s-s/5, size-s/12, file, style)
			canvas.Text(s/12, i*s+s/4, rank, style)
		}
		canvas.Gend()
	}

	canvas.End()
	return ew.err
}

func squareColor(sq board.Square, highlighted bool) string {
	light := (sq.File()+sq.Rank())%2 == 1
	switch {
	case light && highlighted:
		return lightHighlight
	case light:
		return lightSquare
	case highlighted:
		return darkHighlight
	default:
		return darkSquare
	}
}

// fileLabel names the file drawn in column col.
func fileLabel(col int, flip bool) string {
	if flip {
		col = 7 - col
	}
	return string(rune('a' + col))
}

// rankLabel names the rank drawn in row row, counted from the top.
func rankLabel(row int, flip bool) string {
	if flip {
		return string(rune('1' + row))
	}
	return string(rune('8' - row))
}

// errWriter keeps the first write error; svgo itself discards them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
