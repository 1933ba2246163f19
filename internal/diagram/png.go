package diagram

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/hailam/chesssearch/internal/board"
)

var (
	whiteInk = color.RGBA{0x26, 0x24, 0x21, 0xff}
	blackInk = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
)

// WritePNG writes a size×size PNG diagram of pos to w.
func WritePNG(w io.Writer, pos *board.Position, size int, opts Options) error {
	img, err := Render(pos, size, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Render rasterizes the SVG diagram of pos into a size×size image and
// letters the pieces.
func Render(pos *board.Position, size int, opts Options) (*image.RGBA, error) {
	if size < 8 {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, pos, opts); err != nil {
		return nil, err
	}

	// Text elements are not rasterized; the letters are drawn below.
	icon, err := oksvg.ReadIconStream(&buf, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("diagram: parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	letterPieces(rgba, pos, size, opts)
	return rgba, nil
}

func letterPieces(dst *image.RGBA, pos *board.Position, size int, opts Options) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	d := &font.Drawer{Dst: dst, Face: face}

	// Work in pixels: the SVG units are scaled to size.
	px := opts
	px.SquareSize = size / 8

	for sq := board.A1; sq <= board.H8; sq++ {
		p := pos.PieceAt(sq)
		if p == board.NoPiece {
			continue
		}
		ink := whiteInk
		if p.Color() == board.Black {
			ink = blackInk
		}
		x, y := px.origin(sq)
		cx, cy := x+px.SquareSize/2, y+px.SquareSize/2

		letter := string(p.Type().Letter())
		width := d.MeasureString(letter).Ceil()
		d.Src = image.NewUniform(ink)
		d.Dot = fixed.P(cx-width/2, cy+(metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2)
		d.DrawString(letter)
	}
}
