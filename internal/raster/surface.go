// Package raster implements the engine's Surface on an in-memory RGBA image,
// rasterizing glyphs with the bundled Go Mono face. It backs the headless
// snapshot binary and the render tests.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrNoMetrics reports a face that cannot advance a reference glyph, leaving
// no way to derive a character-cell width.
var ErrNoMetrics = errors.New("raster: face reports no glyph advance")

// Surface draws glyphs into an RGBA image.
type Surface struct {
	img    *image.RGBA
	face   font.Face
	ascent int
}

// New builds a surface of the given pixel size with a Go Mono face at
// fontSize points.
func New(width, height int, fontSize float64) (*Surface, error) {
	ft, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bundled face: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("building face: %w", err)
	}
	return &Surface{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		face:   face,
		ascent: face.Metrics().Ascent.Ceil(),
	}, nil
}

// Metrics reports the character-cell size in pixels: the advance of a digit
// and the face height. This is the font-metrics source the engine's host
// contract asks for.
func (s *Surface) Metrics() (cellW, cellH int, err error) {
	adv, ok := s.face.GlyphAdvance('0')
	if !ok || adv <= 0 {
		return 0, 0, ErrNoMetrics
	}
	return adv.Ceil(), s.face.Metrics().Height.Ceil(), nil
}

func (s *Surface) Fill(c color.RGBA) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// SetGlyph draws g with its cell's top-left corner at (x, y); the drawer dot
// sits one ascent below that.
func (s *Surface) SetGlyph(x, y int, g rune, c color.RGBA) {
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: s.face,
		Dot:  fixed.P(x, y+s.ascent),
	}
	d.DrawString(string(g))
}

// Image exposes the backing frame for encoding or inspection.
func (s *Surface) Image() *image.RGBA { return s.img }
