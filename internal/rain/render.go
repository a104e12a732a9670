package rain

import "image/color"

// Surface is the drawing target the host supplies to Render. Implementations
// are expected to composite off-screen and present whole frames; the engine
// never draws partial state.
type Surface interface {
	// Fill clears the whole surface to a solid color.
	Fill(c color.RGBA)
	// SetGlyph draws a single glyph with its top-left corner at pixel (x, y).
	SetGlyph(x, y int, g rune, c color.RGBA)
}

const (
	maxBright = 255
	minBright = 50

	// visThreshold is the brightness below which a draw is invisible against
	// the background and gets skipped.
	visThreshold = 5
)

// headColor is the near-white tone of a falling trail's leading glyph.
var headColor = color.RGBA{R: 200, G: 244, B: 248, A: 255}

// Render composes one full frame: background, then every frozen snapshot,
// then every falling trail so live trails layer above the fading ones. Idle
// columns draw nothing.
func (e *Engine) Render(s Surface) {
	if e == nil || e.columns == nil {
		return
	}
	s.Fill(color.RGBA{A: 255})

	for i := range e.columns {
		x := i * e.cellW
		for _, ft := range e.columns[i].frozen {
			e.drawTrail(s, x, ft.yPos, ft.chars, ft.alpha)
		}
	}

	for i := range e.columns {
		c := &e.columns[i]
		if c.state != colFalling {
			continue
		}
		x := i * e.cellW
		baseY := c.pos * e.cellH
		e.drawTrail(s, x, baseY, c.chars, c.alpha)
		if baseY >= 0 && baseY < e.height {
			if int(maxBright*c.alpha) >= visThreshold {
				s.SetGlyph(x, baseY, c.chars[0], scaleColor(headColor, c.alpha))
			}
		}
	}
}

// drawTrail draws one trail body above baseY, brightest at the head and
// clamped to the gradient floor at the tail, the whole ramp scaled by alpha.
// Only the green channel carries the body color.
func (e *Engine) drawTrail(s Surface, x, baseY int, chars []rune, alpha float64) {
	for k, g := range chars {
		y := baseY - (k+1)*e.cellH
		if y < 0 || y >= e.height {
			continue
		}
		b := int(float64(gradientBrightness(k, len(chars))) * alpha)
		if b < visThreshold {
			continue
		}
		s.SetGlyph(x, y, g, color.RGBA{G: uint8(b), A: 255})
	}
}

// gradientBrightness is the pre-alpha brightness of glyph k in a trail of n:
// a linear ramp from 255 at the head down to a floor of 50.
func gradientBrightness(k, n int) int {
	b := maxBright - k*(maxBright/n)
	if b < minBright {
		b = minBright
	}
	return b
}

func scaleColor(c color.RGBA, alpha float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: c.A,
	}
}
