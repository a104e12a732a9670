package rain

// lcg is a 31-bit linear congruential generator. The animation is defined by
// its state stream: two engines seeded alike must produce identical column
// states tick for tick, which rules out math/rand (its algorithm is not part
// of any compatibility promise).
type lcg struct {
	state uint32
}

const (
	lcgMul  = 1103515245
	lcgInc  = 12345
	lcgMask = 1<<31 - 1

	// floatScale bounds the modulo step of float.
	floatScale = 1 << 24
)

func (r *lcg) next() uint32 {
	r.state = (r.state*lcgMul + lcgInc) & lcgMask
	return r.state
}

// intn returns a uniform int in [lo, hi). Degenerate ranges collapse to lo.
func (r *lcg) intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(r.next()%uint32(hi-lo))
}

// float returns a uniform float64 in [0, 1).
func (r *lcg) float() float64 {
	return float64(r.next()%floatScale) / float64(floatScale)
}
