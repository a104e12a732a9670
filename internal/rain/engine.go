// Package rain animates the falling-glyph "digital rain" effect: one trail
// per character column, advanced by a time-gated tick and drawn onto a
// host-supplied surface.
package rain

import (
	"errors"
	"time"
)

const (
	// updateInterval gates Update; calls inside the window are no-ops.
	updateInterval = 70 * time.Millisecond

	// Trail length is rolled per restart.
	minTrailLen = 30
	maxTrailLen = 40

	// fadeRate is the per-tick alpha decrement for fading trails and for
	// frozen snapshots.
	fadeRate = 0.04

	// maxColumns bounds memory and CPU regardless of surface size.
	maxColumns = 500

	// maxFrozen caps a column's snapshot backlog; a full backlog skips the
	// freeze for that tick and the off-screen trail retries next tick.
	maxFrozen = 8

	startChance  = 0.95 // column starts falling rather than idle
	reviveChance = 0.01 // idle column comes back per tick
	fadeChance   = 0.01 // opaque on-screen trail starts fading per tick
	freezeChance = 0.10 // off-bottom opaque trail freezes per tick
	mutateChance = 0.10 // one non-head glyph flickers per tick
)

var (
	// ErrCellMetrics reports a non-positive character-cell size from the host.
	ErrCellMetrics = errors.New("rain: non-positive cell size")

	// ErrNoColumns reports a surface narrower than one character cell.
	ErrNoColumns = errors.New("rain: surface narrower than one cell")
)

type colState uint8

const (
	colIdle colState = iota
	colFalling
	colFrozen
)

// column is one vertical animation lane. pos is in character units; negative
// means the head has not entered the visible area yet. chars is
// most-recent-first: chars[0] is the head.
type column struct {
	state  colState
	pos    int
	length int
	chars  []rune
	alpha  float64
	frozen []frozenTrail
}

// frozenTrail is a detached copy of a trail at the moment its column froze.
// It no longer moves; it only fades.
type frozenTrail struct {
	chars []rune
	yPos  int
	alpha float64
}

// Config supplies the surface size and the character-cell metrics, both in
// pixels. Seed overrides the time-derived RNG seed when non-zero.
type Config struct {
	Width      int
	Height     int
	CellWidth  int
	CellHeight int
	Seed       uint32
}

// Engine owns the whole animation state. It is not safe for concurrent use;
// the host loop calls Update and Render from one goroutine.
type Engine struct {
	width, height int
	cellW, cellH  int
	rows          int
	rng           lcg
	lastUpdate    time.Time
	columns       []column
}

// New derives the column grid from the surface and cell sizes and seeds every
// column. Most columns start falling from a random position above the screen;
// the rest wait idle for a revive roll.
func New(cfg Config) (*Engine, error) {
	if cfg.CellWidth <= 0 || cfg.CellHeight <= 0 {
		return nil, ErrCellMetrics
	}
	cols := cfg.Width / cfg.CellWidth
	if cols <= 0 {
		return nil, ErrNoColumns
	}
	if cols > maxColumns {
		cols = maxColumns
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint32(time.Now().UnixNano())
	}

	e := &Engine{
		width:   cfg.Width,
		height:  cfg.Height,
		cellW:   cfg.CellWidth,
		cellH:   cfg.CellHeight,
		rows:    cfg.Height / cfg.CellHeight,
		rng:     lcg{state: seed & lcgMask},
		columns: make([]column, cols),
	}
	for i := range e.columns {
		c := &e.columns[i]
		c.length = e.rng.intn(minTrailLen, maxTrailLen+1)
		c.chars = make([]rune, c.length)
		for j := range c.chars {
			c.chars[j] = e.rng.glyph()
		}
		c.alpha = 1
		if e.rng.float() < startChance {
			c.state = colFalling
			c.pos = -e.rng.intn(1, e.rows+1)
		}
	}
	return e, nil
}

// Update advances the animation by one tick. It is rate-limited: calls within
// updateInterval of the previous tick do nothing, so the host may call it as
// often as it likes.
func (e *Engine) Update(now time.Time) {
	if e == nil || e.columns == nil {
		return
	}
	if now.Sub(e.lastUpdate) < updateInterval {
		return
	}
	e.lastUpdate = now

	for i := range e.columns {
		e.step(&e.columns[i])
	}
}

// Close releases all column storage. Safe to call repeatedly and on nil;
// Update and Render become no-ops afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.columns = nil
}

// step runs one column through the tick state machine, then applies the
// flicker mutation and drains the frozen backlog. Mutation and draining run in
// every state, matching the original update order.
func (e *Engine) step(c *column) {
	switch c.state {
	case colIdle:
		if e.rng.float() < reviveChance {
			e.restart(c)
		}
	case colFrozen:
		if len(c.frozen) == 0 {
			e.restart(c)
		}
	case colFalling:
		e.advance(c)
	}

	if e.rng.float() < mutateChance && c.length > 1 {
		c.chars[e.rng.intn(1, c.length)] = e.rng.glyph()
	}

	e.drain(c)
}

// advance moves a falling trail: maybe start or continue fading, scroll the
// glyphs down one cell, and once fully past the bottom roll for a freeze.
func (e *Engine) advance(c *column) {
	if c.pos > 0 && c.alpha >= 1 && e.rng.float() < fadeChance {
		c.alpha -= fadeRate
	} else if c.alpha < 1 {
		c.alpha -= fadeRate
		if c.alpha <= 0 {
			// Fully faded out: full reset, bypassing the freeze path.
			e.restart(c)
			return
		}
	}

	copy(c.chars[1:], c.chars)
	c.chars[0] = e.rng.glyph()
	c.pos++

	if c.pos > e.rows && c.alpha >= 1 && e.rng.float() < freezeChance {
		e.freeze(c)
	}
}

// freeze detaches the current trail into a frozen snapshot and reseeds the
// column. The snapshot fades independently; the column stays frozen until it
// has drained, then the reseeded trail starts falling. Reports false when the
// backlog is full and the freeze was skipped.
func (e *Engine) freeze(c *column) bool {
	if len(c.frozen) >= maxFrozen {
		return false
	}
	c.frozen = append(c.frozen, frozenTrail{
		chars: append([]rune(nil), c.chars...),
		yPos:  c.pos * e.cellH,
		alpha: 1,
	})
	e.restart(c)
	c.state = colFrozen
	return true
}

// restart reseeds a column as a fresh falling trail: new length, new glyphs,
// full opacity, head somewhere within one screen height above the top edge.
func (e *Engine) restart(c *column) {
	c.state = colFalling
	c.pos = -e.rng.intn(1, e.rows+1)
	c.length = e.rng.intn(minTrailLen, maxTrailLen+1)
	c.chars = make([]rune, c.length)
	for j := range c.chars {
		c.chars[j] = e.rng.glyph()
	}
	c.alpha = 1
}

// drain fades every frozen snapshot and swap-removes the ones that reached
// zero. Order among snapshots does not matter, so removal stays O(1).
func (e *Engine) drain(c *column) {
	for i := 0; i < len(c.frozen); {
		c.frozen[i].alpha -= fadeRate
		if c.frozen[i].alpha <= 0 {
			last := len(c.frozen) - 1
			c.frozen[i] = c.frozen[last]
			c.frozen[last] = frozenTrail{}
			c.frozen = c.frozen[:last]
		} else {
			i++
		}
	}
}
