// matrix-snapshot renders the rain animation headlessly and writes one frame
// as a PNG. Useful for eyeballing the effect without a terminal and for
// comparing frames across changes.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"matrix-rain/internal/rain"
	"matrix-rain/internal/raster"
)

// tickStep comfortably clears the engine's update interval so every
// simulated step lands a tick.
const tickStep = 100 * time.Millisecond

func main() {
	width := flag.Int("width", 1280, "Frame width in pixels")
	height := flag.Int("height", 720, "Frame height in pixels")
	fontSize := flag.Float64("font-size", 16, "Font size in points")
	ticks := flag.Int("ticks", 120, "Animation ticks to run before capturing")
	seed := flag.Uint("seed", 0, "RNG seed (0 = time-derived)")
	out := flag.String("o", "rain.png", "Output PNG path")
	flag.Parse()

	if err := run(*width, *height, *fontSize, *ticks, uint32(*seed), *out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(width, height int, fontSize float64, ticks int, seed uint32, out string) error {
	surface, err := raster.New(width, height, fontSize)
	if err != nil {
		return fmt.Errorf("creating surface: %w", err)
	}

	cellW, cellH, err := surface.Metrics()
	if err != nil {
		return fmt.Errorf("measuring face: %w", err)
	}

	engine, err := rain.New(rain.Config{
		Width:      width,
		Height:     height,
		CellWidth:  cellW,
		CellHeight: cellH,
		Seed:       seed,
	})
	if err != nil {
		return fmt.Errorf("initializing rain: %w", err)
	}
	defer engine.Close()

	// Drive the clock synthetically; no need to sleep through real ticks.
	clock := time.Now()
	for i := 0; i < ticks; i++ {
		clock = clock.Add(tickStep)
		engine.Update(clock)
	}
	engine.Render(surface)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	if err := png.Encode(f, surface.Image()); err != nil {
		return fmt.Errorf("encoding %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("wrote %s (%dx%d, %d ticks)\n", out, width, height, ticks)
	return nil
}
