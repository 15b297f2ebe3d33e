package stream

import (
	"math"

	"github.com/matt-g-everett/ledmagnet/frame"
)

// A GradientTrail is an Animation that cycles a gradient along an led strip.
type GradientTrail struct {
	gradient     GradientTable
	trailLength  int
	pixelsPerSec float64
	saturation   float64
	luminance    float64
	current      float64
}

// NewGradientTrail creates an instance of a GradientTrail object.
func NewGradientTrail(gradient GradientTable, trailLength int, pixelsPerSec float64) *GradientTrail {
	g := new(GradientTrail)
	g.gradient = gradient
	g.trailLength = trailLength
	g.pixelsPerSec = pixelsPerSec
	g.saturation = 1.0
	g.luminance = 0.05
	g.current = 0

	return g
}

// Render paints the gradient and moves it along by the frame's delta.
func (g *GradientTrail) Render(f *Frame, info frame.Info) {
	numPixels := f.Len()
	length := float64(g.trailLength)
	for i := 0; i < numPixels; i++ {
		t := math.Mod(float64(i+numPixels)-g.current+length, length) / length
		f.pixels[i] = g.gradient.GetColor(t, g.saturation, g.luminance)
	}

	g.current += g.pixelsPerSec * info.Delta.Seconds()
	g.current = math.Mod(g.current, length)
}
