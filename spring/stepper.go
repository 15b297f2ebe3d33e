package spring

import (
	"github.com/charmbracelet/harmonica"
)

// Value is a named quantity pulled towards its target.
type Value struct {
	Name         string
	Position     float64
	Velocity     float64
	Target       float64
	Acceleration float64
	Friction     float64
}

// A Stepper advances a Value by one frame.
type Stepper interface {
	Step(v *Value)
}

// FrictionStepper accelerates towards the target in proportion to the
// remaining distance and bleeds off a fraction of the velocity every step.
type FrictionStepper struct{}

// Step applies one acceleration and friction step.
func (FrictionStepper) Step(v *Value) {
	v.Velocity += (v.Target - v.Position) * v.Acceleration
	v.Velocity *= 1 - v.Friction
	v.Position += v.Velocity
}

// HarmonicaStepper steps a damped harmonic oscillator. Acceleration and
// Friction on the Value are ignored.
type HarmonicaStepper struct {
	spring harmonica.Spring
}

// NewHarmonicaStepper creates a stepper for the given frame rate, angular
// frequency and damping ratio.
func NewHarmonicaStepper(fps int, frequency, damping float64) *HarmonicaStepper {
	h := new(HarmonicaStepper)
	h.spring = harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)
	return h
}

// Step advances v by one frame of the oscillator.
func (h *HarmonicaStepper) Step(v *Value) {
	v.Position, v.Velocity = h.spring.Update(v.Position, v.Velocity, v.Target)
}
