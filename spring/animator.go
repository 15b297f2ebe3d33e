// Package spring animates named values towards targets with spring physics,
// one step per scheduled frame.
package spring

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/matt-g-everett/ledmagnet/frame"
)

// Default spring constants.
const (
	DefaultAcceleration = 0.08
	DefaultFriction     = 0.2
	DefaultEpsilon      = 0.001
)

// Event names an animator notification.
type Event string

const (
	// EventTick fires after every physics step.
	EventTick Event = "tick"
	// EventEnd fires once every value has settled on its target.
	EventEnd Event = "end"
)

// ErrUnknownEvent is returned by On for events other than EventTick and EventEnd.
var ErrUnknownEvent = errors.New("spring: unknown event")

// A Handler receives the position of every value, keyed by name.
type Handler func(values map[string]float64)

// Option configures an Animator.
type Option func(a *Animator)

// WithAcceleration sets the acceleration used by new values.
func WithAcceleration(acceleration float64) Option {
	return func(a *Animator) { a.acceleration = acceleration }
}

// WithFriction sets the friction used by new values.
func WithFriction(friction float64) Option {
	return func(a *Animator) { a.friction = friction }
}

// WithEpsilon sets the settle threshold for both velocity and distance.
func WithEpsilon(epsilon float64) Option {
	return func(a *Animator) { a.epsilon = epsilon }
}

// WithStepper replaces the default FrictionStepper.
func WithStepper(stepper Stepper) Option {
	return func(a *Animator) { a.stepper = stepper }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Animator) { a.logger = logger }
}

// Animator owns a set of spring values and steps them on a frame.Schedule
// while any of them is away from its target.
type Animator struct {
	schedule *frame.Schedule
	sub      *frame.FuncSubscriber

	acceleration float64
	friction     float64
	epsilon      float64
	stepper      Stepper
	logger       *zap.Logger

	mu       sync.Mutex
	names    []string
	values   map[string]*Value
	handlers map[Event][]Handler
	running  bool
}

// New creates an Animator with a value, at rest at zero, for each name.
func New(schedule *frame.Schedule, names []string, opts ...Option) *Animator {
	a := new(Animator)
	a.schedule = schedule
	a.acceleration = DefaultAcceleration
	a.friction = DefaultFriction
	a.epsilon = DefaultEpsilon
	a.stepper = FrictionStepper{}
	a.logger = zap.NewNop()
	a.values = make(map[string]*Value)
	a.handlers = make(map[Event][]Handler)

	for _, opt := range opts {
		opt(a)
	}

	a.sub = frame.Func(a.step)
	for _, name := range names {
		a.value(name)
	}

	return a
}

// value returns the named value, creating it at zero. Callers hold a.mu.
func (a *Animator) value(name string) *Value {
	v, ok := a.values[name]
	if !ok {
		v = &Value{Name: name, Acceleration: a.acceleration, Friction: a.friction}
		a.values[name] = v
		a.names = append(a.names, name)
	}
	return v
}

// Animate sets a new target for name and starts stepping.
func (a *Animator) Animate(name string, target float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.value(name).Target = target
	a.start()
}

// Set moves name to position immediately and leaves it at rest there.
func (a *Animator) Set(name string, position float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.value(name)
	v.Position = position
	v.Target = position
	v.Velocity = 0
}

// On registers handler for event. Handlers fire in registration order.
func (a *Animator) On(event Event, handler Handler) error {
	switch event {
	case EventTick, EventEnd:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[event] = append(a.handlers[event], handler)
	return nil
}

// Value returns the current position of name.
func (a *Animator) Value(name string) (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok := a.values[name]
	if !ok {
		return 0, false
	}
	return v.Position, true
}

// Values returns the current position of every value.
func (a *Animator) Values() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// Running reports whether the animator is being stepped.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Stop removes the animator from its schedule. Values keep their positions.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		a.running = false
		a.schedule.Remove(a.sub)
	}
}

func (a *Animator) start() {
	a.running = true
	a.schedule.Queue(a.sub, false)
}

func (a *Animator) snapshot() map[string]float64 {
	out := make(map[string]float64, len(a.values))
	for name, v := range a.values {
		out[name] = v.Position
	}
	return out
}

func (a *Animator) settled(v *Value) bool {
	return math.Abs(v.Velocity) < a.epsilon && math.Abs(v.Target-v.Position) < a.epsilon
}

func (a *Animator) step(frame.Info) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}

	done := true
	for _, name := range a.names {
		v := a.values[name]
		a.stepper.Step(v)
		if !a.settled(v) {
			done = false
		}
	}

	if done {
		for _, v := range a.values {
			v.Position = v.Target
			v.Velocity = 0
		}
		a.running = false
		a.schedule.Remove(a.sub)
	}

	values := a.snapshot()
	ticks := append([]Handler(nil), a.handlers[EventTick]...)
	var ends []Handler
	if done {
		ends = append(ends, a.handlers[EventEnd]...)
	}
	a.mu.Unlock()

	for _, h := range ticks {
		h(values)
	}
	if done {
		a.logger.Debug("spring settled", zap.Any("values", values))
		for _, h := range ends {
			h(values)
		}
	}
}
