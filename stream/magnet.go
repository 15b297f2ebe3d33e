package stream

import (
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/matt-g-everett/ledmagnet/frame"
	"github.com/matt-g-everett/ledmagnet/spring"
	"github.com/matt-g-everett/ledmagnet/util"
)

// Names of the spring values a Magnet animates.
const (
	ValuePos      = "pos"
	ValueStrength = "strength"
)

// A Magnet is a glow that is pulled along the strip towards a pointer and
// fades in and out as the pointer arrives and leaves.
type Magnet struct {
	animator  *spring.Animator
	logger    *zap.Logger
	pixels    int
	radius    float64
	gradient  GradientTable
	luminance float64

	mu       sync.Mutex
	pos      float64
	strength float64
}

// NewMagnet creates a Magnet for a strip of pixels, animated on schedule.
func NewMagnet(schedule *frame.Schedule, pixels int, radius float64, foreground colorful.Color,
	logger *zap.Logger, opts ...spring.Option) *Magnet {

	if logger == nil {
		logger = zap.NewNop()
	}

	m := new(Magnet)
	m.logger = logger
	m.pixels = pixels
	m.radius = radius
	m.gradient = RainbowGradient
	_, _, m.luminance = foreground.Hcl()
	m.pos = float64(pixels-1) / 2

	opts = append(opts, spring.WithLogger(logger))
	m.animator = spring.New(schedule, []string{ValuePos, ValueStrength}, opts...)
	m.animator.Set(ValuePos, m.pos)

	// Handlers only fail for unknown events.
	_ = m.animator.On(spring.EventTick, m.update)
	_ = m.animator.On(spring.EventEnd, m.settled)

	return m
}

func (m *Magnet) update(values map[string]float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = values[ValuePos]
	m.strength = values[ValueStrength]
}

func (m *Magnet) settled(values map[string]float64) {
	m.logger.Debug("magnet settled",
		zap.Float64("pos", values[ValuePos]), zap.Float64("strength", values[ValueStrength]))
}

// Attract pulls the glow towards x, a position along the strip in [0,1].
// A fully faded glow jumps straight to x rather than sliding there.
func (m *Magnet) Attract(x float64) {
	x = math.Max(0, math.Min(1, x))
	target := x * float64(m.pixels-1)

	m.mu.Lock()
	faded := m.strength == 0
	if faded {
		m.pos = target
	}
	m.mu.Unlock()

	if faded {
		m.animator.Set(ValuePos, target)
	}
	m.animator.Animate(ValuePos, target)
	m.animator.Animate(ValueStrength, 1)
}

// Release fades the glow out where it is.
func (m *Magnet) Release() {
	m.animator.Animate(ValueStrength, 0)
}

// Apply acts on a pointer message.
func (m *Magnet) Apply(msg PointerMessage) {
	switch msg.Type {
	case PointerMove:
		m.Attract(msg.X)
	case PointerLeave:
		m.Release()
	}
}

// State returns the glow position in pixels and its strength.
func (m *Magnet) State() (pos, strength float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos, m.strength
}

// Animator exposes the spring animator driving the glow.
func (m *Magnet) Animator() *spring.Animator {
	return m.animator
}

// Close stops the animator.
func (m *Magnet) Close() {
	m.animator.Stop()
}

// Render blends the glow over whatever is already in f.
func (m *Magnet) Render(f *Frame, _ frame.Info) {
	pos, strength := m.State()
	if strength <= 0 {
		return
	}

	numPixels := f.Len()
	glow := m.gradient.GetColor(pos/float64(numPixels), 1.0, m.luminance)
	first := int(math.Max(0, math.Ceil(pos-m.radius)))
	last := int(math.Min(float64(numPixels-1), math.Floor(pos+m.radius)))
	for i := first; i <= last; i++ {
		weight := math.Min(1, strength) * util.Falloff((float64(i)-pos)/m.radius)
		if weight > 0 {
			f.pixels[i] = f.pixels[i].BlendHcl(glow, weight).Clamped()
		}
	}
}
