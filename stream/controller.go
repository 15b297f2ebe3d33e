package stream

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matt-g-everett/ledmagnet/frame"
)

// NewIdle creates the named idle animation from the config.
func NewIdle(name string, config Config) (Animation, error) {
	switch name {
	case "gradient":
		return NewGradientTrail(RainbowGradient, 180, 60), nil
	case "twinkle":
		foreColour, err := ParseHex(config.Magnet.Foreground)
		if err != nil {
			return nil, err
		}
		backColour, err := ParseHex(config.Magnet.Background)
		if err != nil {
			return nil, err
		}
		return NewTwinkle(config.Strip.Pixels/8, foreColour, backColour, time.Now().UnixNano()), nil
	}
	return nil, fmt.Errorf("%w: unknown idle animation %q", ErrInvalidConfig, name)
}

// idleRotation is the order CycleIdle steps through.
var idleRotation = []string{"gradient", "twinkle"}

func idleAfter(name string) string {
	for i, n := range idleRotation {
		if n == name {
			return idleRotation[(i+1)%len(idleRotation)]
		}
	}
	return idleRotation[0]
}

// Controller renders an idle animation with the magnet glow on top, and
// cross-fades when the idle animation changes.
type Controller struct {
	magnet *Magnet
	logger *zap.Logger
	pixels int

	mu                 sync.Mutex
	animation          Animation
	nextAnimation      Animation
	transition         float64
	transitionDuration time.Duration

	config        Config
	idle          string
	cycleInterval time.Duration
	cycleElapsed  time.Duration
}

// NewController creates an instance of a Controller.
func NewController(pixels int, idle Animation, magnet *Magnet, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := new(Controller)
	c.magnet = magnet
	c.logger = logger
	c.pixels = pixels
	c.animation = idle
	c.nextAnimation = nil
	c.transition = 0.0
	c.transitionDuration = 5 * time.Second

	return c
}

// SetIdle starts a cross-fade to a new idle animation.
func (c *Controller) SetIdle(next Animation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setIdle(next)
}

func (c *Controller) setIdle(next Animation) {
	c.logger.Info("switching idle animation", zap.String("type", fmt.Sprintf("%T", next)))
	c.nextAnimation = next
	c.transition = 0.0
}

// CycleIdle makes the controller step through the named idle animations,
// starting after config.Magnet.Idle, every config.Magnet.Cycle of frame time.
// A zero interval only records the current name for NextIdle.
func (c *Controller) CycleIdle(config Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.config = config
	c.idle = config.Magnet.Idle
	c.cycleInterval = config.Magnet.Cycle
	c.cycleElapsed = 0
}

// NextIdle cross-fades to the next named idle animation straight away.
func (c *Controller) NextIdle() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextIdle()
}

func (c *Controller) nextIdle() error {
	name := idleAfter(c.idle)
	next, err := NewIdle(name, c.config)
	if err != nil {
		return err
	}
	c.idle = name
	c.cycleElapsed = 0
	c.setIdle(next)
	return nil
}

// Idle returns the name of the idle animation showing, or fading in. It is
// empty unless CycleIdle has been called.
func (c *Controller) Idle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle
}

// Render produces the next frame.
func (c *Controller) Render(info frame.Info) *Frame {
	c.mu.Lock()
	f := NewFrame(c.pixels)
	c.animation.Render(f, info)
	if c.nextAnimation != nil {
		f2 := NewFrame(c.pixels)
		c.nextAnimation.Render(f2, info)
		f = f.InterpolateFrame(f2, c.transition)
		c.transition += float64(info.Delta) / float64(c.transitionDuration)

		if c.transition >= 1.0 {
			c.animation = c.nextAnimation
			c.nextAnimation = nil
			c.transition = 0.0
		}
	} else if c.cycleInterval > 0 {
		c.cycleElapsed += info.Delta
		if c.cycleElapsed >= c.cycleInterval {
			if err := c.nextIdle(); err != nil {
				c.logger.Error("idle cycle failed", zap.Error(err))
				c.cycleElapsed = 0
			}
		}
	}
	c.mu.Unlock()

	if c.magnet != nil {
		c.magnet.Render(f, info)
	}

	return f
}
