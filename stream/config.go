package stream

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/matt-g-everett/ledmagnet/spring"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		ClientID string `yaml:"clientID"`
		Qos      byte   `yaml:"qos"`
		Topics   struct {
			Stream  string `yaml:"stream"`
			Pointer string `yaml:"pointer"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	Strip struct {
		Pixels    int     `yaml:"pixels"`
		FrameRate float64 `yaml:"frameRate"`
	} `yaml:"strip"`
	Spring struct {
		Stepper      string  `yaml:"stepper"`
		Acceleration float64 `yaml:"acceleration"`
		Friction     float64 `yaml:"friction"`
		Epsilon      float64 `yaml:"epsilon"`
		Frequency    float64 `yaml:"frequency"`
		Damping      float64 `yaml:"damping"`
	} `yaml:"spring"`
	Magnet struct {
		Radius     float64       `yaml:"radius"`
		Foreground string        `yaml:"foreground"`
		Background string        `yaml:"background"`
		Idle       string        `yaml:"idle"`
		Cycle      time.Duration `yaml:"cycle"`
	} `yaml:"magnet"`
	Api struct {
		Addr   string `yaml:"addr"`
		Static string `yaml:"static"`
	} `yaml:"api"`
}

// DefaultConfig returns the settings used for anything a config file leaves out.
func DefaultConfig() Config {
	var c Config
	c.Mqtt.ClientID = "ledmagnet"
	c.Mqtt.Topics.Stream = "home/xmastree/stream"
	c.Mqtt.Topics.Pointer = "home/xmastree/pointer"
	c.Strip.Pixels = 500
	c.Strip.FrameRate = 30
	c.Spring.Stepper = "friction"
	c.Spring.Acceleration = 0.08
	c.Spring.Friction = 0.2
	c.Spring.Epsilon = 0.001
	c.Spring.Frequency = 6.0
	c.Spring.Damping = 0.8
	c.Magnet.Radius = 40
	c.Magnet.Foreground = "#808080"
	c.Magnet.Background = "#000005"
	c.Magnet.Idle = "gradient"
	c.Magnet.Cycle = 5 * time.Minute
	c.Api.Addr = ":3000"
	c.Api.Static = "client/dist"
	return c
}

// LoadConfig reads a YAML config file over the defaults and validates it.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&c); err != nil {
		return c, fmt.Errorf("decode config %s: %w", path, err)
	}

	return c, c.Validate()
}

// Validate checks the ranges the renderer and spring rely on.
func (c Config) Validate() error {
	switch {
	case c.Strip.Pixels <= 0 || c.Strip.Pixels > 0xffff:
		return fmt.Errorf("%w: strip.pixels must be in 1..65535, got %d", ErrInvalidConfig, c.Strip.Pixels)
	case c.Strip.FrameRate <= 0:
		return fmt.Errorf("%w: strip.frameRate must be positive", ErrInvalidConfig)
	case c.Mqtt.Qos > 2:
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalidConfig)
	case c.Magnet.Radius <= 0:
		return fmt.Errorf("%w: magnet.radius must be positive", ErrInvalidConfig)
	case c.Magnet.Cycle < 0:
		return fmt.Errorf("%w: magnet.cycle must not be negative", ErrInvalidConfig)
	case c.Spring.Friction < 0 || c.Spring.Friction >= 1:
		return fmt.Errorf("%w: spring.friction must be in [0,1)", ErrInvalidConfig)
	case c.Spring.Epsilon <= 0:
		return fmt.Errorf("%w: spring.epsilon must be positive", ErrInvalidConfig)
	}

	switch c.Spring.Stepper {
	case "friction", "harmonica":
	default:
		return fmt.Errorf("%w: unknown spring.stepper %q", ErrInvalidConfig, c.Spring.Stepper)
	}

	switch c.Magnet.Idle {
	case "gradient", "twinkle":
	default:
		return fmt.Errorf("%w: unknown magnet.idle %q", ErrInvalidConfig, c.Magnet.Idle)
	}

	for _, hex := range []string{c.Magnet.Foreground, c.Magnet.Background} {
		if _, err := ParseHex(hex); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// SpringOptions turns the spring section into animator options.
func SpringOptions(config Config) []spring.Option {
	opts := []spring.Option{
		spring.WithAcceleration(config.Spring.Acceleration),
		spring.WithFriction(config.Spring.Friction),
		spring.WithEpsilon(config.Spring.Epsilon),
	}
	if config.Spring.Stepper == "harmonica" {
		fps := int(math.Round(config.Strip.FrameRate))
		opts = append(opts, spring.WithStepper(
			spring.NewHarmonicaStepper(fps, config.Spring.Frequency, config.Spring.Damping)))
	}
	return opts
}
