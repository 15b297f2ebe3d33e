package stream

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  url: tcp://broker:1883
  topics:
    stream: tree/stream
strip:
  pixels: 120
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", c.Mqtt.URL)
	assert.Equal(t, "tree/stream", c.Mqtt.Topics.Stream)
	assert.Equal(t, "home/xmastree/pointer", c.Mqtt.Topics.Pointer)
	assert.Equal(t, "ledmagnet", c.Mqtt.ClientID)
	assert.Equal(t, 120, c.Strip.Pixels)
	assert.Equal(t, 30.0, c.Strip.FrameRate)
	assert.Equal(t, "friction", c.Spring.Stepper)
	assert.Equal(t, ":3000", c.Api.Addr)
	assert.Equal(t, 5*time.Minute, c.Magnet.Cycle)
}

func TestLoadConfigReadsCycleDuration(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, `
magnet:
  idle: twinkle
  cycle: 90s
`))
	require.NoError(t, err)

	assert.Equal(t, "twinkle", c.Magnet.Idle)
	assert.Equal(t, 90*time.Second, c.Magnet.Cycle)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "strip: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no pixels", func(c *Config) { c.Strip.Pixels = 0 }},
		{"too many pixels", func(c *Config) { c.Strip.Pixels = 70000 }},
		{"zero frame rate", func(c *Config) { c.Strip.FrameRate = 0 }},
		{"qos", func(c *Config) { c.Mqtt.Qos = 3 }},
		{"radius", func(c *Config) { c.Magnet.Radius = 0 }},
		{"friction", func(c *Config) { c.Spring.Friction = 1 }},
		{"epsilon", func(c *Config) { c.Spring.Epsilon = 0 }},
		{"stepper", func(c *Config) { c.Spring.Stepper = "bouncy" }},
		{"idle", func(c *Config) { c.Magnet.Idle = "streak" }},
		{"cycle", func(c *Config) { c.Magnet.Cycle = -time.Second }},
		{"colour", func(c *Config) { c.Magnet.Foreground = "grey" }},
	}

	assert.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSpringOptions(t *testing.T) {
	c := DefaultConfig()
	assert.Len(t, SpringOptions(c), 3)

	c.Spring.Stepper = "harmonica"
	assert.Len(t, SpringOptions(c), 4)
}
