package stream

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/ledmagnet/frame"
)

type solid struct {
	colour colorful.Color
}

func (s solid) Render(f *Frame, _ frame.Info) {
	f.Fill(s.colour)
}

func TestStreamerPublishesOnKeepAliveFrames(t *testing.T) {
	config := DefaultConfig()
	config.Strip.Pixels = 8
	config.Mqtt.Qos = 1

	host := frame.NewManualHost()
	schedule := frame.NewSchedule(host)
	controller := NewController(config.Strip.Pixels, solid{colorful.Color{R: 1}}, nil, nil)
	client := new(fakeClient)
	s := NewStreamer(config, client, schedule, controller, nil)

	s.Start()
	host.Advance(0)
	assert.Zero(t, s.Frames(), "first keep-alive frame only measures time")

	host.Advance(33 * time.Millisecond)
	host.Advance(66 * time.Millisecond)
	assert.Equal(t, uint64(2), s.Frames())

	require.Len(t, client.published, 2)
	p := client.published[0]
	assert.Equal(t, config.Mqtt.Topics.Stream, p.topic)
	assert.Equal(t, byte(1), p.qos)
	assert.Equal(t, uint16(8), binary.LittleEndian.Uint16(p.payload))
	assert.Equal(t, []byte{255, 0, 0}, p.payload[2:5])

	s.Stop()
	host.Advance(100 * time.Millisecond)
	assert.Equal(t, uint64(2), s.Frames())
	assert.Zero(t, host.Pending())
}

func TestStreamerCountsFailures(t *testing.T) {
	host := frame.NewManualHost()
	schedule := frame.NewSchedule(host)
	controller := NewController(4, solid{}, nil, nil)
	client := &fakeClient{publishErr: errors.New("broker gone")}
	s := NewStreamer(DefaultConfig(), client, schedule, controller, nil)

	err := s.SendFrame(frame.Info{})
	assert.ErrorContains(t, err, "broker gone")

	s.Start()
	host.Advance(0)
	host.Advance(33 * time.Millisecond)
	assert.Equal(t, uint64(1), s.Failures())
	assert.Zero(t, s.Frames())
}

func TestControllerDrawsMagnetOverIdle(t *testing.T) {
	m, host := newTestMagnet(t, 101)
	background := colorful.Color{R: 0.1, G: 0.1, B: 0.1}
	c := NewController(101, solid{background}, m, nil)

	m.Attract(0.5)
	settle(host, 1000)

	f := c.Render(frame.Info{Delta: frame.NominalDelta})
	assert.Equal(t, background, f.Pixel(0))
	assert.NotEqual(t, background, f.Pixel(50))
}

func TestControllerCrossFades(t *testing.T) {
	red := colorful.Color{R: 1}
	blue := colorful.Color{B: 1}
	c := NewController(2, solid{red}, nil, nil)
	c.transitionDuration = 100 * time.Millisecond

	c.SetIdle(solid{blue})
	info := frame.Info{Delta: 25 * time.Millisecond}

	first := c.Render(info)
	assert.True(t, first.Pixel(0).AlmostEqualRgb(red))

	mid := c.Render(info)
	assert.False(t, mid.Pixel(0).AlmostEqualRgb(red))
	assert.False(t, mid.Pixel(0).AlmostEqualRgb(blue))

	c.Render(info)
	c.Render(info)
	last := c.Render(info)
	assert.Equal(t, blue, last.Pixel(0))
}

func TestNewIdle(t *testing.T) {
	config := DefaultConfig()

	for _, name := range []string{"gradient", "twinkle"} {
		a, err := NewIdle(name, config)
		require.NoError(t, err)

		f := NewFrame(config.Strip.Pixels)
		a.Render(f, frame.Info{Delta: frame.NominalDelta})
		assert.NotEqual(t, colorful.Color{}, f.Pixel(0))
	}

	_, err := NewIdle("streak", config)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTwinklePulses(t *testing.T) {
	fore := colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	back := colorful.Color{B: 0.02}
	tw := NewTwinkle(10, fore, back, 1)

	first := NewFrame(20)
	tw.Render(first, frame.Info{})
	lit := -1
	for i := 0; i < first.Len(); i++ {
		if first.Pixel(i) != back {
			lit = i
			break
		}
	}
	require.GreaterOrEqual(t, lit, 0)

	changed := false
	for n := 0; n < 30 && !changed; n++ {
		next := NewFrame(20)
		tw.Render(next, frame.Info{})
		changed = !next.Pixel(lit).AlmostEqualRgb(first.Pixel(lit))
	}
	assert.True(t, changed)
}

func TestTwinkleIsReproducibleFromSeed(t *testing.T) {
	fore := colorful.Color{R: 0.9, G: 0.3, B: 0.1}
	back := colorful.Color{B: 0.02}
	a := NewTwinkle(8, fore, back, 42)
	b := NewTwinkle(8, fore, back, 42)

	for n := 0; n < 5; n++ {
		fa, fb := NewFrame(30), NewFrame(30)
		a.Render(fa, frame.Info{})
		b.Render(fb, frame.Info{})
		for i := 0; i < fa.Len(); i++ {
			assert.Equal(t, fa.Pixel(i), fb.Pixel(i), "frame %d pixel %d", n, i)
		}
	}
}

func TestControllerCyclesIdle(t *testing.T) {
	config := DefaultConfig()
	config.Strip.Pixels = 16
	config.Magnet.Cycle = 100 * time.Millisecond

	c := NewController(16, solid{colorful.Color{R: 1}}, nil, nil)
	c.transitionDuration = 50 * time.Millisecond
	c.CycleIdle(config)
	info := frame.Info{Delta: 25 * time.Millisecond}

	for i := 0; i < 3; i++ {
		c.Render(info)
	}
	assert.Equal(t, "gradient", c.Idle())
	assert.Nil(t, c.nextAnimation)

	c.Render(info)
	assert.Equal(t, "twinkle", c.Idle())
	assert.IsType(t, &Twinkle{}, c.nextAnimation)

	c.Render(info)
	c.Render(info)
	assert.IsType(t, &Twinkle{}, c.animation)
	assert.Nil(t, c.nextAnimation)

	for i := 0; i < 4; i++ {
		c.Render(info)
	}
	assert.Equal(t, "gradient", c.Idle())
	assert.IsType(t, &GradientTrail{}, c.nextAnimation)
}

func TestControllerWithoutCycleKeepsIdle(t *testing.T) {
	config := DefaultConfig()
	config.Magnet.Cycle = 0

	c := NewController(4, solid{}, nil, nil)
	c.CycleIdle(config)
	for i := 0; i < 100; i++ {
		c.Render(frame.Info{Delta: time.Hour})
	}

	assert.Equal(t, "gradient", c.Idle())
	assert.Nil(t, c.nextAnimation)

	require.NoError(t, c.NextIdle())
	assert.Equal(t, "twinkle", c.Idle())
	assert.IsType(t, &Twinkle{}, c.nextAnimation)
}

func TestStreamerPublishesCycledIdle(t *testing.T) {
	config := DefaultConfig()
	config.Strip.Pixels = 8
	config.Magnet.Cycle = 66 * time.Millisecond

	host := frame.NewManualHost()
	schedule := frame.NewSchedule(host)
	controller := NewController(config.Strip.Pixels, solid{colorful.Color{R: 1}}, nil, nil)
	controller.transitionDuration = 33 * time.Millisecond
	controller.CycleIdle(config)
	client := new(fakeClient)
	s := NewStreamer(config, client, schedule, controller, nil)

	s.Start()
	for i := 0; i <= 4; i++ {
		host.Advance(time.Duration(i) * 33 * time.Millisecond)
	}
	s.Stop()

	require.Len(t, client.published, 4)
	assert.Equal(t, []byte{255, 0, 0}, client.published[0].payload[2:5])
	assert.NotEqual(t, []byte{255, 0, 0}, client.published[3].payload[2:5])
	assert.Equal(t, "twinkle", controller.Idle())
}
