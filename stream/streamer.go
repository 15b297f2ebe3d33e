package stream

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/matt-g-everett/ledmagnet/frame"
)

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Streamer that streams RGB data frames to an ledrx device, one per frame of
// its schedule.
type Streamer struct {
	client     publisher
	schedule   *frame.Schedule
	controller *Controller
	topic      string
	qos        byte
	timeout    time.Duration
	logger     *zap.Logger
	sub        *frame.FuncSubscriber

	frames   atomic.Uint64
	failures atomic.Uint64
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(config Config, client publisher, schedule *frame.Schedule, controller *Controller,
	logger *zap.Logger) *Streamer {

	if logger == nil {
		logger = zap.NewNop()
	}

	s := new(Streamer)
	s.client = client
	s.schedule = schedule
	s.controller = controller
	s.topic = config.Mqtt.Topics.Stream
	s.qos = config.Mqtt.Qos
	s.timeout = time.Second
	s.logger = logger
	s.sub = frame.Func(s.onFrame)
	return s
}

// SendFrame renders a frame and publishes it as binary over MQTT.
func (s *Streamer) SendFrame(info frame.Info) error {
	f := s.controller.Render(info)
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, s.qos, false, b)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish to %s: timed out after %s", s.topic, s.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}

	s.frames.Add(1)
	return nil
}

func (s *Streamer) onFrame(info frame.Info) {
	if err := s.SendFrame(info); err != nil {
		s.failures.Add(1)
		s.logger.Warn("frame not sent", zap.Error(err))
	}
}

// Start streams on every keep-alive frame so animations see real elapsed time.
func (s *Streamer) Start() {
	s.logger.Info("streaming", zap.String("topic", s.topic))
	s.schedule.Queue(s.sub, true)
}

// Stop takes the Streamer off its schedule.
func (s *Streamer) Stop() {
	s.schedule.Remove(s.sub)
}

// Frames returns the number of frames published.
func (s *Streamer) Frames() uint64 {
	return s.frames.Load()
}

// Failures returns the number of frames that failed to publish.
func (s *Streamer) Failures() uint64 {
	return s.failures.Load()
}
