package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Pointer message types.
const (
	PointerMove  = "move"
	PointerLeave = "leave"
)

// ErrBadPointerMessage is wrapped by every pointer message parse failure.
var ErrBadPointerMessage = errors.New("bad pointer message")

// PointerMessage reports where the pointer is along the strip.
type PointerMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
}

// ParsePointerMessage decodes and checks a pointer message.
func ParsePointerMessage(payload []byte) (PointerMessage, error) {
	var msg PointerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrBadPointerMessage, err)
	}

	switch msg.Type {
	case PointerMove:
		if math.IsNaN(msg.X) || msg.X < 0 || msg.X > 1 {
			return msg, fmt.Errorf("%w: x %v outside [0,1]", ErrBadPointerMessage, msg.X)
		}
	case PointerLeave:
	default:
		return msg, fmt.Errorf("%w: unknown type %q", ErrBadPointerMessage, msg.Type)
	}

	return msg, nil
}

type subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// PointerListener feeds pointer messages from MQTT into a Magnet.
type PointerListener struct {
	client subscriber
	topic  string
	qos    byte
	magnet *Magnet
	logger *zap.Logger
}

// NewPointerListener creates a PointerListener for the configured pointer topic.
func NewPointerListener(config Config, client subscriber, magnet *Magnet, logger *zap.Logger) *PointerListener {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := new(PointerListener)
	l.client = client
	l.topic = config.Mqtt.Topics.Pointer
	l.qos = config.Mqtt.Qos
	l.magnet = magnet
	l.logger = logger
	return l
}

func (l *PointerListener) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	pointer, err := ParsePointerMessage(msg.Payload())
	if err != nil {
		l.logger.Warn("dropping pointer message",
			zap.String("topic", msg.Topic()), zap.Uint16("id", msg.MessageID()), zap.Error(err))
		return
	}

	l.magnet.Apply(pointer)
}

// Subscribe listens on the pointer topic. Call it again after a reconnect.
func (l *PointerListener) Subscribe() error {
	token := l.client.Subscribe(l.topic, l.qos, l.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", l.topic, token.Error())
	}

	l.logger.Info("listening for pointer", zap.String("topic", l.topic))
	return nil
}
