// Package mqtt delivers inbound play and control events from an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"spotplay/internal/core"
)

const (
	connectTimeout = 10 * time.Second
	eventQueueSize = 16
)

// Handler consumes the raw attribute map of one inbound event.
type Handler func(ctx context.Context, attrs map[string]any)

// Bus subscribes to <base>/play and <base>/controls and hands decoded
// attribute maps to the registered handlers. Events are queued and dispatched
// one at a time: a request always runs to completion before the next starts.
type Bus struct {
	config *core.MQTTConfig
	logger *zap.Logger
	client paho.Client

	playHandler    Handler
	controlHandler Handler
	events         chan event
}

type event struct {
	topic string
	attrs map[string]any
}

func NewBus(config *core.MQTTConfig, logger *zap.Logger) *Bus {
	return &Bus{
		config: config,
		logger: logger,
		events: make(chan event, eventQueueSize),
	}
}

func (b *Bus) SetPlayHandler(handler Handler) {
	b.playHandler = handler
}

func (b *Bus) SetControlHandler(handler Handler) {
	b.controlHandler = handler
}

func (b *Bus) playTopic() string {
	return b.config.TopicBase + "/play"
}

func (b *Bus) controlTopic() string {
	return b.config.TopicBase + "/controls"
}

// Start connects, subscribes and dispatches events until ctx is cancelled.
func (b *Bus) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().AddBroker(b.config.BrokerURL)
	opts.SetClientID(b.config.ClientID)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetAutoReconnect(true)
	if b.config.Username != "" {
		opts.SetUsername(b.config.Username)
		opts.SetPassword(b.config.Password)
	}
	opts.SetOnConnectHandler(func(client paho.Client) {
		// Resubscribe on every (re)connect.
		for _, topic := range []string{b.playTopic(), b.controlTopic()} {
			if token := client.Subscribe(topic, 1, b.handleMessage); token.Wait() && token.Error() != nil {
				b.logger.Error("Subscribe failed",
					zap.String("topic", topic),
					zap.Error(token.Error()))
			}
		}
	})

	b.client = paho.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	b.logger.Info("Listening for events",
		zap.String("broker", b.config.BrokerURL),
		zap.String("play_topic", b.playTopic()),
		zap.String("control_topic", b.controlTopic()))

	for {
		select {
		case <-ctx.Done():
			b.client.Disconnect(250)
			return nil
		case ev := <-b.events:
			b.dispatch(ctx, ev)
		}
	}
}

func (b *Bus) handleMessage(_ paho.Client, msg paho.Message) {
	var attrs map[string]any
	if err := json.Unmarshal(msg.Payload(), &attrs); err != nil {
		b.logger.Warn("Dropping malformed event payload",
			zap.String("topic", msg.Topic()),
			zap.Error(err))
		return
	}

	select {
	case b.events <- event{topic: msg.Topic(), attrs: attrs}:
	default:
		b.logger.Warn("Event queue full, dropping event",
			zap.String("topic", msg.Topic()))
	}
}

func (b *Bus) dispatch(ctx context.Context, ev event) {
	switch ev.topic {
	case b.playTopic():
		if b.playHandler != nil {
			b.playHandler(ctx, ev.attrs)
		}
	case b.controlTopic():
		if b.controlHandler != nil {
			b.controlHandler(ctx, ev.attrs)
		}
	default:
		b.logger.Debug("Ignoring event on unexpected topic",
			zap.String("topic", ev.topic))
	}
}
