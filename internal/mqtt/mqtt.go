package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/glenmo/lorawan-water-tank-monitor/internal/config"
	"github.com/glenmo/lorawan-water-tank-monitor/internal/uplink"
)

// MessageHandler receives every well-formed uplink. paho calls it from a
// single goroutine, one message at a time.
type MessageHandler func(up uplink.Uplink)

// MQTTSubscriber is what feature modules need to attach to the transport.
type MQTTSubscriber interface {
	SetMessageHandler(handler MessageHandler)
}

type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
	handler   MessageHandler

	// ready is closed by the first successful subscribe.
	ready     chan struct{}
	readyOnce sync.Once

	stopCh   chan struct{}
	stopOnce sync.Once
}

// SetMessageHandler sets the handler for uplink messages. Call it before
// Connect.
func (s *Subscriber) SetMessageHandler(handler MessageHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{
		cfg:    cfg,
		logger: logger,
		ready:  make(chan struct{}),
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	// Session settings
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)

		// Clean sessions start without subscriptions, so every connect
		// (first, late or reconnect) subscribes here.
		if err := s.subscribe(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "error", err)
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Connect starts the client and waits until the topic is subscribed.
// If ctx ends first, ctx.Err() is returned and paho keeps retrying in the
// background; the subscription follows whenever the broker comes up.
func (s *Subscriber) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	if s.IsConnected() && s.isReady() {
		return nil
	}

	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	// The OnConnect handler subscribes.
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("subscribe: %w", ctx.Err())
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	}
}

func (s *Subscriber) subscribe() error {
	if !s.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := s.cfg.MQTTTopic
	qos := byte(1) // At least once delivery

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}

	s.readyOnce.Do(func() { close(s.ready) })

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var up uplink.Uplink
	if err := json.Unmarshal(payload, &up); err != nil {
		s.logger.Warn("failed to parse uplink message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		s.logger.Debug("no message handler set, dropping uplink", "topic", topic)
		return
	}
	handler(up)
}

// IsConnected returns whether the client is connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *Subscriber) isReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}
