// Package mqttbus adapts the MQTT client to the broker transport the link
// manager polls. Connection attempts are started here but observed through
// IsConnected, and inbound messages only reach the handler during Pump, which
// the link manager calls from the supervisor loop.
package mqttbus

import (
	"context"
	"time"

	"github.com/ZerepL/smart-espresso/pkg/log"
	"github.com/ZerepL/smart-espresso/pkg/mqtt"
)

const (
	// qosCommands is the QoS for the command subscription; at-least-once so
	// commands issued while the appliance is offline are still delivered.
	qosCommands = 1

	// qosReports is the QoS for outbound status and verification publishes.
	qosReports = 0

	// drainBudget bounds handler dispatches per pump so one chatty topic
	// cannot starve a loop iteration.
	drainBudget = 8

	publishTimeout = 2 * time.Second
)

// Handler receives inbound messages on the pumping goroutine.
type Handler func(topic string, payload []byte)

// Bus is a link.BrokerTransport over the MQTT client.
type Bus struct {
	ctx     context.Context
	cfg     *mqtt.ClientConfig
	client  mqtt.Client
	handler Handler
	logger  log.Logger
}

// NewBus builds the transport. The context bounds the lifetime of the
// underlying client; cancelling it tears the connection down.
func NewBus(ctx context.Context, cfg *mqtt.ClientConfig, logger log.Logger) *Bus {
	return &Bus{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger.WithName("mqttbus"),
	}
}

// SetHandler installs the inbound message callback. Must be set before the
// first Pump; messages arriving with no handler are dropped by the client
// router.
func (b *Bus) SetHandler(h Handler) {
	b.handler = h
}

// Connect starts the client. The underlying client reconnects on its own
// after a drop, so a second call while started is a cheap no-op success.
func (b *Bus) Connect(clientID string) bool {
	if b.client != nil {
		return true
	}

	b.cfg.ClientID = clientID

	client, err := mqtt.NewClient(b.cfg)
	if err != nil {
		b.logger.Error(err, "Broker client build failed")
		return false
	}

	if err := client.Start(b.ctx); err != nil {
		b.logger.Error(err, "Broker client start failed")
		return false
	}

	b.client = client
	return true
}

// Disconnect closes the broker session.
func (b *Bus) Disconnect() {
	if b.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	b.client.Disconnect(ctx)
	b.client = nil
}

// Subscribe registers the topic with the handler installed via SetHandler.
func (b *Bus) Subscribe(topic string) bool {
	if b.client == nil {
		return false
	}

	err := b.client.Subscribe(b.ctx, topic, qosCommands, func(_ context.Context, topic string, payload []byte) {
		if b.handler != nil {
			b.handler(topic, payload)
		}
	})
	if err != nil {
		b.logger.Error(err, "Subscribe failed", "topic", topic)
		return false
	}
	return true
}

// Publish sends one message, bounded by a short timeout so a wedged session
// cannot stall the loop for long.
func (b *Bus) Publish(topic string, payload []byte) bool {
	if b.client == nil || !b.client.IsConnected() {
		return false
	}

	ctx, cancel := context.WithTimeout(b.ctx, publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, topic, qosReports, false, payload); err != nil {
		b.logger.Warn("Publish failed", "topic", topic, "error", err)
		return false
	}
	return true
}

// IsConnected reports whether a broker session is established.
func (b *Bus) IsConnected() bool {
	return b.client != nil && b.client.IsConnected()
}

// Pump dispatches queued inbound messages on the calling goroutine.
func (b *Bus) Pump() {
	if b.client == nil {
		return
	}
	b.client.Drain(b.ctx, drainBudget)
}
