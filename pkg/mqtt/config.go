package mqtt

import (
	"errors"
	"net/url"
	"time"
)

// ClientConfig holds the configuration for creating a new MQTT Client.
type ClientConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// KeepAlive in seconds. Default is 60.
	KeepAlive uint16

	// ConnectTimeout for the initial connection. Default is 5s.
	ConnectTimeout time.Duration

	// CleanStart indicates whether to start a clean session. The appliance
	// keeps it false so commands issued while offline are still delivered.
	CleanStart bool

	// InsecureSkipVerify disables TLS certificate verification. Needed for
	// brokers running with self-signed certificates on the local network.
	InsecureSkipVerify bool

	// InboundQueueSize bounds the queue of received-but-not-yet-drained
	// messages. Default is 16; overflow drops the newest message.
	InboundQueueSize int

	// WillTopic, if set, registers a last-will message with the broker.
	WillTopic   string
	WillPayload []byte
	WillQoS     byte
	WillRetain  bool
}

// setDefaultConfig applies safe default values to the configuration.
func setDefaultConfig(cfg *ClientConfig) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = 60
	}

	if cfg.InboundQueueSize == 0 {
		cfg.InboundQueueSize = 16
	}
}

// Validate checks if the configuration is valid.
func (c *ClientConfig) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker url is required")
	}
	if _, err := url.Parse(c.BrokerURL); err != nil {
		return err
	}
	return nil
}
