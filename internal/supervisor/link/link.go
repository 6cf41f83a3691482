// Package link owns the connection state of the two lossy transports: the
// primary network link and the message broker. Each manager is a small
// Down/Connecting/Up machine polled once per loop iteration, non-blocking,
// with its own retry cadence and an escalating-failure path into the restart
// latch.
package link

// State is the connection state of one managed link.
type State uint8

const (
	StateDown State = iota
	StateConnecting
	StateUp
)

func (s State) String() string {
	switch s {
	case StateUp:
		return "up"
	case StateConnecting:
		return "connecting"
	default:
		return "down"
	}
}

// Status is the instantaneous report of the primary transport.
type Status uint8

const (
	StatusDown Status = iota
	StatusUp
)

// PrimaryTransport is the primary network link collaborator (the board's
// WiFi/Ethernet interface).
type PrimaryTransport interface {
	Status() Status
	CurrentAddress() string
}

// BrokerTransport is the message-bus collaborator. Connect begins a
// connection attempt and must not block; progress is observed through
// IsConnected. Pump services inbound traffic and keep-alive while connected
// and is safe to call any number of times per iteration.
type BrokerTransport interface {
	Connect(clientID string) bool
	Disconnect()
	Subscribe(topic string) bool
	Publish(topic string, payload []byte) bool
	IsConnected() bool
	Pump()
}
