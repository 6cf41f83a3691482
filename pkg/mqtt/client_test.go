package mqtt

import (
	"context"
	"testing"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"espresso/cmd", "espresso/cmd", true},
		{"espresso/cmd", "espresso/status", false},
		{"espresso/+", "espresso/cmd", true},
		{"espresso/+", "espresso/cmd/extra", false},
		{"espresso/#", "espresso/cmd/extra", true},
		{"#", "anything/at/all", true},
		{"+/cmd", "espresso/cmd", true},
		{"+/cmd", "espresso/status", false},
		{"espresso/+/state", "espresso/boiler/state", true},
		{"espresso/+/state", "espresso/boiler", false},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestDrainDispatchesQueuedMessages(t *testing.T) {
	client, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	if err != nil {
		t.Fatal(err)
	}
	c := client.(*pahoClient)

	var got []string
	c.subscriptions.Store("espresso/cmd", subscriptionEntry{
		topic: "espresso/cmd",
		handler: func(_ context.Context, topic string, payload []byte) {
			got = append(got, string(payload))
		},
	})

	c.inbound <- inboundMessage{topic: "espresso/cmd", payload: []byte("on")}
	c.inbound <- inboundMessage{topic: "espresso/cmd", payload: []byte("ping")}
	c.inbound <- inboundMessage{topic: "espresso/other", payload: []byte("ignored")}

	n := client.Drain(context.Background(), 10)
	if n != 3 {
		t.Errorf("Drain() = %d, want 3 dequeued", n)
	}
	if len(got) != 2 || got[0] != "on" || got[1] != "ping" {
		t.Errorf("handled payloads = %v, want [on ping]", got)
	}
}

func TestDrainHonorsBudget(t *testing.T) {
	client, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"})
	if err != nil {
		t.Fatal(err)
	}
	c := client.(*pahoClient)

	for i := 0; i < 5; i++ {
		c.inbound <- inboundMessage{topic: "t", payload: nil}
	}

	if n := client.Drain(context.Background(), 2); n != 2 {
		t.Errorf("Drain(2) = %d, want 2", n)
	}
	if n := client.Drain(context.Background(), 10); n != 3 {
		t.Errorf("second Drain = %d, want the 3 remaining", n)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("NewClient(nil) returned no error")
	}
	if _, err := NewClient(&ClientConfig{}); err == nil {
		t.Error("NewClient without a broker URL returned no error")
	}
}
