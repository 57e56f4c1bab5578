package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT publishes each event on <prefix>/<event>.
type MQTT struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

func NewMQTT(broker, clientID, prefix string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return newMQTT(c, prefix), nil
}

func newMQTT(c mqtt.Client, prefix string) *MQTT {
	return &MQTT{client: c, prefix: strings.TrimSuffix(prefix, "/"), timeout: 3 * time.Second}
}

func (m *MQTT) Topic(event string) string {
	if m.prefix == "" {
		return event
	}
	return m.prefix + "/" + event
}

func (m *MQTT) Emit(_ context.Context, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.Topic(event), 1, false, b)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt publish %s: timeout", m.Topic(event))
	}
	return token.Error()
}

func (m *MQTT) Connected() bool { return m.client.IsConnectionOpen() }

func (m *MQTT) Close() { m.client.Disconnect(250) }
