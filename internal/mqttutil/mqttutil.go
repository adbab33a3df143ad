// Package mqttutil wraps eclipse/paho.mqtt.golang with the small surface
// Satori needs: connect-with-credentials, publish a JSON payload, and
// subscribe with a typed JSON callback. The archive-command topic is
// Satori's only topic; QoS 2 buys the at-least-once delivery the Event
// Processor and Archiver already tolerate duplicates for.
package mqttutil

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Config carries the broker connection details shared by every Satori
// service that speaks MQTT.
type Config struct {
	Broker   string
	Port     int
	ClientID string
	Username string
	Password string
	Topic    string
}

// Client is a thin wrapper around a connected paho client, scoped to one topic.
type Client struct {
	raw   mqtt.Client
	topic string
}

// Connect dials the broker and blocks until the connection succeeds or 10
// seconds elapse.
func Connect(cfg Config) (*Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true)

	raw := mqtt.NewClient(opts)
	token := raw.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqttutil: connect to %s:%d timed out", cfg.Broker, cfg.Port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttutil: connect to %s:%d: %w", cfg.Broker, cfg.Port, err)
	}

	return &Client{raw: raw, topic: cfg.Topic}, nil
}

// Disconnect cleanly drops the broker connection, waiting up to quiesce for
// in-flight publishes to drain.
func (c *Client) Disconnect(quiesce uint) {
	c.raw.Disconnect(quiesce)
}

// PublishJSON marshals payload and publishes it to the client's configured topic at QoS 2.
func (c *Client) PublishJSON(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mqttutil: marshal payload: %w", err)
	}

	token := c.raw.Publish(c.topic, 2, false, data)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqttutil: publish to %s timed out", c.topic)
	}
	return token.Error()
}

// Subscribe registers handler for every message on the client's configured
// topic, decoding the payload as JSON into a fresh T before calling handler.
// Decode failures are logged by the caller-supplied handler's own error path
// by construction: Subscribe itself drops malformed payloads and calls
// onDecodeError, which may be nil.
func Subscribe[T any](c *Client, handler func(T), onDecodeError func(error)) error {
	token := c.raw.Subscribe(c.topic, 2, func(_ mqtt.Client, msg mqtt.Message) {
		var payload T
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			if onDecodeError != nil {
				onDecodeError(err)
			}
			return
		}
		handler(payload)
	})
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqttutil: subscribe to %s timed out", c.topic)
	}
	return token.Error()
}
