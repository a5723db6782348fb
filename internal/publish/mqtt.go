// Package publish delivers location events to an MQTT broker.
package publish

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

type Config struct {
	// Broker is the MQTT broker URL, e.g. "tcp://localhost:1883".
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Client wraps one broker connection. Event names map to topics under the
// configured prefix.
type Client struct {
	cli    mqtt.Client
	prefix string
}

func Connect(cfg Config) (*Client, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("publish: broker is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "cellloc"
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = "cellloc/"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	cli := mqtt.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", cfg.Broker, token.Error())
	}
	return &Client{cli: cli, prefix: prefix}, nil
}

func (c *Client) IsConnected() bool {
	return c.cli.IsConnected()
}

// Publish sends the payload at QoS 1 and reports delivery success.
func (c *Client) Publish(event string, payload []byte) bool {
	token := c.cli.Publish(c.prefix+event, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return false
	}
	return token.Error() == nil
}

func (c *Client) Close() {
	c.cli.Disconnect(250)
}
