package broker

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads on a fixed topic.
type IPublisher interface {
	Publish(payload []byte) error
	PublishJSON(v any) error
}

// Publisher holds the client and the topic it writes to.
type Publisher struct {
	client   mqtt.Client
	topic    string
	qos      byte
	retained bool
}

// NewPublisher creates a publisher on topic. Retained messages let late subscribers
// (a device booting up) receive the current state immediately.
func NewPublisher(client mqtt.Client, topic string, qos byte, retained bool) *Publisher {
	return &Publisher{
		client:   client,
		topic:    topic,
		qos:      qos,
		retained: retained,
	}
}

func (p *Publisher) Topic() string { return p.topic }

func (p *Publisher) Publish(payload []byte) error {
	token := p.client.Publish(p.topic, p.qos, p.retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) PublishJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal for %s: %w", p.topic, err)
	}
	return p.Publish(b)
}
