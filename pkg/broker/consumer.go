package broker

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one message received on topic.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes and dispatches messages until the context is done.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes to a set of topics sharing the same handler.
type Consumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewConsumer(client mqtt.Client, handler Handler, topics ...string) *Consumer {
	return &Consumer{
		client:  client,
		topics:  topics,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// QoSFor picks the subscription QoS: commands are at-least-once, telemetry at-most-once.
func QoSFor(topic string) byte {
	if strings.Contains(strings.TrimSpace(topic), "/control") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes to every topic and blocks until ctx is cancelled,
// then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			if c.handler == nil {
				log.Printf("broker: no handler set for topic %s", topic)
				return
			}
			if err := c.handler(msg.Topic(), msg); err != nil {
				log.Printf("broker: error handling message on %s: %v", msg.Topic(), err)
			}
		})
		if token.Wait() && token.Error() != nil {
			log.Printf("broker: error subscribing to %s: %v", topic, token.Error())
			continue
		}
		log.Printf("broker: subscribed to %s", topic)
	}

	<-ctx.Done()

	if len(c.topics) > 0 && c.client.IsConnected() {
		c.client.Unsubscribe(c.topics...).Wait()
	}
}
