package hub

import (
	"bytes"
	"context"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
	"github.com/LeonardoBeccarini/esp32_smart_system/pkg/broker"
	"github.com/LeonardoBeccarini/esp32_smart_system/pkg/dedup"
)

type Topics struct {
	Data       string // hub -> retained snapshot
	Control    string // hub -> retained control state
	Update     string // device -> snapshot report
	ControlSet string // remote -> control command
}

func DefaultTopics() Topics {
	return Topics{
		Data:       "esp/data",
		Control:    "esp/control",
		Update:     "esp/update",
		ControlSet: "esp/control/set",
	}
}

// Bridge mirrors the store on MQTT and accepts reports/commands from it.
type Bridge struct {
	store    *Store
	data     broker.IPublisher
	control  broker.IPublisher
	consumer broker.IConsumer
	topics   Topics
	deduper  *dedup.Deduper

	// publishing happens off the caller's goroutine: paho deadlocks if a
	// message callback waits on its own publish token. Only the latest value
	// per topic is kept.
	mu          sync.Mutex
	pendingSnap *model.SensorSnapshot
	pendingCtrl *model.ControlState
	wake        chan struct{}
}

func NewBridge(store *Store, client mqtt.Client, topics Topics) *Bridge {
	b := &Bridge{
		store:   store,
		data:    broker.NewPublisher(client, topics.Data, 0, true),
		control: broker.NewPublisher(client, topics.Control, 1, true),
		topics:  topics,
		deduper: dedup.New(10*time.Second, 1000),
		wake:    make(chan struct{}, 1),
	}
	b.consumer = broker.NewConsumer(client, b.handle, topics.Update, topics.ControlSet)
	return b
}

// Start publishes changes and consumes inbound topics until ctx is done.
func (b *Bridge) Start(ctx context.Context) {
	b.store.Subscribe(b.publish)
	go b.drain(ctx)
	b.consumer.ConsumeMessage(ctx)
}

func (b *Bridge) publish(snap *messages.SnapshotReported, ctrl *messages.ControlChanged) {
	b.mu.Lock()
	switch {
	case snap != nil:
		v := snap.Snapshot
		b.pendingSnap = &v
	case ctrl != nil:
		v := ctrl.Control
		b.pendingCtrl = &v
	}
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Bridge) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}

		b.mu.Lock()
		snap, ctrl := b.pendingSnap, b.pendingCtrl
		b.pendingSnap, b.pendingCtrl = nil, nil
		b.mu.Unlock()

		if snap != nil {
			if err := b.data.PublishJSON(*snap); err != nil {
				log.Printf("hub: mqtt publish %s: %v", b.topics.Data, err)
			}
		}
		if ctrl != nil {
			if err := b.control.PublishJSON(*ctrl); err != nil {
				log.Printf("hub: mqtt publish %s: %v", b.topics.Control, err)
			}
		}
	}
}

func (b *Bridge) handle(topic string, msg mqtt.Message) error {
	payload := msg.Payload()

	switch topic {
	case b.topics.Update:
		snap, err := DecodeSnapshot(bytes.NewReader(payload))
		if err != nil {
			log.Printf("hub: invalid snapshot on %s: %v", topic, err)
			return nil // don't block the stream
		}
		b.store.ReportSnapshot(snap, model.SourceMQTT)
	case b.topics.ControlSet:
		// only broker redeliveries (DUP set) are dropped; a new publish of the
		// same command is a new write
		key := dedup.MessageKey(msg.MessageID(), payload)
		if msg.Duplicate() {
			if !b.deduper.ShouldProcess(key) {
				return nil
			}
		} else {
			b.deduper.Mark(key)
		}
		ctrl, err := DecodeControl(bytes.NewReader(payload))
		if err != nil {
			log.Printf("hub: invalid control on %s: %v", topic, err)
			return nil
		}
		b.store.SetControl(ctrl, model.SourceMQTT)
	default:
		log.Printf("hub: ignoring message on %s", topic)
	}
	return nil
}
