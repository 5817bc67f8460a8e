package hub

import (
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model/messages"
)

type Config struct {
	HistorySize int // snapshots kept in memory for /esp/history

	// Optional collaborators, nil when not configured.
	Recorder *Recorder
	MQTT     mqtt.Client
	Alerter  *Alerter

	// Registerer for the hub metrics; defaults to a private registry.
	Registry *prometheus.Registry
}

// Hub owns the state store and fans every change out to the configured sinks.
type Hub struct {
	cfg     Config
	store   *Store
	history *History
	stream  *Stream
	events  *Events
	metrics *Metrics
}

func New(cfg Config) *Hub {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 500
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	h := &Hub{
		cfg:     cfg,
		store:   NewStore(),
		history: NewHistory(cfg.HistorySize),
		stream:  NewStream(),
		events:  NewEvents(),
		metrics: NewMetrics(cfg.Registry),
	}
	h.stream.initial = h.currentEnvelopes
	h.store.Subscribe(h.dispatch)
	return h
}

func (h *Hub) currentEnvelopes() []messages.Envelope {
	snap, ctrl := h.store.Both()
	out := make([]messages.Envelope, 0, 2)
	if env, err := messages.Wrap(messages.KindSnapshot, messages.SnapshotReported{Snapshot: snap}); err == nil {
		out = append(out, env)
	}
	if env, err := messages.Wrap(messages.KindControl, messages.ControlChanged{Control: ctrl}); err == nil {
		out = append(out, env)
	}
	return out
}

func (h *Hub) Store() *Store { return h.store }

func (h *Hub) Stream() *Stream { return h.stream }

func (h *Hub) Events() *Events { return h.events }

func (h *Hub) Registry() *prometheus.Registry { return h.cfg.Registry }

// dispatch runs after every store write.
func (h *Hub) dispatch(snap *messages.SnapshotReported, ctrl *messages.ControlChanged) {
	switch {
	case snap != nil:
		h.history.Add(*snap)
		h.metrics.ObserveSnapshot(*snap)
		h.stream.Broadcast(messages.KindSnapshot, snap)
		h.events.Publish(messages.KindSnapshot, snap.Snapshot)
		if h.cfg.Recorder != nil {
			h.cfg.Recorder.RecordSnapshot(*snap)
		}
		if h.cfg.Alerter != nil {
			h.cfg.Alerter.Check(snap.Snapshot.Temperature)
		}
	case ctrl != nil:
		h.metrics.ObserveControl(*ctrl)
		h.stream.Broadcast(messages.KindControl, ctrl)
		h.events.Publish(messages.KindControl, ctrl.Control)
		if h.cfg.Recorder != nil {
			h.cfg.Recorder.RecordControl(*ctrl)
		}
		log.Printf("hub: control set by %s: led=%t analog_output=%d fan=%t fan_speed=%d",
			ctrl.Source, ctrl.Control.LED, ctrl.Control.AnalogOutput, ctrl.Control.Fan, ctrl.Control.FanSpeed)
	}
}
